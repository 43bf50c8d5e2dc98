package material

import (
	"math"
	"testing"

	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
)

func testGrid(t *testing.T, c int) *gridmap.Grid {
	t.Helper()
	d := gridmap.Domain{X: [2]float64{0, 1}, Y: [2]float64{0, 1}, Z: [2]float64{0, 1}}
	boundary := gridmap.Boundary{Type: "PEC"}
	if c > 0 {
		boundary = gridmap.Boundary{Type: "PML", Cells: c, Sigma: 1, Alpha: 0}
	}
	g, err := gridmap.New(d, 0.05, 1e-3, boundary)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestRasterizeNoModelsIsUniformBackground(t *testing.T) {
	g := testGrid(t, 0)
	device := gpu.NewHostDevice()
	coeffs, err := Rasterize(device, g, nil)
	if err != nil {
		t.Fatal(err)
	}
	ec, err := coeffs.EC.Read()
	if err != nil {
		t.Fatal(err)
	}
	wantEc2 := float32(g.Dt / g.Dx)
	wantEc3 := float32(g.Dt)
	for i := 0; i < len(ec); i += 2 {
		if ec[i] != wantEc2 || ec[i+1] != wantEc3 {
			t.Fatalf("cell %d: expected (%v,%v), got (%v,%v)", i/2, wantEc2, wantEc3, ec[i], ec[i+1])
		}
	}
}

// cubeMesh returns an axis-aligned unit cube centered at the origin in
// model-local space, vertices in [-0.5, 0.5]^3.
func cubeMesh() *Mesh {
	v := [8][3]float64{
		{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
		{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
	}
	faces := [6][4]int{
		{0, 1, 2, 3}, {4, 5, 6, 7}, {0, 1, 5, 4},
		{2, 3, 7, 6}, {1, 2, 6, 5}, {3, 0, 4, 7},
	}
	var m Mesh
	for _, f := range faces {
		m.Triangles = append(m.Triangles,
			Triangle{A: v[f[0]], B: v[f[1]], C: v[f[2]]},
			Triangle{A: v[f[0]], B: v[f[2]], C: v[f[3]]},
		)
	}
	return &m
}

func TestRasterizeCellsOutsideBoundingBoxKeepBackground(t *testing.T) {
	g := testGrid(t, 0)
	device := gpu.NewHostDevice()
	models := []Model{{Mesh: cubeMesh(), Position: [3]float64{0.5, 0.5, 0.5}, Scale: [3]float64{0.2, 0.2, 0.2}, RefractiveIndex: 2}}
	coeffs, err := Rasterize(device, g, models)
	if err != nil {
		t.Fatal(err)
	}
	ec := gpu.Raw3D(coeffs.EC)
	extent := gpu.Extent3D{X: g.G[0], Y: g.G[1], Z: g.G[2]}
	wantEc3 := float32(g.Dt)
	// A corner cell is far outside the small cube's bounding box.
	off := gpu.Index3D(extent, 0, 0, 0)
	if ec[2*off+1] != wantEc3 {
		t.Errorf("corner cell should retain background ec3=%v, got %v", wantEc3, ec[2*off+1])
	}
}

func TestRasterizeIsDeterministic(t *testing.T) {
	g := testGrid(t, 0)
	models := []Model{{Mesh: cubeMesh(), Position: [3]float64{0.5, 0.5, 0.5}, Scale: [3]float64{0.4, 0.4, 0.4}, RefractiveIndex: 2}}

	c1, err := Rasterize(gpu.NewHostDevice(), g, models)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := Rasterize(gpu.NewHostDevice(), g, models)
	if err != nil {
		t.Fatal(err)
	}
	ec1, _ := c1.EC.Read()
	ec2, _ := c2.EC.Read()
	if len(ec1) != len(ec2) {
		t.Fatalf("length mismatch %d vs %d", len(ec1), len(ec2))
	}
	for i := range ec1 {
		if ec1[i] != ec2[i] {
			t.Fatalf("mismatch at %d: %v vs %v", i, ec1[i], ec2[i])
		}
	}
}

func TestRasterizeLaterModelOverwritesEarlier(t *testing.T) {
	g := testGrid(t, 0)
	device := gpu.NewHostDevice()
	models := []Model{
		{Mesh: cubeMesh(), Position: [3]float64{0.5, 0.5, 0.5}, Scale: [3]float64{0.6, 0.6, 0.6}, RefractiveIndex: 2},
		{Mesh: cubeMesh(), Position: [3]float64{0.5, 0.5, 0.5}, Scale: [3]float64{0.6, 0.6, 0.6}, RefractiveIndex: 4},
	}
	coeffs, err := Rasterize(device, g, models)
	if err != nil {
		t.Fatal(err)
	}
	ec := gpu.Raw3D(coeffs.EC)
	extent := gpu.Extent3D{X: g.G[0], Y: g.G[1], Z: g.G[2]}
	center := extent.X / 2
	off := gpu.Index3D(extent, center, center, center)
	wantEc3 := float32(g.Dt / 16) // n=4 -> eps=16
	if math.Abs(float64(ec[2*off+1]-wantEc3)) > 1e-9 {
		t.Errorf("expected last model (n=4) to win at center, got ec3=%v want %v", ec[2*off+1], wantEc3)
	}
}

func TestRasterizeSphereCountApproximatesVolume(t *testing.T) {
	d := gridmap.Domain{X: [2]float64{0, 1}, Y: [2]float64{0, 1}, Z: [2]float64{0, 1}}
	g, err := gridmap.New(d, 0.025, 1e-3, gridmap.Boundary{Type: "PEC"})
	if err != nil {
		t.Fatal(err)
	}
	radius := 10.0 * g.Dx // 10 cells, matching §8 scenario 4
	sphere := sphereMesh(16, 16)
	models := []Model{{Mesh: sphere, Position: [3]float64{0.5, 0.5, 0.5}, Scale: [3]float64{radius, radius, radius}, RefractiveIndex: 2}}

	coeffs, err := Rasterize(gpu.NewHostDevice(), g, models)
	if err != nil {
		t.Fatal(err)
	}
	ec := gpu.Raw3D(coeffs.EC)
	bgEc3 := float32(g.Dt)
	count := 0
	for i := 0; i < len(ec)/2; i++ {
		if ec[2*i+1] != bgEc3 {
			count++
		}
	}
	want := 4.0 / 3.0 * math.Pi * 10.0 * 10.0 * 10.0
	if float64(count) < want*0.7 || float64(count) > want*1.3 {
		t.Errorf("expected roughly %v inside cells, got %d", want, count)
	}
}

// sphereMesh builds a UV-sphere of unit radius (scaled by Model.Scale).
func sphereMesh(lat, lon int) *Mesh {
	var verts [][3]float64
	for i := 0; i <= lat; i++ {
		theta := math.Pi * float64(i) / float64(lat)
		for j := 0; j <= lon; j++ {
			phi := 2 * math.Pi * float64(j) / float64(lon)
			verts = append(verts, [3]float64{
				math.Sin(theta) * math.Cos(phi),
				math.Sin(theta) * math.Sin(phi),
				math.Cos(theta),
			})
		}
	}
	var m Mesh
	row := lon + 1
	for i := 0; i < lat; i++ {
		for j := 0; j < lon; j++ {
			a := i*row + j
			b := a + row
			m.Triangles = append(m.Triangles,
				Triangle{A: verts[a], B: verts[b], C: verts[a+1]},
				Triangle{A: verts[a+1], B: verts[b], C: verts[b+1]},
			)
		}
	}
	return &m
}
