package cpml

import (
	"testing"

	"github.com/pthm-cable/fdtd/field"
	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
	"github.com/pthm-cable/fdtd/material"
)

func testGrid(t *testing.T, cells int) *gridmap.Grid {
	t.Helper()
	d := gridmap.Domain{X: [2]float64{0, 1}, Y: [2]float64{0, 1}, Z: [2]float64{0, 1}}
	g, err := gridmap.New(d, 0.1, 1e-3, gridmap.Boundary{Type: "PML", Cells: cells, Sigma: 1, Alpha: 0})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestBuildRegionsCountIs26(t *testing.T) {
	grid := testGrid(t, 3)
	regions := BuildRegions(grid)
	if len(regions) != 26 {
		t.Fatalf("expected 26 regions, got %d", len(regions))
	}
	var faces, edges, corners int
	for _, r := range regions {
		switch r.Shape() {
		case 1:
			faces++
		case 2:
			edges++
		case 3:
			corners++
		}
	}
	if faces != 6 || edges != 12 || corners != 8 {
		t.Fatalf("expected 6 faces/12 edges/8 corners, got %d/%d/%d", faces, edges, corners)
	}
}

func TestRegionChannelCounts(t *testing.T) {
	grid := testGrid(t, 3)
	for _, r := range BuildRegions(grid) {
		want := 2 * r.Shape()
		if r.Channels != want {
			t.Errorf("region %q: expected %d channels, got %d", r.Name, want, r.Channels)
		}
	}
}

func TestRegionExtentsCoverHaloWithoutOverlap(t *testing.T) {
	grid := testGrid(t, 3)
	seen := make(map[[3]int]int)
	for _, r := range BuildRegions(grid) {
		for k := 0; k < r.Extent[2]; k++ {
			for j := 0; j < r.Extent[1]; j++ {
				for i := 0; i < r.Extent[0]; i++ {
					p := [3]int{r.Offset[0] + i, r.Offset[1] + j, r.Offset[2] + k}
					seen[p]++
				}
			}
		}
	}
	for p, count := range seen {
		if count != 1 {
			t.Fatalf("cell %v covered %d times, expected exactly 1", p, count)
		}
	}
}

func TestOrderedRegionsPutsCornersFirst(t *testing.T) {
	grid := testGrid(t, 2)
	regions := orderedRegions(BuildRegions(grid))
	for i := 0; i < 8; i++ {
		if regions[i].Shape() != 3 {
			t.Fatalf("expected first 8 regions to be corners, region %d is shape %d", i, regions[i].Shape())
		}
	}
	for i := 8; i < 14; i++ {
		if regions[i].Shape() != 1 {
			t.Fatalf("expected regions 8-13 to be faces, region %d is shape %d", i, regions[i].Shape())
		}
	}
}

func TestNewReturnsNilWithoutPML(t *testing.T) {
	d := gridmap.Domain{X: [2]float64{0, 1}, Y: [2]float64{0, 1}, Z: [2]float64{0, 1}}
	grid, err := gridmap.New(d, 0.1, 1e-3, gridmap.Boundary{Type: "PEC"})
	if err != nil {
		t.Fatal(err)
	}
	if New(grid, nil, 1, 0) != nil {
		t.Fatal("expected nil subsystem without PML")
	}
}

func TestPsiStaysZeroWithZeroFields(t *testing.T) {
	grid := testGrid(t, 3)
	device := gpu.NewHostDevice()
	coeffs, err := material.Rasterize(device, grid, nil)
	if err != nil {
		t.Fatal(err)
	}
	decay, err := material.BuildDecayMaps(device, grid, coeffs, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := field.New(device, grid, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	sys := New(grid, decay, 1, 0)
	if sys == nil {
		t.Fatal("expected non-nil subsystem with PML active")
	}

	sys.RunMagnetic(s, coeffs)
	sys.RunElectric(s, coeffs)

	for _, p := range sys.Psi {
		for _, v := range p.Data {
			if v != 0 {
				t.Fatalf("expected psi to remain zero with zero fields, got %v", v)
			}
		}
	}
	for _, tex := range []gpu.Texture3D{s.Ex, s.Ey, s.Ez, s.Hx, s.Hy, s.Hz} {
		for _, v := range gpu.Raw3D(tex) {
			if v != 0 {
				t.Fatalf("expected field to remain zero with zero fields, got %v", v)
			}
		}
	}
	for _, p := range sys.Psi {
		if p.SumAbs() != 0 {
			t.Fatalf("expected zero ψ sum with zero fields, got %v", p.SumAbs())
		}
	}
}
