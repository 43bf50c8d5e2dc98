package material

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
)

// Model places a mesh in world space with a uniform per-axis scale and
// assigns it a scalar refractive index (mu is fixed at 1: the spec's
// Non-goals exclude anisotropic/dispersive materials, so a single
// refractive index is enough to derive both ec and hc coefficients).
type Model struct {
	Mesh            *Mesh
	Position        [3]float64
	Scale           [3]float64
	RefractiveIndex float64
}

// Coefficients holds the two update-coefficient maps built by Rasterize:
// EC stores (ec2,ec3) per cell, HC stores (hc2,hc3) per cell, both
// Gx*Gy*Gz RG32Float textures. See spec.md §3's Coefficient Maps entity.
type Coefficients struct {
	Grid *gridmap.Grid
	EC   gpu.Texture3D
	HC   gpu.Texture3D
}

// backgroundCoeffs returns (ec2,ec3,hc2,hc3) for vacuum (eps=mu=1).
func backgroundCoeffs(grid *gridmap.Grid) (ec2, ec3, hc2, hc3 float32) {
	ec3 = float32(grid.Dt)
	ec2 = float32(grid.Dt / grid.Dx)
	hc3 = float32(grid.Dt)
	hc2 = float32(grid.Dt / grid.Dx)
	return
}

// materialCoeffs derives a model's (ec2,ec3,hc2,hc3) from its refractive
// index, assuming mu=1 so n = sqrt(eps): ec3 = dt/eps = dt/n^2.
func materialCoeffs(grid *gridmap.Grid, n float64) (ec2, ec3, hc2, hc3 float32) {
	eps := n * n
	ec3 = float32(grid.Dt / eps)
	ec2 = float32(grid.Dt / eps / grid.Dx)
	hc3 = float32(grid.Dt)
	hc2 = float32(grid.Dt / grid.Dx)
	return
}

// Rasterize voxelizes models (in declaration order -- later models
// overwrite earlier ones on shared cells, per §4.2 and §9) into the
// coefficient textures, then, if the grid has a PML halo, extrudes the
// interior coefficients outward to fill it.
func Rasterize(device gpu.Device, grid *gridmap.Grid, models []Model) (*Coefficients, error) {
	ecExtent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	ec, err := device.CreateTexture3D(ecExtent, gpu.FormatRG32Float, "ec_coefficients")
	if err != nil {
		return nil, fmt.Errorf("material: allocating ec texture: %w", err)
	}
	hc, err := device.CreateTexture3D(ecExtent, gpu.FormatRG32Float, "hc_coefficients")
	if err != nil {
		return nil, fmt.Errorf("material: allocating hc texture: %w", err)
	}

	ecData := gpu.Raw3D(ec)
	hcData := gpu.Raw3D(hc)
	bgEc2, bgEc3, bgHc2, bgHc3 := backgroundCoeffs(grid)
	for i := 0; i < grid.Cells(); i++ {
		ecData[2*i], ecData[2*i+1] = bgEc2, bgEc3
		hcData[2*i], hcData[2*i+1] = bgHc2, bgHc3
	}

	sx, sy, sz := grid.S[0], grid.S[1], grid.S[2]
	for _, m := range models {
		if m.Mesh == nil {
			return nil, fmt.Errorf("material: model has no mesh")
		}
		flags := make([]int, sx*sy*sz)
		for _, tri := range m.Mesh.Triangles {
			gtri := transformTriangle(tri, grid, m)
			voxelizeTriangle(gtri, grid, flags)
		}
		ec2, ec3, hc2, hc3 := materialCoeffs(grid, m.RefractiveIndex)
		applyParity(flags, sx, sy, sz, grid, ecData, hcData, ec2, ec3, hc2, hc3)
	}

	if grid.C > 0 {
		replicateHalo(grid, ecData, hcData)
	}

	return &Coefficients{Grid: grid, EC: ec, HC: hc}, nil
}

// transformTriangle places a model-local triangle into world space
// (scale then translate) and then into continuous grid-index space via
// the grid's world-to-grid map.
func transformTriangle(tri Triangle, grid *gridmap.Grid, m Model) Triangle {
	place := func(v [3]float64) [3]float64 {
		world := [3]float64{
			v[0]*m.Scale[0] + m.Position[0],
			v[1]*m.Scale[1] + m.Position[1],
			v[2]*m.Scale[2] + m.Position[2],
		}
		return grid.WorldToGrid(world)
	}
	return Triangle{A: place(tri.A), B: place(tri.B), C: place(tri.C)}
}

// voxelizeTriangle casts a +z ray from (x,y,0) at every integer (x,y) in
// the triangle's grid-space bounding box (restricted to the interior, C
// skipped on x and y), solving the ray/triangle intersection via
// Cramer's rule, and marks the hit voxel in the interior flag grid.
// Flags are 0/1: a voxel hit by several triangles (as where the ray
// crosses an edge or vertex shared by two triangles) is marked once.
func voxelizeTriangle(tri Triangle, grid *gridmap.Grid, flags []int) {
	sx, sy, sz := grid.S[0], grid.S[1], grid.S[2]
	c := grid.C

	minX := int(math.Floor(min3(tri.A[0], tri.B[0], tri.C[0])))
	maxX := int(math.Ceil(max3(tri.A[0], tri.B[0], tri.C[0])))
	minY := int(math.Floor(min3(tri.A[1], tri.B[1], tri.C[1])))
	maxY := int(math.Ceil(max3(tri.A[1], tri.B[1], tri.C[1])))

	if minX < c {
		minX = c
	}
	if minY < c {
		minY = c
	}
	if maxX > c+sx-1 {
		maxX = c + sx - 1
	}
	if maxY > c+sy-1 {
		maxY = c + sy - 1
	}

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			u, v, t, ok := rayTriangleBarycentric(tri, float64(x), float64(y))
			if !ok || u < 0 || v < 0 || u+v > 1 {
				continue
			}
			zi := int(math.Round(t)) - c
			if zi < 0 {
				zi = 0
			}
			if zi > sz-1 {
				zi = sz - 1
			}
			xi, yi := x-c, y-c
			if xi < 0 || xi >= sx || yi < 0 || yi >= sy {
				continue
			}
			flags[(zi*sy+yi)*sx+xi] = 1
		}
	}
}

// rayTriangleBarycentric solves, via Cramer's rule on a 3x3 linear
// system (gonum's mat.Det, one determinant per unknown), the
// intersection of the ray O=(x,y,0), D=(0,0,1) with triangle tri,
// returning barycentric (u,v) and ray parameter t. ok is false if the
// system is singular (ray parallel to the triangle's plane).
func rayTriangleBarycentric(tri Triangle, x, y float64) (u, v, t float64, ok bool) {
	e1 := sub(tri.B, tri.A)
	e2 := sub(tri.C, tri.A)
	o := [3]float64{x, y, 0}
	rhs := sub(o, tri.A)

	// M * [u, v, t]^T = rhs, where M's columns are e1, e2, -D with D=(0,0,1).
	m := mat.NewDense(3, 3, []float64{
		e1[0], e2[0], 0,
		e1[1], e2[1], 0,
		e1[2], e2[2], -1,
	})
	det := m.Det()
	if math.Abs(det) < 1e-12 {
		return 0, 0, 0, false
	}

	mu := mat.NewDense(3, 3, []float64{
		rhs[0], e2[0], 0,
		rhs[1], e2[1], 0,
		rhs[2], e2[2], -1,
	})
	mv := mat.NewDense(3, 3, []float64{
		e1[0], rhs[0], 0,
		e1[1], rhs[1], 0,
		e1[2], rhs[2], -1,
	})
	mt := mat.NewDense(3, 3, []float64{
		e1[0], e2[0], rhs[0],
		e1[1], e2[1], rhs[1],
		e1[2], e2[2], rhs[2],
	})

	u = mu.Det() / det
	v = mv.Det() / det
	t = mt.Det() / det
	return u, v, t, true
}

// applyParity sweeps z per (x,y) column, maintaining the parity of the
// running sum of hit flags; odd-parity cells are inside the current mesh and get their
// coefficients overwritten.
func applyParity(flags []int, sx, sy, sz int, grid *gridmap.Grid, ecData, hcData []float32, ec2, ec3, hc2, hc3 float32) {
	c := grid.C
	gx, gy := grid.G[0], grid.G[1]
	for xi := 0; xi < sx; xi++ {
		for yi := 0; yi < sy; yi++ {
			parity := 0
			for zi := 0; zi < sz; zi++ {
				parity += flags[(zi*sy+yi)*sx+xi]
				if parity%2 == 0 {
					continue
				}
				gxi, gyi, gzi := xi+c, yi+c, zi+c
				off := gpu.Index3D(gpu.Extent3D{X: gx, Y: gy, Z: grid.G[2]}, gxi, gyi, gzi)
				ecData[2*off], ecData[2*off+1] = ec2, ec3
				hcData[2*off], hcData[2*off+1] = hc2, hc3
			}
		}
	}
}

// replicateHalo extrudes each of the interior's 6 faces outward to fill
// the 2C-thick halo, per §4.2's PML halo replication step.
func replicateHalo(grid *gridmap.Grid, ecData, hcData []float32) {
	c := grid.C
	gx, gy, gz := grid.G[0], grid.G[1], grid.G[2]
	extent := gpu.Extent3D{X: gx, Y: gy, Z: gz}
	copyCell := func(dstI, dstJ, dstK, srcI, srcJ, srcK int) {
		dst := gpu.Index3D(extent, dstI, dstJ, dstK)
		src := gpu.Index3D(extent, srcI, srcJ, srcK)
		ecData[2*dst], ecData[2*dst+1] = ecData[2*src], ecData[2*src+1]
		hcData[2*dst], hcData[2*dst+1] = hcData[2*src], hcData[2*src+1]
	}

	for j := c; j < gy-c; j++ {
		for k := c; k < gz-c; k++ {
			for i := 0; i < c; i++ {
				copyCell(i, j, k, c, j, k)
				copyCell(gx-1-i, j, k, gx-1-c, j, k)
			}
		}
	}
	for i := c; i < gx-c; i++ {
		for k := c; k < gz-c; k++ {
			for j := 0; j < c; j++ {
				copyCell(i, j, k, i, c, k)
				copyCell(i, gy-1-j, k, i, gy-1-c, k)
			}
		}
	}
	for i := c; i < gx-c; i++ {
		for j := c; j < gy-c; j++ {
			for k := 0; k < c; k++ {
				copyCell(i, j, k, i, j, c)
				copyCell(i, j, gz-1-k, i, j, gz-1-c)
			}
		}
	}
	// Edges and corners: every halo cell takes the value of the nearest
	// interior cell, found by clamping each index into [C, G-C); for
	// face cells this repeats the copy made above.
	for i := 0; i < gx; i++ {
		for j := 0; j < gy; j++ {
			for k := 0; k < gz; k++ {
				if grid.Interior(i, j, k) {
					continue
				}
				copyCell(i, j, k, clampInterior(i, c, gx), clampInterior(j, c, gy), clampInterior(k, c, gz))
			}
		}
	}
}

func clampInterior(v, c, g int) int {
	if v < c {
		return c
	}
	if v > g-1-c {
		return g - 1 - c
	}
	return v
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func min3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }
func max3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }
