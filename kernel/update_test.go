package kernel

import (
	"math"
	"testing"

	"github.com/pthm-cable/fdtd/field"
	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
	"github.com/pthm-cable/fdtd/material"
)

func newTestState(t *testing.T, boundaryType string, cells int) (*gridmap.Grid, *field.State) {
	t.Helper()
	d := gridmap.Domain{X: [2]float64{0, 1}, Y: [2]float64{0, 1}, Z: [2]float64{0, 1}}
	boundary := gridmap.Boundary{Type: boundaryType}
	if cells > 0 {
		boundary.Cells = cells
		boundary.Sigma = 1
	}
	grid, err := gridmap.New(d, 0.1, 1e-3, boundary)
	if err != nil {
		t.Fatal(err)
	}
	device := gpu.NewHostDevice()
	coeffs, err := material.Rasterize(device, grid, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := field.New(device, grid, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	return grid, s
}

func TestUpdateElectricLeavesPECBoundaryZero(t *testing.T) {
	grid, s := newTestState(t, "PEC", 0)
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	hz := gpu.Raw3D(s.Hz)
	for i := range hz {
		hz[i] = 1
	}
	pc := pushConstants(extent, Boundary{UsePMC: false, UsePML: false})
	if err := UpdateElectric(s.EBundle, pc, gpu.Workgroup{}); err != nil {
		t.Fatal(err)
	}
	ex := gpu.Raw3D(s.Ex)
	off := gpu.Index3D(extent, 0, 0, 0)
	if ex[off] != 0 {
		t.Errorf("expected PEC boundary cell to stay zero, got %v", ex[off])
	}
}

func TestUpdateElectricPMCLeavesBoundaryUnchanged(t *testing.T) {
	grid, s := newTestState(t, "PEC", 0)
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	ex := gpu.Raw3D(s.Ex)
	off := gpu.Index3D(extent, 0, 0, 0)
	ex[off] = 5
	pc := pushConstants(extent, Boundary{UsePMC: true, UsePML: false})
	if err := UpdateElectric(s.EBundle, pc, gpu.Workgroup{}); err != nil {
		t.Fatal(err)
	}
	if ex[off] != 5 {
		t.Errorf("expected PMC boundary cell to be left unchanged, got %v", ex[off])
	}
}

func TestUpdateElectricUnderPMLSkipsBoundarySpecialCase(t *testing.T) {
	grid, s := newTestState(t, "PML", 4)
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	hz := gpu.Raw3D(s.Hz)
	for i := range hz {
		hz[i] = 1
	}
	pc := pushConstants(extent, Boundary{UsePMC: false, UsePML: true})
	if err := UpdateElectric(s.EBundle, pc, gpu.Workgroup{}); err != nil {
		t.Fatal(err)
	}
	ex := gpu.Raw3D(s.Ex)
	off := gpu.Index3D(extent, 0, 1, 1)
	if ex[off] == 0 {
		t.Errorf("expected boundary cell to receive the interior curl update under PML, got 0")
	}
}

func TestUpdateElectricInteriorCurl(t *testing.T) {
	grid, s := newTestState(t, "PEC", 0)
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	hz := gpu.Raw3D(s.Hz)
	i, j, k := extent.X/2, extent.Y/2, extent.Z/2
	hz[gpu.Index3D(extent, i, j, k)] = 2
	hz[gpu.Index3D(extent, i, j-1, k)] = 0

	pc := pushConstants(extent, Boundary{})
	if err := UpdateElectric(s.EBundle, pc, gpu.Workgroup{}); err != nil {
		t.Fatal(err)
	}
	ex := gpu.Raw3D(s.Ex)
	off := gpu.Index3D(extent, i, j, k)
	ec2 := float32(grid.Dt / grid.Dx)
	want := ec2 * 2
	if math.Abs(float64(ex[off]-want)) > 1e-6 {
		t.Errorf("expected ex=%v, got %v", want, ex[off])
	}
}

func TestUpdateMagneticInteriorCurl(t *testing.T) {
	grid, s := newTestState(t, "PEC", 0)
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	ez := gpu.Raw3D(s.Ez)
	i, j, k := extent.X/2, extent.Y/2, extent.Z/2
	ez[gpu.Index3D(extent, i, j+1, k)] = 3

	pc := pushConstants(extent, Boundary{})
	if err := UpdateMagnetic(s.HBundle, pc, gpu.Workgroup{}); err != nil {
		t.Fatal(err)
	}
	hx := gpu.Raw3D(s.Hx)
	off := gpu.Index3D(extent, i, j, k)
	hc2 := float32(grid.Dt / grid.Dx)
	want := -hc2 * 3
	if math.Abs(float64(hx[off]-want)) > 1e-6 {
		t.Errorf("expected hx=%v, got %v", want, hx[off])
	}
}
