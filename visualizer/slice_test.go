package visualizer

import (
	"math"
	"testing"

	"github.com/pthm-cable/fdtd/field"
	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
	"github.com/pthm-cable/fdtd/material"
)

func testState(t *testing.T) (*gridmap.Grid, *field.State) {
	t.Helper()
	d := gridmap.Domain{X: [2]float64{0, 1}, Y: [2]float64{0, 1}, Z: [2]float64{0, 1}}
	grid, err := gridmap.New(d, 0.1, 1e-3, gridmap.Boundary{Type: "PEC"})
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

func TestSampleShapeMatchesPlaneExtent(t *testing.T) {
	grid, s := testState(t)
	slice, err := Sample(grid, s, Config{Axis: AxisZ, Pos: 0.5, Kind: KindE, Combine: Magnitude})
	if err != nil {
		t.Fatal(err)
	}
	if len(slice) != grid.G[1] || len(slice[0]) != grid.G[0] {
		t.Fatalf("expected %dx%d slice, got %dx%d", grid.G[0], grid.G[1], len(slice[0]), len(slice))
	}
}

func TestSampleMagnitudeIsNonNegative(t *testing.T) {
	grid, s := testState(t)
	ex := gpu.Raw3D(s.Ex)
	ex[0] = -3
	slice, err := Sample(grid, s, Config{Axis: AxisX, Pos: 0, Kind: KindE, Combine: Magnitude})
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range slice {
		for _, v := range row {
			if v < 0 {
				t.Fatalf("expected magnitude reduction to be non-negative, got %v", v)
			}
		}
	}
}

func TestSamplePositionClampsToValidPlane(t *testing.T) {
	grid, s := testState(t)
	if _, err := Sample(grid, s, Config{Axis: AxisY, Pos: -1, Kind: KindH}); err != nil {
		t.Fatal(err)
	}
	if _, err := Sample(grid, s, Config{Axis: AxisY, Pos: 2, Kind: KindH}); err != nil {
		t.Fatal(err)
	}
}

func TestReduceSignedSumsComponents(t *testing.T) {
	got := reduce(1, -2, 3, Signed)
	if math.Abs(float64(got-2)) > 1e-9 {
		t.Errorf("expected signed sum 2, got %v", got)
	}
}
