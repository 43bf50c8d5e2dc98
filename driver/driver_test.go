package driver

import (
	"testing"

	"github.com/pthm-cable/fdtd/cpml"
	"github.com/pthm-cable/fdtd/field"
	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
	"github.com/pthm-cable/fdtd/kernel"
	"github.com/pthm-cable/fdtd/material"
	"github.com/pthm-cable/fdtd/schedule"
)

func newTestDriver(t *testing.T) *Driver {
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
	state, err := field.New(device, grid, coeffs)
	if err != nil {
		t.Fatal(err)
	}
	loader := &stubLoader{src: "@compute @workgroup_size(WORKGROUP_X, WORKGROUP_Y, WORKGROUP_Z) fn update_electric_field() {} @compute @workgroup_size(WORKGROUP_X, WORKGROUP_Y, WORKGROUP_Z) fn update_magnetic_field() {}"}
	pipelines, err := kernel.New(device, loader, "fdtd-3d.wgsl", gpu.Workgroup{X: 4, Y: 4, Z: 4})
	if err != nil {
		t.Fatal(err)
	}
	return &Driver{
		Device:    device,
		Grid:      grid,
		State:     state,
		Coeffs:    coeffs,
		Pipelines: pipelines,
		CPML:      cpml.New(grid, nil, 1, 0),
		Tau:       1e-3,
	}
}

type stubLoader struct{ src string }

func (s *stubLoader) Load(string) (string, error) { return s.src, nil }

func TestTickIncrementsStep(t *testing.T) {
	d := newTestDriver(t)
	if err := d.Tick(); err != nil {
		t.Fatal(err)
	}
	if d.Step != 1 {
		t.Fatalf("expected step 1, got %d", d.Step)
	}
}

func TestZeroFieldsStayZeroWithoutSources(t *testing.T) {
	d := newTestDriver(t)
	for i := 0; i < 10; i++ {
		if err := d.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	for _, tex := range []gpu.Texture3D{d.State.Ex, d.State.Ey, d.State.Ez, d.State.Hx, d.State.Hy, d.State.Hz} {
		for _, v := range gpu.Raw3D(tex) {
			if v != 0 {
				t.Fatalf("expected all-zero fields to remain zero after %d ticks, got %v", 10, v)
			}
		}
	}
}

func TestPauseScheduleStopsAdvanceAndResumeResetsClock(t *testing.T) {
	d := newTestDriver(t)
	d.PauseSchedule = schedule.New([]int{2})
	if err := d.Advance(d.Tau * 5); err != nil {
		t.Fatal(err)
	}
	if !d.Paused {
		t.Fatal("expected driver to pause at step 2")
	}
	if d.Step != 2 {
		t.Fatalf("expected exactly 2 ticks before pause, got %d", d.Step)
	}
	d.Resume()
	if d.Paused || d.ClockAccum != 0 {
		t.Fatal("expected resume to clear pause and zero the clock accumulator")
	}
}

func TestExportScheduleInvokesCallback(t *testing.T) {
	d := newTestDriver(t)
	d.ExportSchedule = schedule.New([]int{3})
	var exported []int
	d.OnExport = func(step int) error {
		exported = append(exported, step)
		return nil
	}
	for i := 0; i < 5; i++ {
		if err := d.Tick(); err != nil {
			t.Fatal(err)
		}
	}
	if len(exported) != 1 || exported[0] != 3 {
		t.Fatalf("expected export callback at step 3, got %v", exported)
	}
}

func TestRunHeadlessStopsWhenSchedulesDrained(t *testing.T) {
	d := newTestDriver(t)
	d.ExportSchedule = schedule.New([]int{4})
	if err := d.RunHeadless(0); err != nil {
		t.Fatal(err)
	}
	if d.Step != 4 {
		t.Fatalf("expected headless run to stop at step 4, got %d", d.Step)
	}
}
