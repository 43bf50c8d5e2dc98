// Package driver runs the simulation tick loop of spec.md §4.7: H
// update, magnetic sources, E update, electric sources, step
// increment, schedule drain.
package driver

import (
	"fmt"

	"github.com/pthm-cable/fdtd/cpml"
	"github.com/pthm-cable/fdtd/field"
	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
	"github.com/pthm-cable/fdtd/kernel"
	"github.com/pthm-cable/fdtd/material"
	"github.com/pthm-cable/fdtd/schedule"
	"github.com/pthm-cable/fdtd/source"
)

// Driver owns the step counter, clock accumulator, and every resource
// the tick loop touches. Lifecycle is init/Tick*/shutdown, per
// spec.md §9's "Global mutable state" note -- no process-wide statics.
type Driver struct {
	Device    gpu.Device
	Grid      *gridmap.Grid
	State     *field.State
	Coeffs    *material.Coefficients
	Pipelines *kernel.Pipelines
	CPML      *cpml.Subsystem
	Boundary  kernel.Boundary

	MagneticVolumetric []*source.Volumetric
	ElectricVolumetric []*source.Volumetric
	MagneticModal      []*source.Modal
	ElectricModal      []*source.Modal

	Step          int
	ClockAccum    float64
	Tau           float64 // pacing interval between ticks, in seconds
	Paused        bool
	PauseSchedule *schedule.Queue
	ExportSchedule *schedule.Queue

	// OnExport is invoked with the step number whenever the export
	// schedule's head matches the new step.
	OnExport func(step int) error
}

// Tick runs exactly one H/E half-step pair and advances Step by one,
// per the ordering spec.md §4.7 and §5 require: H-update completes
// before any magnetic source; magnetic sources before E-update;
// E-update before electric sources; electric sources before the step
// increment.
func (d *Driver) Tick() error {
	encoder, err := d.Device.CreateCommandEncoder()
	if err != nil {
		return fmt.Errorf("driver: creating command encoder: %w", err)
	}

	if err := d.Pipelines.DispatchMagnetic(encoder, d.Grid, d.State, d.Boundary); err != nil {
		return fmt.Errorf("driver: H-update: %w", err)
	}
	d.CPML.RunMagnetic(d.State, d.Coeffs)

	for _, v := range d.MagneticVolumetric {
		v.InjectTick(d.Grid, d.State, d.Step, d.Grid.Dt)
	}
	for _, m := range d.MagneticModal {
		m.InjectTick(d.Grid, d.State, d.Step)
	}

	if err := d.Pipelines.DispatchElectric(encoder, d.Grid, d.State, d.Boundary); err != nil {
		return fmt.Errorf("driver: E-update: %w", err)
	}
	d.CPML.RunElectric(d.State, d.Coeffs)

	for _, v := range d.ElectricVolumetric {
		v.InjectTick(d.Grid, d.State, d.Step, d.Grid.Dt)
	}
	for _, m := range d.ElectricModal {
		m.InjectTick(d.Grid, d.State, d.Step)
	}

	if err := encoder.Submit(); err != nil {
		return fmt.Errorf("driver: submitting tick %d: %w", d.Step, err)
	}

	d.Step++

	if d.PauseSchedule != nil && d.PauseSchedule.Drain(d.Step) > 0 {
		d.Paused = true
		d.ClockAccum = 0
	}
	if d.ExportSchedule != nil && d.ExportSchedule.Drain(d.Step) > 0 && d.OnExport != nil {
		if err := d.OnExport(d.Step); err != nil {
			return fmt.Errorf("driver: export at step %d: %w", d.Step, err)
		}
	}
	return nil
}

// Advance paces ticks against the clock accumulator: it adds elapsed
// to the accumulator and runs ticks while the accumulator holds at
// least one period of Tau and the driver is not paused. Matches
// spec.md §5's "suspends between ticks when the clock accumulator is
// less than τ".
func (d *Driver) Advance(elapsed float64) error {
	if d.Paused {
		return nil
	}
	d.ClockAccum += elapsed
	for d.ClockAccum >= d.Tau && !d.Paused {
		if err := d.Tick(); err != nil {
			return err
		}
		d.ClockAccum -= d.Tau
	}
	return nil
}

// Resume clears the paused state and zeros the clock accumulator, per
// spec.md §4.7's "resume zeros the clock accumulator."
func (d *Driver) Resume() {
	d.Paused = false
	d.ClockAccum = 0
}

// Done reports whether both schedules are fully drained, the
// termination condition for headless runs per spec.md §9.
func (d *Driver) Done() bool {
	pauseEmpty := d.PauseSchedule == nil || d.PauseSchedule.Empty()
	exportEmpty := d.ExportSchedule == nil || d.ExportSchedule.Empty()
	return pauseEmpty && exportEmpty
}

// RunHeadless runs ticks until both schedules are drained or maxSteps
// is reached (0 = unbounded), ignoring pause/clock pacing -- the
// headless for-loop spec.md §9 describes in place of the interactive
// event loop.
func (d *Driver) RunHeadless(maxSteps int) error {
	for {
		if maxSteps > 0 && d.Step >= maxSteps {
			return nil
		}
		wasPaused := d.Paused
		if err := d.Tick(); err != nil {
			return err
		}
		if d.Paused && !wasPaused {
			d.Resume()
		}
		if d.Done() {
			return nil
		}
	}
}
