// fdtdsim runs the FDTD/CPML electromagnetic solver against a
// declarative preset file, either windowed with a live slice
// visualizer or headless with scheduled exports. See spec.md §6.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fdtd/config"
	"github.com/pthm-cable/fdtd/cpml"
	"github.com/pthm-cable/fdtd/driver"
	"github.com/pthm-cable/fdtd/export"
	"github.com/pthm-cable/fdtd/field"
	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
	"github.com/pthm-cable/fdtd/kernel"
	"github.com/pthm-cable/fdtd/material"
	"github.com/pthm-cable/fdtd/schedule"
	"github.com/pthm-cable/fdtd/source"
	"github.com/pthm-cable/fdtd/visualizer"
)

var (
	info     = flag.Bool("info", false, "print adapter description and device limits, then exit")
	noVisual = flag.Bool("no-visual", false, "run headless; requires pause_at to be non-empty")
	logFile  = flag.String("logfile", "", "write progress logs to file instead of stdout")
	logWriter *os.File
)

func logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

func main() {
	flag.Parse()

	if *logFile != "" {
		var err error
		logWriter, err = os.Create(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fdtdsim: creating log file: %v\n", err)
			os.Exit(1)
		}
		defer logWriter.Close()
	}

	device := gpu.NewHostDevice()

	if *info {
		adapter, err := device.Info()
		if err != nil {
			fmt.Fprintf(os.Stderr, "fdtdsim: querying device info: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(adapter.String())
		return
	}

	presetPath := flag.Arg(0)
	cfg, err := config.Load(presetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fdtdsim: %v\n", err)
		os.Exit(1)
	}

	if *noVisual && len(cfg.PauseAt) == 0 {
		fmt.Fprintln(os.Stderr, "fdtdsim: --no-visual requires a non-empty pause_at schedule")
		os.Exit(1)
	}

	d, err := buildDriver(device, cfg, presetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fdtdsim: %v\n", err)
		os.Exit(1)
	}

	if *noVisual {
		runHeadless(d, cfg)
		return
	}
	runWindowed(d, cfg)
}

// buildDriver wires config -> gridmap -> material -> field -> kernel
// -> cpml -> source -> driver, per spec.md §4.7's construction order.
func buildDriver(device gpu.Device, cfg *config.Config, presetPath string) (*driver.Driver, error) {
	domain := gridmap.Domain{X: cfg.Domain[0], Y: cfg.Domain[1], Z: cfg.Domain[2]}
	boundary := gridmap.Boundary{
		Type:  cfg.Boundary.Type,
		Sigma: cfg.Boundary.Sigma,
		Alpha: cfg.Boundary.Alpha,
		Cells: cfg.Boundary.Cells,
	}
	grid, err := gridmap.New(domain, cfg.SpatialStep, cfg.TemporalStep, boundary)
	if err != nil {
		return nil, fmt.Errorf("building grid: %w", err)
	}

	models := make([]material.Model, 0, len(cfg.Models))
	for i, m := range cfg.Models {
		mesh, err := material.LoadMesh(m.Path)
		if err != nil {
			return nil, fmt.Errorf("models[%d]: %w", i, err)
		}
		models = append(models, material.Model{
			Mesh:            mesh,
			Position:        m.Position,
			Scale:           m.Scale,
			RefractiveIndex: m.RefractiveIndex,
		})
	}

	coeffs, err := material.Rasterize(device, grid, models)
	if err != nil {
		return nil, fmt.Errorf("rasterizing materials: %w", err)
	}

	var decay *material.DecayMaps
	if grid.C > 0 {
		decay, err = material.BuildDecayMaps(device, grid, coeffs, cfg.Boundary.Sigma, cfg.Boundary.Alpha)
		if err != nil {
			return nil, fmt.Errorf("building PML decay maps: %w", err)
		}
	}

	state, err := field.New(device, grid, coeffs)
	if err != nil {
		return nil, fmt.Errorf("allocating field state: %w", err)
	}

	loader := gpu.FileShaderLoader{}
	wg := gpu.Workgroup{X: cfg.Workgroup.X, Y: cfg.Workgroup.Y, Z: cfg.Workgroup.Z}
	pipelines, err := kernel.New(device, loader, cfg.DefaultShader, wg)
	if err != nil {
		return nil, fmt.Errorf("compiling field update kernels: %w", err)
	}

	subsystem := cpml.New(grid, decay, cfg.Boundary.Sigma, cfg.Boundary.Alpha)

	d := &driver.Driver{
		Device:    device,
		Grid:      grid,
		State:     state,
		Coeffs:    coeffs,
		Pipelines: pipelines,
		CPML:      subsystem,
		Boundary: kernel.Boundary{
			UsePMC: cfg.Boundary.Type == "PMC",
			UsePML: cfg.Boundary.Type == "PML",
		},
		Tau: 1.0 / cfg.StepsPerSecondLimit,
	}

	if err := wireSources(d, grid, cfg); err != nil {
		return nil, err
	}

	pauseSteps := make([]int, len(cfg.PauseAt))
	for i, t := range cfg.PauseAt {
		pauseSteps[i] = t.ResolveStep(cfg.TemporalStep)
	}
	d.PauseSchedule = schedule.New(pauseSteps)

	exportSteps := make([]int, len(cfg.Exports))
	for i, e := range cfg.Exports {
		exportSteps[i] = e.Timing.ResolveStep(cfg.TemporalStep)
	}
	d.ExportSchedule = schedule.New(exportSteps)
	d.OnExport = exportHandler(d, grid, cfg, presetName(presetPath))

	return d, nil
}

func presetName(path string) string {
	if path == "" {
		return "preset"
	}
	base := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			base = path[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}

func exportHandler(d *driver.Driver, grid *gridmap.Grid, cfg *config.Config, preset string) func(step int) error {
	return func(step int) error {
		extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
		for _, e := range cfg.Exports {
			target := e.Timing.ResolveStep(cfg.TemporalStep)
			if target != step {
				continue
			}
			// Matches original_source/src/main.rs's export path: only
			// the field's first component texture (get_*_field_textures()[0])
			// is written, one file per export entry.
			var tex gpu.Texture3D
			if e.Settings.Field == "H" {
				tex = d.State.Hx
			} else {
				tex = d.State.Ex
			}
			data := gpu.Raw3D(tex)
			path := fmt.Sprintf("%s-D3-%s-%d.dds", preset, e.Settings.Field, step)
			if err := export.WriteVolume3D(path, extent, data); err != nil {
				logf("fdtdsim: export at step %d failed: %v", step, err)
				continue
			}
			logf("fdtdsim: exported %s", path)
		}
		return nil
	}
}

func wireSources(d *driver.Driver, grid *gridmap.Grid, cfg *config.Config) error {
	for i, s := range cfg.Sources {
		switch s.Mode.Type {
		case "volume":
			v := &source.Volumetric{
				Field:      s.Mode.Volume.Field,
				Direction:  s.Mode.Volume.Direction,
				Wavelength: s.Wavelength,
				FWHM:       s.FWHM,
				Delay:      s.Delay,
				Power:      s.Power,
				PhaseRad:   s.Phase,
				Position:   s.Position,
				Size:       [3]int{int(s.Size[0]), int(s.Size[1]), int(s.Size[2])},
			}
			if v.Field == "H" {
				d.MagneticVolumetric = append(d.MagneticVolumetric, v)
			} else {
				d.ElectricVolumetric = append(d.ElectricVolumetric, v)
			}
		case "texture":
			m, err := buildModal(grid, s, i)
			if err != nil {
				return err
			}
			if m.Field == "H" {
				d.MagneticModal = append(d.MagneticModal, m)
			} else {
				d.ElectricModal = append(d.ElectricModal, m)
			}
		default:
			return fmt.Errorf("sources[%d]: unknown mode %q", i, s.Mode.Type)
		}
	}
	return nil
}

func buildModal(grid *gridmap.Grid, s config.Source, idx int) (*source.Modal, error) {
	tx := s.Mode.Texture
	extent := gpu.Extent2D{X: grid.G[0], Y: grid.G[1]}
	kind := "E"
	load := func(path *string) (*source.AmplitudeMap, error) {
		if path == nil {
			return nil, nil
		}
		return source.LoadAmplitudeCSV(*path, extent)
	}

	var amps [3]*source.AmplitudeMap
	var err error
	switch {
	case tx.Ex != nil || tx.Ey != nil || tx.Ez != nil:
		amps[0], err = load(tx.Ex)
		if err == nil {
			amps[1], err = load(tx.Ey)
		}
		if err == nil {
			amps[2], err = load(tx.Ez)
		}
	default:
		kind = "H"
		amps[0], err = load(tx.Hx)
		if err == nil {
			amps[1], err = load(tx.Hy)
		}
		if err == nil {
			amps[2], err = load(tx.Hz)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("sources[%d]: %w", idx, err)
	}

	origin := grid.WorldToGrid(s.Position)
	return &source.Modal{
		Field:      kind,
		Wavelength: s.Wavelength,
		FWHM:       s.FWHM,
		Delay:      s.Delay,
		PositionZ:  int(origin[2] + 0.5),
		Amplitude:  amps,
	}, nil
}

// runHeadless runs the tick loop without any windowing until both
// schedules drain, grounded in the teacher's runHeadless/logf pattern.
func runHeadless(d *driver.Driver, cfg *config.Config) {
	logf("Starting headless simulation...")
	logf("  boundary: %s, steps/sec limit: %.1f", cfg.Boundary.Type, cfg.StepsPerSecondLimit)

	start := time.Now()
	last := start
	reportInterval := 10 * time.Second

	if err := runHeadlessLoop(d, func() {
		if time.Since(last) >= reportInterval {
			elapsed := time.Since(start)
			rate := float64(d.Step) / elapsed.Seconds()
			logf("[PROGRESS] step %d | %.0f steps/sec | elapsed %s", d.Step, rate, elapsed.Round(time.Second))
			last = time.Now()
		}
	}); err != nil {
		logf("fdtdsim: %v", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	logf("")
	logf("Simulation complete.")
	logf("  total steps: %d", d.Step)
	logf("  elapsed: %s", elapsed.Round(time.Millisecond))
}

func runHeadlessLoop(d *driver.Driver, onTick func()) error {
	for !d.Done() {
		wasPaused := d.Paused
		if err := d.Tick(); err != nil {
			return err
		}
		if d.Paused && !wasPaused {
			d.Resume()
		}
		onTick()
	}
	return nil
}

// runWindowed drives the simulation paced against wall-clock time and
// renders the live slice visualizer, grounded in the teacher's
// rl.InitWindow/WindowShouldClose main loop. The control panel on the
// right -- slice position/scale sliders and axis/field toggle buttons
// -- is grounded in cmd/potentialpreview's raygui.SliderBar/gui.Button
// live-parameter panel.
func runWindowed(d *driver.Driver, cfg *config.Config) {
	const previewSize, panelWidth = 960, 240
	rl.InitWindow(previewSize+panelWidth, 720, "fdtdsim")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	sliceCfg := visualizer.Config{
		Pos:     cfg.DefaultSlice.Position,
		Scale:   cfg.DefaultScalingFactor,
		Kind:    sliceKind(cfg.DefaultSlice.Field),
		Axis:    sliceAxis(cfg.DefaultSlice.Mode),
		Combine: visualizer.Magnitude,
	}

	lastFrame := time.Now()
	for !rl.WindowShouldClose() {
		now := time.Now()
		elapsed := now.Sub(lastFrame).Seconds()
		lastFrame = now

		if handlePauseToggle(d) {
			if d.Paused {
				// stays paused until the next toggle
			} else {
				d.Resume()
			}
		}

		if err := d.Advance(elapsed); err != nil {
			logf("fdtdsim: tick error: %v", err)
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		drawSlice(d, sliceCfg)
		drawControlPanel(&sliceCfg, float32(previewSize+20), panelWidth)
		rl.EndDrawing()
	}
}

// drawControlPanel lets the operator adjust the live slice without
// restarting the run, mirroring cmd/potentialpreview's slider/button
// panel for its noise parameters.
func drawControlPanel(cfg *visualizer.Config, panelX float32, panelWidth int32) {
	panelY := float32(10)

	rl.DrawText("Slice Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
	panelY += 35

	rl.DrawText("Position", int32(panelX), int32(panelY), 14, rl.Gray)
	panelY += 18
	newPos := gui.SliderBar(
		rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
		"0.0", "1.0",
		float32(cfg.Pos), 0, 1,
	)
	rl.DrawText(fmt.Sprintf("%.2f", cfg.Pos), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
	cfg.Pos = float64(newPos)
	panelY += 35

	rl.DrawText("Scale", int32(panelX), int32(panelY), 14, rl.Gray)
	panelY += 18
	newScale := gui.SliderBar(
		rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
		"0.1", "10.0",
		cfg.Scale, 0.1, 10,
	)
	rl.DrawText(fmt.Sprintf("%.1f", cfg.Scale), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
	cfg.Scale = newScale
	panelY += 45

	if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 110, Height: 30}, toggleFieldText(cfg.Kind)) {
		if cfg.Kind == visualizer.KindE {
			cfg.Kind = visualizer.KindH
		} else {
			cfg.Kind = visualizer.KindE
		}
	}
	if gui.Button(rl.Rectangle{X: panelX + 120, Y: panelY, Width: 110, Height: 30}, "Cycle Axis") {
		cfg.Axis = (cfg.Axis + 1) % 3
	}
}

func toggleFieldText(k visualizer.Kind) string {
	if k == visualizer.KindE {
		return "Field: E"
	}
	return "Field: H"
}

func handlePauseToggle(d *driver.Driver) bool {
	if rl.IsKeyPressed(rl.KeySpace) {
		d.Paused = !d.Paused
		return true
	}
	return false
}

func drawSlice(d *driver.Driver, cfg visualizer.Config) {
	slice, err := visualizer.Sample(d.Grid, d.State, cfg)
	if err != nil {
		return
	}
	tex, err := visualizer.Render(slice, cfg.Scale)
	if err != nil {
		return
	}
	defer rl.UnloadTexture(tex)
	rl.DrawTexture(tex, 0, 0, rl.White)
}

func sliceKind(field string) visualizer.Kind {
	if field == "H" {
		return visualizer.KindH
	}
	return visualizer.KindE
}

func sliceAxis(mode string) visualizer.Axis {
	switch mode {
	case "X":
		return visualizer.AxisX
	case "Y":
		return visualizer.AxisY
	default:
		return visualizer.AxisZ
	}
}
