// shaderpreview steps a preset headlessly with the host device and
// exports one slice of the field to a PNG for inspection -- the
// FDTD-domain analog of cmd/shaderdebug's offline shader-to-PNG tool,
// using the slice visualizer's kernel instead of a GLSL fragment
// shader. Only the preset's domain, spatial and temporal steps,
// boundary, default shader and workgroup settings are used: its models
// and sources are not loaded,
// so every cell carries background coefficients and the fields
// receive no excitation.
//
// Usage: go run ./cmd/shaderpreview -preset scene.yaml -steps 200 -out preview.png
package main

import (
	"flag"
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fdtd/config"
	"github.com/pthm-cable/fdtd/cpml"
	"github.com/pthm-cable/fdtd/field"
	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
	"github.com/pthm-cable/fdtd/kernel"
	"github.com/pthm-cable/fdtd/material"
	"github.com/pthm-cable/fdtd/visualizer"
)

func main() {
	presetPath := flag.String("preset", "", "path to a preset YAML (embedded defaults used if empty)")
	steps := flag.Int("steps", 100, "number of ticks to run before sampling")
	outPath := flag.String("out", "preview.png", "output PNG path")
	axisFlag := flag.String("axis", "Z", "slice axis: X, Y, or Z")
	fieldFlag := flag.String("field", "E", "field kind: E or H")
	position := flag.Float64("position", 0.5, "normalized slice position in [0,1]")
	scale := flag.Float64("scale", 1.0, "scaling factor applied before clamping to [0,255]")
	flag.Parse()

	cfg, err := config.Load(*presetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shaderpreview: %v\n", err)
		os.Exit(1)
	}

	device := gpu.NewHostDevice()

	domain := gridmap.Domain{X: cfg.Domain[0], Y: cfg.Domain[1], Z: cfg.Domain[2]}
	boundary := gridmap.Boundary{
		Type:  cfg.Boundary.Type,
		Sigma: cfg.Boundary.Sigma,
		Alpha: cfg.Boundary.Alpha,
		Cells: cfg.Boundary.Cells,
	}
	grid, err := gridmap.New(domain, cfg.SpatialStep, cfg.TemporalStep, boundary)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shaderpreview: building grid: %v\n", err)
		os.Exit(1)
	}

	coeffs, err := material.Rasterize(device, grid, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shaderpreview: rasterizing materials: %v\n", err)
		os.Exit(1)
	}

	var decay *material.DecayMaps
	if grid.C > 0 {
		decay, err = material.BuildDecayMaps(device, grid, coeffs, cfg.Boundary.Sigma, cfg.Boundary.Alpha)
		if err != nil {
			fmt.Fprintf(os.Stderr, "shaderpreview: building decay maps: %v\n", err)
			os.Exit(1)
		}
	}

	state, err := field.New(device, grid, coeffs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shaderpreview: allocating field state: %v\n", err)
		os.Exit(1)
	}

	loader := gpu.FileShaderLoader{}
	wg := gpu.Workgroup{X: cfg.Workgroup.X, Y: cfg.Workgroup.Y, Z: cfg.Workgroup.Z}
	pipelines, err := kernel.New(device, loader, cfg.DefaultShader, wg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shaderpreview: compiling kernels: %v\n", err)
		os.Exit(1)
	}

	subsystem := cpml.New(grid, decay, cfg.Boundary.Sigma, cfg.Boundary.Alpha)
	boundaryFlags := kernel.Boundary{
		UsePMC: cfg.Boundary.Type == "PMC",
		UsePML: cfg.Boundary.Type == "PML",
	}

	for n := 0; n < *steps; n++ {
		encoder, err := device.CreateCommandEncoder()
		if err != nil {
			fmt.Fprintf(os.Stderr, "shaderpreview: tick %d: %v\n", n, err)
			os.Exit(1)
		}
		if err := pipelines.DispatchMagnetic(encoder, grid, state, boundaryFlags); err != nil {
			fmt.Fprintf(os.Stderr, "shaderpreview: tick %d: %v\n", n, err)
			os.Exit(1)
		}
		subsystem.RunMagnetic(state, coeffs)
		if err := pipelines.DispatchElectric(encoder, grid, state, boundaryFlags); err != nil {
			fmt.Fprintf(os.Stderr, "shaderpreview: tick %d: %v\n", n, err)
			os.Exit(1)
		}
		subsystem.RunElectric(state, coeffs)
		if err := encoder.Submit(); err != nil {
			fmt.Fprintf(os.Stderr, "shaderpreview: tick %d: %v\n", n, err)
			os.Exit(1)
		}
	}

	sliceCfg := visualizer.Config{
		Axis:    parseAxis(*axisFlag),
		Pos:     *position,
		Scale:   float32(*scale),
		Kind:    parseKind(*fieldFlag),
		Combine: visualizer.Magnitude,
	}
	slice, err := visualizer.Sample(grid, state, sliceCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shaderpreview: sampling slice: %v\n", err)
		os.Exit(1)
	}

	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(1, 1, "shaderpreview")
	defer rl.CloseWindow()

	tex, err := visualizer.Render(slice, sliceCfg.Scale)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shaderpreview: rendering slice: %v\n", err)
		os.Exit(1)
	}
	defer rl.UnloadTexture(tex)

	img := rl.LoadImageFromTexture(tex)
	defer rl.UnloadImage(img)

	if !rl.ExportImage(*img, *outPath) {
		fmt.Fprintln(os.Stderr, "shaderpreview: failed to export image")
		os.Exit(1)
	}
	fmt.Printf("shaderpreview: wrote %s after %d steps (%dx%d)\n", *outPath, *steps, img.Width, img.Height)
}

func parseAxis(s string) visualizer.Axis {
	switch s {
	case "X", "x":
		return visualizer.AxisX
	case "Y", "y":
		return visualizer.AxisY
	default:
		return visualizer.AxisZ
	}
}

func parseKind(s string) visualizer.Kind {
	if s == "H" || s == "h" {
		return visualizer.KindH
	}
	return visualizer.KindE
}
