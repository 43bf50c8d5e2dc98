// Package visualizer implements the slice visualizer of spec.md §4.8:
// a fixed-axis, fixed-position cross-section of either field kind,
// combined to a scalar and mapped to color.
package visualizer

import (
	"fmt"
	"math"
	"unsafe"

	"cogentcore.org/core/math32"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fdtd/field"
	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
)

// Axis selects which grid axis the slice is taken perpendicular to.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Kind selects which field the slice samples.
type Kind int

const (
	KindE Kind = iota
	KindH
)

// Combine selects how the three sampled components reduce to a scalar.
type Combine int

const (
	Magnitude Combine = iota
	Signed            // sum of signed components (one is usually dominant in a 2D slice)
)

// Config is a slice visualizer's configuration: the inputs spec.md
// §4.8 names (axis, normalized position, scaling factor, field kind)
// plus the reduction mode.
type Config struct {
	Axis    Axis
	Pos     float64 // normalized position in [0,1]
	Scale   float32
	Kind    Kind
	Combine Combine
}

// slicePlaneIndex returns the grid extent G along axis; Sample maps the
// normalized position to the slice index s·(G−1) from it.
func slicePlaneIndex(grid *gridmap.Grid, axis Axis) int {
	g := grid.G[int(axis)]
	return g
}

// Sample reduces the field's three components at every cell of the
// slice to a scalar, matching the fragment kernel's per-pixel
// combine-then-scale contract.
func Sample(grid *gridmap.Grid, s *field.State, cfg Config) ([][]float32, error) {
	g := slicePlaneIndex(grid, cfg.Axis)
	depth := int(math.Round(cfg.Pos * float64(g-1)))
	if depth < 0 {
		depth = 0
	}
	if depth >= g {
		depth = g - 1
	}

	var comps [3]gpu.Texture3D
	if cfg.Kind == KindH {
		comps = [3]gpu.Texture3D{s.Hx, s.Hy, s.Hz}
	} else {
		comps = [3]gpu.Texture3D{s.Ex, s.Ey, s.Ez}
	}
	raw := [3][]float32{gpu.Raw3D(comps[0]), gpu.Raw3D(comps[1]), gpu.Raw3D(comps[2])}
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}

	width, height := planeExtent(extent, cfg.Axis)
	out := make([][]float32, height)
	for row := range out {
		out[row] = make([]float32, width)
	}

	for v := 0; v < height; v++ {
		for u := 0; u < width; u++ {
			i, j, k := planeToGrid(cfg.Axis, depth, u, v)
			off := gpu.Index3D(extent, i, j, k)
			out[v][u] = reduce(raw[0][off], raw[1][off], raw[2][off], cfg.Combine)
		}
	}
	return out, nil
}

func reduce(x, y, z float32, c Combine) float32 {
	if c == Magnitude {
		return math32.Sqrt(x*x + y*y + z*z)
	}
	return x + y + z
}

func planeExtent(extent gpu.Extent3D, axis Axis) (width, height int) {
	switch axis {
	case AxisX:
		return extent.Y, extent.Z
	case AxisY:
		return extent.X, extent.Z
	default:
		return extent.X, extent.Y
	}
}

func planeToGrid(axis Axis, depth, u, v int) (i, j, k int) {
	switch axis {
	case AxisX:
		return depth, u, v
	case AxisY:
		return u, depth, v
	default:
		return u, v, depth
	}
}

// Render maps a sampled slice to an RGBA8 raylib texture, scaling by
// cfg.Scale before clamping to [0,255]. Grounded in the teacher
// renderer package's pattern of building an rl.Image over a raw pixel
// buffer and uploading it with rl.LoadTextureFromImage.
func Render(slice [][]float32, scale float32) (rl.Texture2D, error) {
	if len(slice) == 0 || len(slice[0]) == 0 {
		return rl.Texture2D{}, fmt.Errorf("visualizer: empty slice")
	}
	height := len(slice)
	width := len(slice[0])
	pixels := make([]uint8, width*height*4)

	for v := 0; v < height; v++ {
		for u := 0; u < width; u++ {
			value := slice[v][u] * scale
			shade := clampByte(128 + value*127)
			idx := (v*width + u) * 4
			pixels[idx+0] = shade
			pixels[idx+1] = shade
			pixels[idx+2] = shade
			pixels[idx+3] = 255
		}
	}

	img := rl.Image{
		Data:    unsafe.Pointer(&pixels[0]),
		Width:   int32(width),
		Height:  int32(height),
		Mipmaps: 1,
		Format:  rl.UncompressedR8g8b8a8,
	}
	return rl.LoadTextureFromImage(&img), nil
}

func clampByte(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
