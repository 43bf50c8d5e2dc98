package source

import (
	"math"

	"github.com/pthm-cable/fdtd/field"
	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
)

// Modal is a planar phasor-driven excitation on one z-layer, injecting
// a precomputed complex amplitude profile (x,y,z components) per
// spec.md §4.6. The amplitude profile is commonly loaded from a CSV
// via LoadAmplitudeCSV.
type Modal struct {
	Field      string // "E" | "H"
	Wavelength float64
	FWHM       float64
	Delay      float64
	PositionZ  int // grid-index z-layer

	// Amplitude[c] holds (re,im) for tangential component c (0=axis0,
	// 1=axis1, 2=the layer-normal component, left nil if absent and
	// treated as the "1x1 zero placeholder" the spec calls for).
	Amplitude [3]*AmplitudeMap
}

// AmplitudeMap is a dense (re,im) complex amplitude profile over the
// full tangential (X,Y) extent of the grid.
type AmplitudeMap struct {
	Extent gpu.Extent2D
	Data   []float32 // interleaved (re,im), row-major
}

func (a *AmplitudeMap) at(u, v int) (re, im float32) {
	if a == nil || u < 0 || v < 0 || u >= a.Extent.X || v >= a.Extent.Y {
		return 0, 0
	}
	idx := gpu.Index2DChan(a.Extent, 2, u, v, 0)
	return a.Data[idx], a.Data[idx+1]
}

// Envelope mirrors Volumetric's super-Gaussian pulse shape.
func (m *Modal) Envelope(n int, dt float64) float64 {
	t := float64(n)*dt - m.Delay
	x := math.Pi * m.FWHM * t
	inner := (x * x) / (4 * math.Ln2)
	return math.Exp(-(inner * inner))
}

// Phasor computes (cos_t, sin_t) = cos/sin(-2π(n·dt-delay)/λ), the two
// push-constant values the driver recomputes every tick.
func (m *Modal) Phasor(n int, dt float64) (cosT, sinT float64) {
	t := float64(n)*dt - m.Delay
	theta := -2 * math.Pi * t / m.Wavelength
	return math.Cos(theta), math.Sin(theta)
}

// InjectTick adds envelope·(re·cos_t − im·sin_t)·dt to every tangential
// cell's matching field component on the source's z-layer.
func (m *Modal) InjectTick(grid *gridmap.Grid, s *field.State, n int) {
	envelope := m.Envelope(n, grid.Dt)
	cosT, sinT := m.Phasor(n, grid.Dt)
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	k := m.PositionZ
	if k < 0 || k >= extent.Z {
		return
	}

	var comps [3][]float32
	if m.Field == "H" {
		comps = [3][]float32{gpu.Raw3D(s.Hx), gpu.Raw3D(s.Hy), gpu.Raw3D(s.Hz)}
	} else {
		comps = [3][]float32{gpu.Raw3D(s.Ex), gpu.Raw3D(s.Ey), gpu.Raw3D(s.Ez)}
	}

	for v := 0; v < extent.Y; v++ {
		for u := 0; u < extent.X; u++ {
			off := gpu.Index3D(extent, u, v, k)
			for c := 0; c < 3; c++ {
				re, im := m.Amplitude[c].at(u, v)
				comps[c][off] += float32(envelope) * (re*float32(cosT) - im*float32(sinT)) * float32(grid.Dt)
			}
		}
	}
}
