// Package source implements the two field-injection kernels of
// spec.md §4.6: localized volumetric cosine-Gaussian pulses and
// planar modal phasor-driven excitations.
package source

import (
	"math"

	"github.com/pthm-cable/fdtd/field"
	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
)

// Volumetric is a localized source driving a box of cells in either
// the electric or magnetic field, per spec.md §4.6.
type Volumetric struct {
	Field     string     // "E" | "H"
	Direction [3]float64 // propagation/polarization direction; Strength normalizes it
	Wavelength float64
	FWHM       float64
	Delay      float64
	Power      float64
	PhaseRad   float64
	Position   [3]float64 // world-space box origin
	Size       [3]int     // box size in grid cells, one entry per axis -- spec.md §9 flags a known driver bug using size[0] for every axis; this uses each axis's own entry
}

// Envelope is the super-Gaussian pulse envelope: a doubly-squared
// Gaussian in (t - delay), scaled by FWHM.
func (v *Volumetric) Envelope(n int, dt float64) float64 {
	t := float64(n)*dt - v.Delay
	x := math.Pi * v.FWHM * t
	inner := (x * x) / (4 * math.Ln2)
	return math.Exp(-(inner * inner))
}

// Carrier is the modulating cosine at the source's carrier wavelength.
func (v *Volumetric) Carrier(n int, dt float64) float64 {
	t := float64(n)*dt - v.Delay
	return math.Cos(-2*math.Pi*t/v.Wavelength + v.PhaseRad)
}

// Strength is the per-axis push-constant value the driver computes
// once per tick: direction_normalized * power * envelope * carrier.
// The injection kernel simply adds Strength[c] to every cell of
// component c in the box -- the envelope and carrier are already
// folded in here rather than reapplied per cell, since both depend
// only on the tick, not on cell position.
func (v *Volumetric) Strength(n int, dt float64) [3]float64 {
	e := v.Envelope(n, dt)
	c := v.Carrier(n, dt)
	scale := v.Power * e * c
	norm := math.Sqrt(v.Direction[0]*v.Direction[0] + v.Direction[1]*v.Direction[1] + v.Direction[2]*v.Direction[2])
	if norm == 0 {
		return [3]float64{}
	}
	scale /= norm
	return [3]float64{v.Direction[0] * scale, v.Direction[1] * scale, v.Direction[2] * scale}
}

// Inject adds Strength(n,dt) to every cell in the source's box, for
// every one of the three field components. Cells whose box would fall
// outside the grid are silently clamped away rather than causing a
// panic, since a source box straddling the PML halo can legally
// extend past the interior.
func Inject(grid *gridmap.Grid, components [3][]float32, origin [3]int, size [3]int, strength [3]float64) {
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	for dk := 0; dk < size[2]; dk++ {
		k := origin[2] + dk
		if k < 0 || k >= extent.Z {
			continue
		}
		for dj := 0; dj < size[1]; dj++ {
			j := origin[1] + dj
			if j < 0 || j >= extent.Y {
				continue
			}
			for di := 0; di < size[0]; di++ {
				i := origin[0] + di
				if i < 0 || i >= extent.X {
					continue
				}
				off := gpu.Index3D(extent, i, j, k)
				for c := 0; c < 3; c++ {
					components[c][off] += float32(strength[c])
				}
			}
		}
	}
}

// GridOrigin resolves the source's world-space position to an integer
// grid-cell box origin.
func (v *Volumetric) GridOrigin(grid *gridmap.Grid) [3]int {
	p := grid.WorldToGrid(v.Position)
	return [3]int{int(math.Round(p[0])), int(math.Round(p[1])), int(math.Round(p[2]))}
}

// InjectTick computes this tick's strength and applies it to the
// matching field's three components.
func (v *Volumetric) InjectTick(grid *gridmap.Grid, s *field.State, n int, dt float64) {
	strength := v.Strength(n, dt)
	origin := v.GridOrigin(grid)
	if v.Field == "H" {
		Inject(grid, [3][]float32{gpu.Raw3D(s.Hx), gpu.Raw3D(s.Hy), gpu.Raw3D(s.Hz)}, origin, v.Size, strength)
		return
	}
	Inject(grid, [3][]float32{gpu.Raw3D(s.Ex), gpu.Raw3D(s.Ey), gpu.Raw3D(s.Ez)}, origin, v.Size, strength)
}
