// Package gridmap sizes the Yee lattice and maps world coordinates onto
// it. See spec.md §4.1.
package gridmap

import (
	"fmt"
	"math"
)

// Boundary selects the outer boundary condition and, for PML, its
// absorbing-layer parameters.
type Boundary struct {
	Type  string // "PML" | "PEC" | "PMC"
	Sigma float64
	Alpha float64
	Cells int // PML thickness C
}

// Domain is the physical extent of the simulated volume, one [min,max]
// pair per axis.
type Domain struct {
	X, Y, Z [2]float64
}

// Grid is immutable after construction. See spec.md §3's Grid entity.
type Grid struct {
	Dx, Dt float64
	Domain Domain
	C      int // PML thickness; 0 for PEC/PMC

	S [3]int // interior extent (Sx,Sy,Sz)
	G [3]int // total extent (Gx,Gy,Gz) = S + 2C

	Shift [3]float64 // world-to-grid shift vector
}

// ConfigError names the offending field of a malformed configuration,
// per §7's configuration-error taxonomy.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("gridmap: invalid %s: %s", e.Field, e.Msg)
}

// New computes the grid dimensions, halo, and shift vector from a
// physical domain, spatial step, and boundary descriptor.
func New(domain Domain, dx, dt float64, boundary Boundary) (*Grid, error) {
	if dx <= 0 {
		return nil, &ConfigError{"spatial_step", "must be > 0"}
	}
	if dt <= 0 {
		return nil, &ConfigError{"temporal_step", "must be > 0"}
	}
	axes := [3][2]float64{domain.X, domain.Y, domain.Z}
	names := [3]string{"domain.x", "domain.y", "domain.z"}
	for i, a := range axes {
		if a[1] <= a[0] {
			return nil, &ConfigError{names[i], fmt.Sprintf("max (%v) must be > min (%v)", a[1], a[0])}
		}
	}

	c := boundary.Cells
	if boundary.Type != "PML" {
		if c != 0 {
			return nil, &ConfigError{"boundary.cells", "must be 0 for PEC/PMC"}
		}
		c = 0
	}

	g := &Grid{Dx: dx, Dt: dt, Domain: domain, C: c}

	for i, a := range axes {
		step := (a[1] - a[0]) / dx
		s := int(math.Ceil(step))
		if s < 1 {
			s = 1
		}
		g.S[i] = s
		g.G[i] = s + 2*c
		frac := step - math.Floor(step)
		g.Shift[i] = -(a[0] + frac*dx/2 - float64(c)*dx/2)
	}

	return g, nil
}

// WorldToGrid maps a physical-space point to continuous grid
// coordinates: (p+shift)/dx.
func (g *Grid) WorldToGrid(p [3]float64) [3]float64 {
	return [3]float64{
		(p[0] + g.Shift[0]) / g.Dx,
		(p[1] + g.Shift[1]) / g.Dx,
		(p[2] + g.Shift[2]) / g.Dx,
	}
}

// Interior reports whether grid index (i,j,k) lies in the physical
// interior [C, G-C) on every axis.
func (g *Grid) Interior(i, j, k int) bool {
	idx := [3]int{i, j, k}
	for a := 0; a < 3; a++ {
		if idx[a] < g.C || idx[a] >= g.G[a]-g.C {
			return false
		}
	}
	return true
}

// Cells returns Gx*Gy*Gz, the total cell count.
func (g *Grid) Cells() int {
	return g.G[0] * g.G[1] * g.G[2]
}
