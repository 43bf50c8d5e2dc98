// Package cpml implements the Convolutional Perfectly Matched Layer
// absorbing boundary: the 26-region decomposition of the 2C-thick halo,
// each region's ψ auxiliary-variable state, and the ψ-update/
// field-correction kernel pair. See spec.md §4.5.
package cpml

import "github.com/pthm-cable/fdtd/gridmap"

// axisState classifies one axis of a region: Low/High select the halo
// slab on that axis, Interior means the region spans the full interior
// extent on that axis.
type axisState int

const (
	Interior axisState = iota
	Low
	High
)

// Region is one of the 26 PML regions: a face (1 halo axis), an edge (2
// halo axes), or a corner (3 halo axes). Offset/Extent are in grid
// index space; Channels is 2 per halo axis, per spec.md §4.5's
// auxiliary-variable counts.
type Region struct {
	Name     string
	States   [3]axisState
	Offset   [3]int
	Extent   [3]int
	HaloAxes []int // axes that are Low or High, in axis order
	Channels int
}

var axisNames = [3]string{"x", "y", "z"}

// BuildRegions enumerates all 26 PML regions for a grid with PML
// thickness C > 0. The 3x3x3 combination of axis states minus the
// all-Interior combination yields exactly 6 faces + 12 edges + 8
// corners, matching §4.5's geometric decomposition.
func BuildRegions(grid *gridmap.Grid) []Region {
	if grid.C <= 0 {
		return nil
	}
	var regions []Region
	states := [3]axisState{Interior, Low, High}
	for _, sx := range states {
		for _, sy := range states {
			for _, sz := range states {
				s := [3]axisState{sx, sy, sz}
				if sx == Interior && sy == Interior && sz == Interior {
					continue
				}
				regions = append(regions, newRegion(grid, s))
			}
		}
	}
	return regions
}

func newRegion(grid *gridmap.Grid, states [3]axisState) Region {
	var r Region
	r.States = states
	name := ""
	for a := 0; a < 3; a++ {
		switch states[a] {
		case Interior:
			r.Offset[a] = grid.C
			r.Extent[a] = grid.S[a]
		case Low:
			r.Offset[a] = 0
			r.Extent[a] = grid.C
			r.HaloAxes = append(r.HaloAxes, a)
			name += axisNames[a] + "-"
		case High:
			r.Offset[a] = grid.C + grid.S[a]
			r.Extent[a] = grid.C
			r.HaloAxes = append(r.HaloAxes, a)
			name += axisNames[a] + "+"
		}
	}
	r.Channels = 2 * len(r.HaloAxes)
	r.Name = name
	return r
}

// Shape reports how many axes are halo: 1 = face, 2 = edge, 3 = corner.
func (r Region) Shape() int {
	return len(r.HaloAxes)
}
