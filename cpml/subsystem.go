package cpml

import (
	"sort"

	"github.com/pthm-cable/fdtd/field"
	"github.com/pthm-cable/fdtd/gridmap"
	"github.com/pthm-cable/fdtd/material"
)

// Subsystem owns every PML region's ψ state and dispatches the two
// half-step kernel passes in the fixed order spec.md §4.5 requires:
// corners, X-faces, Y-faces, Z-faces, X-edges, Y-edges, Z-edges.
type Subsystem struct {
	Regions []Region
	Psi     []*PsiState // parallel to Regions

	Grid  *gridmap.Grid
	Decay *material.DecayMaps
	Sigma float64
	Alpha float64
}

// New builds the 26-region decomposition and zero-initializes every
// region's ψ state. Returns nil if PML is not active (grid.C == 0),
// matching "under PEC/PMC boundary conditions the entire CPML
// subsystem is absent."
func New(grid *gridmap.Grid, decay *material.DecayMaps, sigma, alpha float64) *Subsystem {
	if grid.C <= 0 {
		return nil
	}
	regions := orderedRegions(BuildRegions(grid))
	psi := make([]*PsiState, len(regions))
	for i, r := range regions {
		psi[i] = NewPsiState(r)
	}
	return &Subsystem{Regions: regions, Psi: psi, Grid: grid, Decay: decay, Sigma: sigma, Alpha: alpha}
}

// alongAxis returns an edge region's non-halo (Interior) axis -- the
// axis the edge runs along.
func alongAxis(r Region) int {
	for a := 0; a < 3; a++ {
		if r.States[a] == Interior {
			return a
		}
	}
	return -1
}

// orderedRegions sorts BuildRegions' output into the dispatch order
// spec.md §4.5 names explicitly: corners, then faces grouped by axis,
// then edges grouped by the axis they run along.
func orderedRegions(regions []Region) []Region {
	rank := func(r Region) int {
		switch r.Shape() {
		case 3:
			return 0 // corners
		case 1:
			return 1 + r.HaloAxes[0] // X,Y,Z faces
		default:
			return 4 + alongAxis(r) // X,Y,Z edges
		}
	}
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank(sorted[i]) < rank(sorted[j])
	})
	return sorted
}

// RunElectric runs the ψ-update then field-correction pass, in that
// order, for every region -- the electric half-step's CPML pass.
func (sys *Subsystem) RunElectric(s *field.State, coeffs *material.Coefficients) {
	if sys == nil {
		return
	}
	for i, r := range sys.Regions {
		UpdatePsiElectric(sys.Grid, s, sys.Decay, r, sys.Psi[i], sys.Sigma, sys.Alpha)
		FieldCorrectElectric(sys.Grid, s, coeffs, r, sys.Psi[i])
	}
}

// RunMagnetic is RunElectric's symmetric analog for the magnetic
// half-step.
func (sys *Subsystem) RunMagnetic(s *field.State, coeffs *material.Coefficients) {
	if sys == nil {
		return
	}
	for i, r := range sys.Regions {
		UpdatePsiMagnetic(sys.Grid, s, sys.Decay, r, sys.Psi[i], sys.Sigma, sys.Alpha)
		FieldCorrectMagnetic(sys.Grid, s, coeffs, r, sys.Psi[i])
	}
}
