package cpml

import (
	"math"

	"github.com/pthm-cable/fdtd/field"
	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
	"github.com/pthm-cable/fdtd/material"
)

// axisShift returns the unit index shift along axis a.
func axisShift(a int) [3]int {
	var s [3]int
	s[a] = 1
	return s
}

func faceFor(axis int, state axisState) material.Face {
	switch axis {
	case 0:
		if state == Low {
			return material.FaceXNear
		}
		return material.FaceXFar
	case 1:
		if state == Low {
			return material.FaceYNear
		}
		return material.FaceYFar
	default:
		if state == Low {
			return material.FaceZNear
		}
		return material.FaceZFar
	}
}

// decayFactor returns b = exp(-(sigma+alpha)*dt) for edges/corners, or
// the sampled 2D decay map value for a face, per spec.md §4.5.
func decayFactor(region Region, grid *gridmap.Grid, decay *material.DecayMaps, sigma, alpha float64, electric bool, axis, u, v int) float64 {
	if region.Shape() == 1 && decay != nil {
		face := faceFor(axis, region.States[axis])
		if tex, ok := decay.Textures[face]; ok {
			data := gpu.Raw2D(tex)
			extent := tex.Extent()
			idx := gpu.Index2DChan(extent, 2, u, v, 0)
			if electric {
				return float64(data[idx])
			}
			return float64(data[idx+1])
		}
	}
	return math.Exp(-(sigma + alpha) * grid.Dt)
}

// tangentialUV returns the two local coordinates of a face region's
// cell on the plane orthogonal to its halo axis, in the same (u,v)
// convention material.tangentialExtent/interiorAdjacentIndex use.
func tangentialUV(haloAxis, i, j, k int) (int, int) {
	switch haloAxis {
	case 0:
		return j, k
	case 1:
		return i, k
	default:
		return i, j
	}
}

// eComponents and hComponents return the three Ex,Ey,Ez or Hx,Hy,Hz
// raw backing slices indexed 0..2.
func eComponents(s *field.State) [3][]float32 {
	return [3][]float32{gpu.Raw3D(s.Ex), gpu.Raw3D(s.Ey), gpu.Raw3D(s.Ez)}
}

func hComponents(s *field.State) [3][]float32 {
	return [3][]float32{gpu.Raw3D(s.Hx), gpu.Raw3D(s.Hy), gpu.Raw3D(s.Hz)}
}

// UpdatePsiElectric runs one region's ψ-update for the electric
// half-step: ψ_new = b·ψ_old + (b−1)·α_factor·∂H, accumulating the
// decayed history of the tangential H derivatives along each of the
// region's halo axes. Must be called before FieldCorrectElectric for
// the same region and half-step.
func UpdatePsiElectric(grid *gridmap.Grid, s *field.State, decay *material.DecayMaps, region Region, psi *PsiState, sigma, alpha float64) {
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	h := hComponents(s)
	alphaFactor := sigma / (sigma + alpha)

	for axisPos, a := range region.HaloAxes {
		shift := axisShift(a)
		mPlus := (a + 1) % 3  // H component for channel 0
		mMinus := (a + 2) % 3 // H component for channel 1
		ch0, ch1 := 2*axisPos, 2*axisPos+1

		for k := 0; k < region.Extent[2]; k++ {
			for j := 0; j < region.Extent[1]; j++ {
				for i := 0; i < region.Extent[0]; i++ {
					gi, gj, gk := region.Offset[0]+i, region.Offset[1]+j, region.Offset[2]+k
					u, v := 0, 0
					if region.Shape() == 1 {
						u, v = tangentialUV(a, i, j, k)
					}
					b := decayFactor(region, grid, decay, sigma, alpha, true, a, u, v)

					diffA := componentDiff(h[mPlus], extent, gi, gj, gk, shift)
					diffB := -componentDiff(h[mMinus], extent, gi, gj, gk, shift)

					old0 := psi.At(i, j, k, ch0)
					psi.Set(i, j, k, ch0, float32(b)*old0+float32((b-1)*alphaFactor)*diffA)
					old1 := psi.At(i, j, k, ch1)
					psi.Set(i, j, k, ch1, float32(b)*old1+float32((b-1)*alphaFactor)*diffB)
				}
			}
		}
	}
}

// FieldCorrectElectric adds ψ·ec3 to each halo axis's two target E
// components, per spec.md §4.5's field-correction step.
func FieldCorrectElectric(grid *gridmap.Grid, s *field.State, coeffs *material.Coefficients, region Region, psi *PsiState) {
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	e := eComponents(s)
	ecData := gpu.Raw3D(coeffs.EC)

	for axisPos, a := range region.HaloAxes {
		targetA := (a + 2) % 3 // channel 0 target
		targetB := (a + 1) % 3 // channel 1 target
		ch0, ch1 := 2*axisPos, 2*axisPos+1

		for k := 0; k < region.Extent[2]; k++ {
			for j := 0; j < region.Extent[1]; j++ {
				for i := 0; i < region.Extent[0]; i++ {
					gi, gj, gk := region.Offset[0]+i, region.Offset[1]+j, region.Offset[2]+k
					off := gpu.Index3D(extent, gi, gj, gk)
					ec3 := ecData[2*off+1]

					e[targetA][off] += psi.At(i, j, k, ch0) * ec3
					e[targetB][off] += psi.At(i, j, k, ch1) * ec3
				}
			}
		}
	}
}

// UpdatePsiMagnetic is UpdatePsiElectric's symmetric analog for the
// magnetic half-step, accumulating decayed E-field derivatives.
func UpdatePsiMagnetic(grid *gridmap.Grid, s *field.State, decay *material.DecayMaps, region Region, psi *PsiState, sigma, alpha float64) {
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	e := eComponents(s)
	alphaFactor := sigma / (sigma + alpha)

	for axisPos, a := range region.HaloAxes {
		shift := axisShift(a)
		mPlus := (a + 1) % 3  // E component for channel 0 (negated)
		mMinus := (a + 2) % 3 // E component for channel 1
		ch0, ch1 := 2*axisPos, 2*axisPos+1

		for k := 0; k < region.Extent[2]; k++ {
			for j := 0; j < region.Extent[1]; j++ {
				for i := 0; i < region.Extent[0]; i++ {
					gi, gj, gk := region.Offset[0]+i, region.Offset[1]+j, region.Offset[2]+k
					u, v := 0, 0
					if region.Shape() == 1 {
						u, v = tangentialUV(a, i, j, k)
					}
					b := decayFactor(region, grid, decay, sigma, alpha, false, a, u, v)

					diffA := -componentDiff(e[mPlus], extent, gi, gj, gk, shift)
					diffB := componentDiff(e[mMinus], extent, gi, gj, gk, shift)

					old0 := psi.At(i, j, k, ch0)
					psi.Set(i, j, k, ch0, float32(b)*old0+float32((b-1)*alphaFactor)*diffA)
					old1 := psi.At(i, j, k, ch1)
					psi.Set(i, j, k, ch1, float32(b)*old1+float32((b-1)*alphaFactor)*diffB)
				}
			}
		}
	}
}

// FieldCorrectMagnetic adds ψ·hc3 to each halo axis's two target H
// components.
func FieldCorrectMagnetic(grid *gridmap.Grid, s *field.State, coeffs *material.Coefficients, region Region, psi *PsiState) {
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	h := hComponents(s)
	hcData := gpu.Raw3D(coeffs.HC)

	for axisPos, a := range region.HaloAxes {
		targetA := (a + 2) % 3
		targetB := (a + 1) % 3
		ch0, ch1 := 2*axisPos, 2*axisPos+1

		for k := 0; k < region.Extent[2]; k++ {
			for j := 0; j < region.Extent[1]; j++ {
				for i := 0; i < region.Extent[0]; i++ {
					gi, gj, gk := region.Offset[0]+i, region.Offset[1]+j, region.Offset[2]+k
					off := gpu.Index3D(extent, gi, gj, gk)
					hc3 := hcData[2*off+1]

					h[targetA][off] += psi.At(i, j, k, ch0) * hc3
					h[targetB][off] += psi.At(i, j, k, ch1) * hc3
				}
			}
		}
	}
}

// componentDiff reads data[p] - data[p-shift], treating any
// out-of-grid neighbor as zero, matching the field-update kernel's
// Tie-breaks rule.
func componentDiff(data []float32, extent gpu.Extent3D, i, j, k int, shift [3]int) float32 {
	cur := readOrZero(data, extent, i, j, k)
	prev := readOrZero(data, extent, i-shift[0], j-shift[1], k-shift[2])
	return cur - prev
}

func readOrZero(data []float32, extent gpu.Extent3D, i, j, k int) float32 {
	if i < 0 || j < 0 || k < 0 || i >= extent.X || j >= extent.Y || k >= extent.Z {
		return 0
	}
	return data[gpu.Index3D(extent, i, j, k)]
}
