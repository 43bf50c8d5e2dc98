package material

import (
	"fmt"
	"math"

	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
)

// Face names the six PML faces in the fixed dispatch order spec.md §4.5
// uses: X faces, then Y, then Z.
type Face int

const (
	FaceXNear Face = iota
	FaceXFar
	FaceYNear
	FaceYFar
	FaceZNear
	FaceZFar
)

var allFaces = [6]Face{FaceXNear, FaceXFar, FaceYNear, FaceYFar, FaceZNear, FaceZFar}

func (f Face) String() string {
	return [...]string{"x_near", "x_far", "y_near", "y_far", "z_near", "z_far"}[f]
}

// DecayMaps holds the six 2D decay textures, keyed by Face. Each texture
// is RG32Float: channel 0 is the electric decay exp(-(sigma+alpha)*ec3),
// channel 1 is the magnetic analog exp(-(sigma+alpha)*ec3/hc3*dt),
// resolving §4.2's single sentence that names both formulas for what the
// Data Model section calls "six" textures -- keeping both channels on
// one per-face texture avoids doubling the texture count while still
// giving the CPML face kernels a decay value for both update phases.
type DecayMaps struct {
	Textures map[Face]gpu.Texture2D
}

// BuildDecayMaps samples the interior-adjacent slab of the coefficient
// textures and writes the six face decay maps. sigma and alpha are the
// PML's conductivity and complex-frequency-shift parameters (§6
// boundary.sigma / boundary.alpha).
func BuildDecayMaps(device gpu.Device, grid *gridmap.Grid, coeffs *Coefficients, sigma, alpha float64) (*DecayMaps, error) {
	if grid.C <= 0 {
		return nil, fmt.Errorf("material: decay maps require PML (C > 0)")
	}
	dm := &DecayMaps{Textures: make(map[Face]gpu.Texture2D, 6)}
	for _, face := range allFaces {
		extent := tangentialExtent(grid, face)
		tex, err := device.CreateTexture2D(extent, gpu.FormatRG32Float, "pml_decay_"+face.String())
		if err != nil {
			return nil, fmt.Errorf("material: allocating decay map %s: %w", face, err)
		}
		fillDecayMap(tex, grid, coeffs, face, sigma, alpha)
		dm.Textures[face] = tex
	}
	return dm, nil
}

func tangentialExtent(grid *gridmap.Grid, face Face) gpu.Extent2D {
	switch face {
	case FaceXNear, FaceXFar:
		return gpu.Extent2D{X: grid.S[1], Y: grid.S[2]}
	case FaceYNear, FaceYFar:
		return gpu.Extent2D{X: grid.S[0], Y: grid.S[2]}
	default:
		return gpu.Extent2D{X: grid.S[0], Y: grid.S[1]}
	}
}

// interiorAdjacentIndex returns the full-grid (i,j,k) of the interior
// cell immediately inside the halo at tangential coordinates (u,v) on
// the given face.
func interiorAdjacentIndex(grid *gridmap.Grid, face Face, u, v int) (i, j, k int) {
	c := grid.C
	switch face {
	case FaceXNear:
		return c, c + u, c + v
	case FaceXFar:
		return grid.G[0] - 1 - c, c + u, c + v
	case FaceYNear:
		return c + u, c, c + v
	case FaceYFar:
		return c + u, grid.G[1] - 1 - c, c + v
	case FaceZNear:
		return c + u, c + v, c
	default: // FaceZFar
		return c + u, c + v, grid.G[2] - 1 - c
	}
}

func fillDecayMap(tex gpu.Texture2D, grid *gridmap.Grid, coeffs *Coefficients, face Face, sigma, alpha float64) {
	extent := tex.Extent()
	data := gpu.Raw2D(tex)
	ecData := gpu.Raw3D(coeffs.EC)
	hcData := gpu.Raw3D(coeffs.HC)
	gExtent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	decay := sigma + alpha

	for v := 0; v < extent.Y; v++ {
		for u := 0; u < extent.X; u++ {
			i, j, k := interiorAdjacentIndex(grid, face, u, v)
			off := gpu.Index3D(gExtent, i, j, k)
			ec3 := float64(ecData[2*off+1])
			hc3 := float64(hcData[2*off+1])

			elect := math.Exp(-decay * ec3)
			var magn float64
			if hc3 != 0 {
				magn = math.Exp(-decay * ec3 / hc3 * grid.Dt)
			}

			idx := gpu.Index2DChan(extent, 2, u, v, 0)
			data[idx] = float32(elect)
			data[idx+1] = float32(magn)
		}
	}
}
