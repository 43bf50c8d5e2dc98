package cpml

import "gonum.org/v1/gonum/floats"

// PsiState is one region's auxiliary memory-variable array: dense,
// zero-initialized, shaped Extent with Channels float32 values per
// cell. No texture format in package gpu carries 4 or 6 channels, so
// unlike the field/coefficient textures this is a plain host array
// rather than a gpu.Texture3D -- it is only ever read and written by
// this region's own two kernels, never bound elsewhere.
type PsiState struct {
	Extent   [3]int
	Channels int
	Data     []float32
}

// NewPsiState allocates a zeroed ψ array for a region.
func NewPsiState(region Region) *PsiState {
	n := region.Extent[0] * region.Extent[1] * region.Extent[2] * region.Channels
	return &PsiState{Extent: region.Extent, Channels: region.Channels, Data: make([]float32, n)}
}

func (p *PsiState) index(i, j, k, c int) int {
	return ((k*p.Extent[1]+j)*p.Extent[0]+i)*p.Channels + c
}

func (p *PsiState) At(i, j, k, c int) float32 {
	return p.Data[p.index(i, j, k, c)]
}

func (p *PsiState) Set(i, j, k, c int, v float32) {
	p.Data[p.index(i, j, k, c)] = v
}

// SumAbs returns sum(|ψ|) over this region, via gonum/floats' L1 norm
// -- the same gonum module the material rasterizer uses (gonum/mat) for
// its barycentric solve, reused here for a scalar reduction instead of
// a linear solve. Used by the test asserting ψ stays zero when the
// fields are zero.
func (p *PsiState) SumAbs() float64 {
	if len(p.Data) == 0 {
		return 0
	}
	f64 := make([]float64, len(p.Data))
	for i, v := range p.Data {
		f64[i] = float64(v)
	}
	return floats.Norm(f64, 1)
}
