// Package field holds the six Yee lattice field textures and the two
// bind-group bundles the update kernels dispatch against. See spec.md
// §4.3.
package field

import (
	"fmt"

	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
	"github.com/pthm-cable/fdtd/material"
)

// State is the six dense field arrays, all grid-sized, zero-initialized.
type State struct {
	Ex, Ey, Ez gpu.Texture3D
	Hx, Hy, Hz gpu.Texture3D

	EBundle gpu.BindGroup // slots 0-2 Ex,Ey,Ez rw; 3-5 Hx,Hy,Hz ro; 6 ec coefficients ro
	HBundle gpu.BindGroup // slots 0-2 Hx,Hy,Hz rw; 3-5 Ex,Ey,Ez ro; 6 hc coefficients ro
}

// New allocates the six field textures (zeroed by construction) and
// builds the two bind-group bundles against the given coefficient maps.
func New(device gpu.Device, grid *gridmap.Grid, coeffs *material.Coefficients) (*State, error) {
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	names := [6]string{"Ex", "Ey", "Ez", "Hx", "Hy", "Hz"}
	textures := make([]gpu.Texture3D, 6)
	for i, name := range names {
		tex, err := device.CreateTexture3D(extent, gpu.FormatR32Float, name)
		if err != nil {
			return nil, fmt.Errorf("field: allocating %s: %w", name, err)
		}
		textures[i] = tex
	}

	s := &State{
		Ex: textures[0], Ey: textures[1], Ez: textures[2],
		Hx: textures[3], Hy: textures[4], Hz: textures[5],
	}

	eBundle, err := device.CreateBindGroup([]gpu.BindGroupEntry{
		{Binding: 0, Texture3: s.Ex}, {Binding: 1, Texture3: s.Ey}, {Binding: 2, Texture3: s.Ez},
		{Binding: 3, Texture3: s.Hx}, {Binding: 4, Texture3: s.Hy}, {Binding: 5, Texture3: s.Hz},
		{Binding: 6, Texture3: coeffs.EC},
	})
	if err != nil {
		return nil, fmt.Errorf("field: building E-bundle: %w", err)
	}
	hBundle, err := device.CreateBindGroup([]gpu.BindGroupEntry{
		{Binding: 0, Texture3: s.Hx}, {Binding: 1, Texture3: s.Hy}, {Binding: 2, Texture3: s.Hz},
		{Binding: 3, Texture3: s.Ex}, {Binding: 4, Texture3: s.Ey}, {Binding: 5, Texture3: s.Ez},
		{Binding: 6, Texture3: coeffs.HC},
	})
	if err != nil {
		return nil, fmt.Errorf("field: building H-bundle: %w", err)
	}
	s.EBundle = eBundle
	s.HBundle = hBundle
	return s, nil
}

// MaxAbs returns the maximum |value| over a component's texture.
func MaxAbs(tex gpu.Texture3D) float32 {
	data := gpu.Raw3D(tex)
	var max float32
	for _, v := range data {
		if v < 0 {
			v = -v
		}
		if v > max {
			max = v
		}
	}
	return max
}

// Energy returns sum(E^2 + H^2) over every cell of the six components.
func Energy(s *State) float64 {
	var total float64
	for _, tex := range []gpu.Texture3D{s.Ex, s.Ey, s.Ez, s.Hx, s.Hy, s.Hz} {
		for _, v := range gpu.Raw3D(tex) {
			total += float64(v) * float64(v)
		}
	}
	return total
}
