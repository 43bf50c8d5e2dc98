// Package kernel implements the two field-update compute kernels
// (update_electric_field, update_magnetic_field) of spec.md §4.4: WGSL
// text on disk (shader/fdtd/fdtd-3d.wgsl) plus the CPU mirror that
// actually executes (see gpu.ComputeFunc's doc comment for why).
package kernel

import "github.com/pthm-cable/fdtd/gpu"

// bundle unpacks the six bound field components and the coefficient map
// out of a BindGroup built per field.State's binding convention: slots
// 0-2 are the component being updated (read_write in the real shader),
// 3-5 are the other field's three components (read-only), 6 is the
// (ec2,ec3) or (hc2,hc3) coefficient map.
type bundle struct {
	target   [3][]float32
	other    [3][]float32
	coeffs   []float32
	extent   gpu.Extent3D
}

func unpack(group gpu.BindGroup) bundle {
	var b bundle
	for _, e := range group.Entries() {
		switch {
		case e.Binding <= 2:
			b.target[e.Binding] = gpu.Raw3D(e.Texture3)
			b.extent = e.Texture3.Extent()
		case e.Binding >= 3 && e.Binding <= 5:
			b.other[e.Binding-3] = gpu.Raw3D(e.Texture3)
		case e.Binding == 6:
			b.coeffs = gpu.Raw3D(e.Texture3)
		}
	}
	return b
}

// at reads a 1-channel component at (i,j,k), returning 0 for any
// out-of-grid index -- the Tie-breaks rule in §4.4.
func at(data []float32, extent gpu.Extent3D, i, j, k int) float32 {
	if i < 0 || j < 0 || k < 0 || i >= extent.X || j >= extent.Y || k >= extent.Z {
		return 0
	}
	return data[gpu.Index3D(extent, i, j, k)]
}

func isBoundary(extent gpu.Extent3D, i, j, k int) bool {
	return i == 0 || j == 0 || k == 0 || i == extent.X-1 || j == extent.Y-1 || k == extent.Z-1
}

// push constant layout shared by both entry points: (gx, gy, gz, use_pmc,
// use_pml), matching shader/fdtd/fdtd-3d.wgsl's Push struct field order.
func decodePush(pushConstants []byte) (extent gpu.Extent3D, usePMC, usePML bool) {
	r := gpu.NewReader(pushConstants)
	extent.X = int(r.Uint32())
	extent.Y = int(r.Uint32())
	extent.Z = int(r.Uint32())
	usePMC = r.Uint32() != 0
	usePML = r.Uint32() != 0
	return
}

// UpdateElectric is the CPU mirror of update_electric_field: the
// target components are Ex,Ey,Ez (bindings 0-2), the other field's
// components are Hx,Hy,Hz (bindings 3-5), and the coefficient map
// carries (ec2,ec3) at binding 6.
func UpdateElectric(group gpu.BindGroup, pushConstants []byte, _ gpu.Workgroup) error {
	b := unpack(group)
	extent, usePMC, usePML := decodePush(pushConstants)
	ex, ey, ez := b.target[0], b.target[1], b.target[2]
	hx, hy, hz := b.other[0], b.other[1], b.other[2]

	for k := 0; k < extent.Z; k++ {
		for j := 0; j < extent.Y; j++ {
			for i := 0; i < extent.X; i++ {
				off := gpu.Index3D(extent, i, j, k)
				if isBoundary(extent, i, j, k) && !usePML {
					if !usePMC {
						ex[off], ey[off], ez[off] = 0, 0, 0
					}
					continue
				}
				ec2 := b.coeffs[2*off]

				ex[off] += ec2 * ((at(hz, extent, i, j, k) - at(hz, extent, i, j-1, k)) -
					(at(hy, extent, i, j, k) - at(hy, extent, i, j, k-1)))
				ey[off] += ec2 * ((at(hx, extent, i, j, k) - at(hx, extent, i, j, k-1)) -
					(at(hz, extent, i, j, k) - at(hz, extent, i-1, j, k)))
				ez[off] += ec2 * ((at(hy, extent, i, j, k) - at(hy, extent, i-1, j, k)) -
					(at(hx, extent, i, j, k) - at(hx, extent, i, j-1, k)))
			}
		}
	}
	return nil
}

// UpdateMagnetic is the symmetric analog: target is Hx,Hy,Hz, other is
// Ex,Ey,Ez, coefficients are (hc2,hc3), and the curl's sign and
// leapfrog half-step offset are opposite the electric update.
func UpdateMagnetic(group gpu.BindGroup, pushConstants []byte, _ gpu.Workgroup) error {
	b := unpack(group)
	extent, usePMC, usePML := decodePush(pushConstants)
	hx, hy, hz := b.target[0], b.target[1], b.target[2]
	ex, ey, ez := b.other[0], b.other[1], b.other[2]

	for k := 0; k < extent.Z; k++ {
		for j := 0; j < extent.Y; j++ {
			for i := 0; i < extent.X; i++ {
				off := gpu.Index3D(extent, i, j, k)
				if isBoundary(extent, i, j, k) && !usePML {
					if usePMC {
						hx[off], hy[off], hz[off] = 0, 0, 0
					}
					continue
				}
				hc2 := b.coeffs[2*off]

				hx[off] -= hc2 * ((at(ez, extent, i, j+1, k) - at(ez, extent, i, j, k)) -
					(at(ey, extent, i, j, k+1) - at(ey, extent, i, j, k)))
				hy[off] -= hc2 * ((at(ex, extent, i, j, k+1) - at(ex, extent, i, j, k)) -
					(at(ez, extent, i+1, j, k) - at(ez, extent, i, j, k)))
				hz[off] -= hc2 * ((at(ey, extent, i+1, j, k) - at(ey, extent, i, j, k)) -
					(at(ex, extent, i, j+1, k) - at(ex, extent, i, j, k)))
			}
		}
	}
	return nil
}
