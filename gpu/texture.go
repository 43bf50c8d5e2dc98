package gpu

import "fmt"

// hostTexture3D is the host-resident backing store for a volume texture.
// Every Texture3D in this package is one of these: the device never
// actually uploads to a discrete GPU in this environment (see
// ComputeFunc's doc comment), so construction, zero-init, and readback
// all operate directly on a dense float32 slice, row-major with x
// fastest-varying, matching §3's "dense arrays of 32-bit floats" Field
// State entity.
type hostTexture3D struct {
	extent Extent3D
	format TextureFormat
	data   []float32
}

func channelsFor(format TextureFormat) int {
	if format == FormatRG32Float {
		return 2
	}
	return 1
}

func newHostTexture3D(extent Extent3D, format TextureFormat) *hostTexture3D {
	n := extent.X * extent.Y * extent.Z * channelsFor(format)
	return &hostTexture3D{extent: extent, format: format, data: make([]float32, n)}
}

func (t *hostTexture3D) Extent() Extent3D     { return t.extent }
func (t *hostTexture3D) Format() TextureFormat { return t.format }

func (t *hostTexture3D) Write(data []float32) error {
	if len(data) != len(t.data) {
		return fmt.Errorf("gpu: texture3D write size mismatch: have %d want %d", len(data), len(t.data))
	}
	copy(t.data, data)
	return nil
}

func (t *hostTexture3D) Read() ([]float32, error) {
	out := make([]float32, len(t.data))
	copy(out, t.data)
	return out, nil
}

// Index3D returns the flat offset of cell (i,j,k) for a 1-channel
// texture such as Ex/Ey/Ez/Hx/Hy/Hz.
func Index3D(extent Extent3D, i, j, k int) int {
	return (k*extent.Y+j)*extent.X + i
}

// Index3DChan returns the flat offset of channel c of cell (i,j,k) for a
// multi-channel texture such as the (ec2,ec3) coefficient map.
func Index3DChan(extent Extent3D, channels, i, j, k, c int) int {
	return ((k*extent.Y+j)*extent.X+i)*channels + c
}

// Raw3D exposes the backing slice directly. Kernel/CPML/source CPU mirrors
// use this to read and mutate field state in place without a
// Read-modify-Write round trip through the interface on every cell.
func Raw3D(t Texture3D) []float32 {
	return t.(*hostTexture3D).data
}

type hostTexture2D struct {
	extent Extent2D
	format TextureFormat
	data   []float32
}

func newHostTexture2D(extent Extent2D, format TextureFormat) *hostTexture2D {
	n := extent.X * extent.Y * channelsFor(format)
	return &hostTexture2D{extent: extent, format: format, data: make([]float32, n)}
}

func (t *hostTexture2D) Extent() Extent2D     { return t.extent }
func (t *hostTexture2D) Format() TextureFormat { return t.format }

func (t *hostTexture2D) Write(data []float32) error {
	if len(data) != len(t.data) {
		return fmt.Errorf("gpu: texture2D write size mismatch: have %d want %d", len(data), len(t.data))
	}
	copy(t.data, data)
	return nil
}

func (t *hostTexture2D) Read() ([]float32, error) {
	out := make([]float32, len(t.data))
	copy(out, t.data)
	return out, nil
}

// Index2D returns the flat offset of texel (u,v) for a 1-channel 2D
// texture.
func Index2D(extent Extent2D, u, v int) int {
	return v*extent.X + u
}

// Index2DChan returns the flat offset of channel c of texel (u,v) for a
// multi-channel 2D texture such as a modal amplitude map (re,im).
func Index2DChan(extent Extent2D, channels, u, v, c int) int {
	return (v*extent.X+u)*channels + c
}

// Raw2D exposes the backing slice directly, mirroring Raw3D.
func Raw2D(t Texture2D) []float32 {
	return t.(*hostTexture2D).data
}
