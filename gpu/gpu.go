// Package gpu defines the GPU abstraction contract the FDTD core relies
// on: device-resident 2D/3D textures, bind groups, compute pipelines, and
// a command encoder. The concrete implementation wraps the wgpu-in-Go
// stack (github.com/gogpu/wgpu/hal, github.com/gogpu/naga); callers that
// only need the contract (tests, the CPML subsystem, source injection)
// depend on the interfaces in this file, not on hal directly.
package gpu

import "fmt"

// TextureFormat mirrors the two formats the core ever allocates.
type TextureFormat int

const (
	FormatR32Float TextureFormat = iota
	FormatRG32Float
)

// Extent3D is a texture's dimensions in texels, one axis per field.
type Extent3D struct {
	X, Y, Z int
}

// Extent2D is a 2D texture's dimensions in texels.
type Extent2D struct {
	X, Y int
}

// Texture3D is a device-resident volume texture (Ex, Ey, ..., coefficient
// maps). CPML ψ state is not a Texture3D (see cpml.PsiState).
type Texture3D interface {
	Extent() Extent3D
	Format() TextureFormat
	// Write uploads dense host data in row-major (x fastest, then y, then
	// z) order. Used only at construction time (coefficient maps,
	// zero-initialization, test fixtures) -- never during steady state.
	Write(data []float32) error
	// Read reads back the full volume. Used for export and for test
	// assertions; blocks on the device queue.
	Read() ([]float32, error)
}

// Texture2D is a device-resident planar texture (PML decay maps, modal
// amplitude maps).
type Texture2D interface {
	Extent() Extent2D
	Format() TextureFormat
	Write(data []float32) error
	Read() ([]float32, error)
}

// BindGroupEntry binds one resource to a numbered slot.
type BindGroupEntry struct {
	Binding  uint32
	Texture3 Texture3D // nil if this entry binds a Texture2D
	Texture2 Texture2D // nil if this entry binds a Texture3D
}

// BindGroup is an opaque, device-resident set of bound resources.
type BindGroup interface {
	Entries() []BindGroupEntry
}

// ComputePipeline is one compiled compute entry point.
type ComputePipeline interface {
	Label() string
}

// ComputeFunc is the CPU-side mirror of a WGSL compute entry point,
// executed against host-resident texture data. The real hal.Device can
// bind GPU buffers to the compiled SPIR-V module, but -- exactly as
// gogpu/gg's GPUFineRasterizer notes for its own fine/coarse compute
// pipelines ("GPU dispatch requires buffer binding which needs HAL
// extension... falls back to CPU") -- dispatch in this package always
// executes the registered CPU mirror, which the kernel package supplies
// alongside its WGSL text (the cpml and source packages run their host
// code directly, without a pipeline). This keeps results
// deterministic and testable while the WGSL itself still has to compile
// cleanly through naga, catching shader-side mistakes even though the
// shader body never runs on real hardware here.
type ComputeFunc func(group BindGroup, pushConstants []byte, groups Workgroup) error

// Workgroup is a compute kernel's 3D tile of invocations.
type Workgroup struct {
	X, Y, Z int
}

// DispatchCounts returns ceil(extent/workgroup) per axis.
func DispatchCounts(extent Extent3D, wg Workgroup) (int, int, int) {
	return ceilDiv(extent.X, wg.X), ceilDiv(extent.Y, wg.Y), ceilDiv(extent.Z, wg.Z)
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// CommandEncoder accumulates compute dispatches for one tick's submission.
// Each Dispatch call is conceptually wrapped in its own compute-pass
// barrier, matching §5's "each begin_compute_pass/end_compute_pass forms
// a barrier".
type CommandEncoder interface {
	Dispatch(pipeline ComputePipeline, group BindGroup, pushConstants []byte, groups Workgroup) error
	Submit() error
}

// Device creates GPU resources and command encoders. The concrete
// implementation wraps hal.Device + hal.Queue.
type Device interface {
	CreateTexture3D(extent Extent3D, format TextureFormat, label string) (Texture3D, error)
	CreateTexture2D(extent Extent2D, format TextureFormat, label string) (Texture2D, error)
	CreateBindGroup(entries []BindGroupEntry) (BindGroup, error)
	CreateComputePipeline(wgsl string, entryPoint string, label string, fn ComputeFunc) (ComputePipeline, error)
	CreateCommandEncoder() (CommandEncoder, error)
	// Info reports adapter description and device limits, backing the
	// --info CLI flag.
	Info() (AdapterInfo, error)
}

// AdapterInfo is printed verbatim by --info.
type AdapterInfo struct {
	Name                string
	Backend             string
	MaxTextureDimension3D int
	MaxPushConstantSize   int
	MaxComputeWorkgroupInvocations int
}

func (a AdapterInfo) String() string {
	return fmt.Sprintf("%s (%s): max_texture_3d=%d max_push_constant=%d max_invocations=%d",
		a.Name, a.Backend, a.MaxTextureDimension3D, a.MaxPushConstantSize, a.MaxComputeWorkgroupInvocations)
}

// ErrDeviceUnavailable is a resource error per §7: GPU adapter unavailable.
var ErrDeviceUnavailable = fmt.Errorf("gpu: no suitable adapter available")
