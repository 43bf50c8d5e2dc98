package kernel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pthm-cable/fdtd/field"
	"github.com/pthm-cable/fdtd/gpu"
	"github.com/pthm-cable/fdtd/gridmap"
)

// Preprocess substitutes the WORKGROUP_X/Y/Z tokens a kernel's WGSL
// source leaves for the configured dispatch tile, per spec.md §6's
// workgroup_size config. Shader loading itself is out of scope (see
// gpu.ShaderLoader); this is the one preprocessing step every kernel
// family needs before handing source to naga.
func Preprocess(wgsl string, wg gpu.Workgroup) string {
	replacer := strings.NewReplacer(
		"WORKGROUP_X", strconv.Itoa(wg.X),
		"WORKGROUP_Y", strconv.Itoa(wg.Y),
		"WORKGROUP_Z", strconv.Itoa(wg.Z),
	)
	return replacer.Replace(wgsl)
}

// Pipelines holds the two field-update compute pipelines, dispatched
// in the order the driver's tick loop requires (magnetic half-step
// before electric half-step, per spec.md §4.7).
type Pipelines struct {
	Electric gpu.ComputePipeline
	Magnetic gpu.ComputePipeline
	wg       gpu.Workgroup
}

// New loads and preprocesses shader/fdtd/fdtd-3d.wgsl and registers
// both entry points' CPU mirrors with the device.
func New(device gpu.Device, loader gpu.ShaderLoader, path string, wg gpu.Workgroup) (*Pipelines, error) {
	src, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("kernel: loading %s: %w", path, err)
	}
	src = Preprocess(src, wg)

	electric, err := device.CreateComputePipeline(src, "update_electric_field", "fdtd-3d", UpdateElectric)
	if err != nil {
		return nil, fmt.Errorf("kernel: compiling update_electric_field: %w", err)
	}
	magnetic, err := device.CreateComputePipeline(src, "update_magnetic_field", "fdtd-3d", UpdateMagnetic)
	if err != nil {
		return nil, fmt.Errorf("kernel: compiling update_magnetic_field: %w", err)
	}
	return &Pipelines{Electric: electric, Magnetic: magnetic, wg: wg}, nil
}

// Boundary carries the two push-constant flags the field-update kernels
// read: use_pmc selects the non-PML magnetic-conductor boundary, and
// use_pml tells the kernel to skip PEC/PMC special-casing entirely and
// let the interior Yee formula run at every cell (the CPML correction
// kernels overwrite the halo afterward).
type Boundary struct {
	UsePMC    bool
	UsePML    bool
}

func pushConstants(extent gpu.Extent3D, b Boundary) []byte {
	pc := &gpu.PushConstants{}
	pc.PutUint32(uint32(extent.X)).PutUint32(uint32(extent.Y)).PutUint32(uint32(extent.Z))
	pc.PutUint32(boolToUint32(b.UsePMC)).PutUint32(boolToUint32(b.UsePML))
	return pc.Bytes()
}

func boolToUint32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// DispatchElectric runs the electric-field update for one tick.
func (p *Pipelines) DispatchElectric(encoder gpu.CommandEncoder, grid *gridmap.Grid, s *field.State, b Boundary) error {
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	gx, gy, gz := gpu.DispatchCounts(extent, p.wg)
	return encoder.Dispatch(p.Electric, s.EBundle, pushConstants(extent, b), gpu.Workgroup{X: gx, Y: gy, Z: gz})
}

// DispatchMagnetic runs the magnetic-field update for one tick.
func (p *Pipelines) DispatchMagnetic(encoder gpu.CommandEncoder, grid *gridmap.Grid, s *field.State, b Boundary) error {
	extent := gpu.Extent3D{X: grid.G[0], Y: grid.G[1], Z: grid.G[2]}
	gx, gy, gz := gpu.DispatchCounts(extent, p.wg)
	return encoder.Dispatch(p.Magnetic, s.HBundle, pushConstants(extent, b), gpu.Workgroup{X: gx, Y: gy, Z: gz})
}
