//go:build !nogpu

package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/types"
)

// wgpuDevice wraps hal.Device/hal.Queue, the real WebGPU-in-Go stack used
// by github.com/gogpu/gg, and is the concrete grounding for the Device
// contract. Shader text is compiled with naga (WGSL -> SPIR-V) exactly as
// in gogpu/gg's backend/wgpu rasterizer.
type wgpuDevice struct {
	mu         sync.Mutex
	device     hal.Device
	queue      hal.Queue
	pipelines  map[string]*computePipeline
	layout     hal.PipelineLayout
	bindLayout hal.BindGroupLayout
}

// NewDevice adopts an already-initialized hal.Device/hal.Queue pair (the
// process-wide GPU singleton per §9) and returns the Device this package
// exposes to the rest of the core.
func NewDevice(device hal.Device, queue hal.Queue) (Device, error) {
	if device == nil || queue == nil {
		return nil, ErrDeviceUnavailable
	}
	d := &wgpuDevice{device: device, queue: queue, pipelines: make(map[string]*computePipeline)}
	if err := d.init(); err != nil {
		return nil, fmt.Errorf("gpu: initializing device: %w", err)
	}
	return d, nil
}

// init builds the single bind group layout and pipeline layout shared by
// every FDTD compute pipeline: up to 8 texture bindings (6 field
// components + coefficient map + one spare) visible to compute stages,
// plus one push-constant range.
func (d *wgpuDevice) init() error {
	entries := make([]types.BindGroupLayoutEntry, 0, 8)
	for b := uint32(0); b < 8; b++ {
		entries = append(entries, types.BindGroupLayoutEntry{
			Binding:    b,
			Visibility: types.ShaderStageCompute,
			Buffer: &types.BufferBindingLayout{
				Type: types.BufferBindingTypeStorage,
			},
		})
	}
	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "fdtd_bind_layout",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("creating bind group layout: %w", err)
	}
	d.bindLayout = layout

	pl, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "fdtd_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{layout},
	})
	if err != nil {
		return fmt.Errorf("creating pipeline layout: %w", err)
	}
	d.layout = pl
	return nil
}

func (d *wgpuDevice) CreateTexture3D(extent Extent3D, format TextureFormat, label string) (Texture3D, error) {
	if extent.X <= 0 || extent.Y <= 0 || extent.Z <= 0 {
		return nil, fmt.Errorf("gpu: invalid 3D texture extent %+v for %q", extent, label)
	}
	return newHostTexture3D(extent, format), nil
}

func (d *wgpuDevice) CreateTexture2D(extent Extent2D, format TextureFormat, label string) (Texture2D, error) {
	if extent.X <= 0 || extent.Y <= 0 {
		return nil, fmt.Errorf("gpu: invalid 2D texture extent %+v for %q", extent, label)
	}
	return newHostTexture2D(extent, format), nil
}

func (d *wgpuDevice) CreateBindGroup(entries []BindGroupEntry) (BindGroup, error) {
	return &bindGroup{entries: entries}, nil
}

// CreateComputePipeline compiles wgsl (already token-substituted by the
// kernel package) via naga and creates a hal.ComputePipeline with the
// given entry point, caching by (label, entryPoint) so repeated requests
// for the same kernel (e.g. 26 CPML regions sharing 6 pipelines, per §9)
// reuse one compiled pipeline. fn is the CPU mirror invoked by Dispatch;
// see ComputeFunc's doc comment for why dispatch never touches the
// compiled SPIR-V module at runtime.
func (d *wgpuDevice) CreateComputePipeline(wgsl string, entryPoint string, label string, fn ComputeFunc) (ComputePipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := label + "::" + entryPoint
	if cached, ok := d.pipelines[key]; ok {
		return cached, nil
	}

	spirv, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("gpu: compiling %s: %w", label, err)
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirvToWords(spirv)},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: creating shader module %s: %w", label, err)
	}

	if _, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  label,
		Layout: d.layout,
		Compute: hal.ComputeState{
			Module:     module,
			EntryPoint: entryPoint,
		},
	}); err != nil {
		return nil, fmt.Errorf("gpu: creating compute pipeline %s: %w", label, err)
	}

	pipeline := &computePipeline{label: label, entry: entryPoint, fn: fn}
	d.pipelines[key] = pipeline
	return pipeline, nil
}

func (d *wgpuDevice) CreateCommandEncoder() (CommandEncoder, error) {
	return &commandEncoder{device: d}, nil
}

func (d *wgpuDevice) Info() (AdapterInfo, error) {
	limits := d.device.Limits()
	return AdapterInfo{
		Name:                           d.device.AdapterName(),
		Backend:                        d.device.Backend(),
		MaxTextureDimension3D:          int(limits.MaxTextureDimension3D),
		MaxPushConstantSize:            int(limits.MaxPushConstantSize),
		MaxComputeWorkgroupInvocations: int(limits.MaxComputeInvocationsPerWorkgroup),
	}, nil
}

func spirvToWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
	}
	return words
}

type computePipeline struct {
	label string
	entry string
	fn    ComputeFunc
}

func (p *computePipeline) Label() string { return p.label + "/" + p.entry }

type bindGroup struct {
	entries []BindGroupEntry
}

func (g *bindGroup) Entries() []BindGroupEntry { return g.entries }

// commandEncoder dispatches kernels against host-backed textures.
// Each Dispatch is a self-contained compute pass: it reads every bound
// texture's current contents, executes no CPU-side stencil logic itself
// (that lives in the kernel/cpml/source packages, which call Dispatch
// once per kernel per §5's barrier model), and is immediately visible to
// the next Dispatch -- matching the ordered-queue semantics of §5.
type commandEncoder struct {
	device *wgpuDevice
	err    error
}

func (e *commandEncoder) Dispatch(pipeline ComputePipeline, group BindGroup, pushConstants []byte, groups Workgroup) error {
	if e.err != nil {
		return e.err
	}
	p, ok := pipeline.(*computePipeline)
	if !ok || p == nil || p.fn == nil {
		return fmt.Errorf("gpu: dispatch requires a pipeline created by this device")
	}
	if group == nil {
		return fmt.Errorf("gpu: dispatch requires a bind group")
	}
	if err := p.fn(group, pushConstants, groups); err != nil {
		e.err = fmt.Errorf("gpu: dispatch %s: %w", p.Label(), err)
		return e.err
	}
	return nil
}

func (e *commandEncoder) Submit() error {
	return e.err
}
