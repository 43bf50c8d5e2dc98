package gpu

import "fmt"

// hostDevice is a hal-free Device used by unit tests and by --no-visual
// runs on hosts with no usable adapter. It shares every code path with
// wgpuDevice except shader compilation: WGSL text is accepted as-is and
// the CPU mirror registered at CreateComputePipeline is the only thing
// ever executed, since there is no real hal.Device to hand SPIR-V to.
type hostDevice struct {
	pipelines map[string]*computePipeline
}

// NewHostDevice returns a Device with no GPU backing at all -- the
// in-process analog of gogpu/gg's CPU fallback path, used directly
// rather than only reached when HAL buffer binding is unavailable.
func NewHostDevice() Device {
	return &hostDevice{pipelines: make(map[string]*computePipeline)}
}

func (d *hostDevice) CreateTexture3D(extent Extent3D, format TextureFormat, label string) (Texture3D, error) {
	if extent.X <= 0 || extent.Y <= 0 || extent.Z <= 0 {
		return nil, fmt.Errorf("gpu: invalid 3D texture extent %+v for %q", extent, label)
	}
	return newHostTexture3D(extent, format), nil
}

func (d *hostDevice) CreateTexture2D(extent Extent2D, format TextureFormat, label string) (Texture2D, error) {
	if extent.X <= 0 || extent.Y <= 0 {
		return nil, fmt.Errorf("gpu: invalid 2D texture extent %+v for %q", extent, label)
	}
	return newHostTexture2D(extent, format), nil
}

func (d *hostDevice) CreateBindGroup(entries []BindGroupEntry) (BindGroup, error) {
	return &bindGroup{entries: entries}, nil
}

func (d *hostDevice) CreateComputePipeline(wgsl string, entryPoint string, label string, fn ComputeFunc) (ComputePipeline, error) {
	key := label + "::" + entryPoint
	if cached, ok := d.pipelines[key]; ok {
		return cached, nil
	}
	p := &computePipeline{label: label, entry: entryPoint, fn: fn}
	d.pipelines[key] = p
	return p, nil
}

func (d *hostDevice) CreateCommandEncoder() (CommandEncoder, error) {
	return &commandEncoder{}, nil
}

func (d *hostDevice) Info() (AdapterInfo, error) {
	return AdapterInfo{Name: "host (no adapter)", Backend: "cpu"}, nil
}
