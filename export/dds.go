// Package export writes periodic 3D field dumps in DirectDraw Surface
// (DDS) format, per spec.md §6. No library in the example corpus
// writes DDS; this is the one ambient concern built on encoding/binary
// rather than a third-party package (see DESIGN.md).
package export

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pthm-cable/fdtd/gpu"
)

const (
	ddsMagic       = 0x20534444 // "DDS "
	ddsHeaderSize  = 124
	ddsPixelFormatSize = 32
	ddsFlagsCaps   = 0x1
	ddsFlagsHeight = 0x2
	ddsFlagsWidth  = 0x4
	ddsFlagsPitch  = 0x8
	ddsFlagsPixelFormat = 0x1000
	ddsFlagsDepth  = 0x800000
	ddsFlagsLinearSize = 0x80000
	ddsCapsComplex = 0x8
	ddsCapsTexture = 0x1000
	ddsCaps2Volume = 0x200000
	ddsPixelFormatFourCC = 0x4
	fourCCDX10     = 0x30315844 // "DX10"
	dxgiFormatR32G32Float = 16
	dxgiFormatR32Float    = 41
	d3d10ResourceDimensionTexture3D = 4
)

// WriteVolume3D writes a single-channel R32 float volume (an Ex/Ey/...
// field component) in DDS DX10 extended-header form.
func WriteVolume3D(path string, extent gpu.Extent3D, data []float32) error {
	if len(data) != extent.X*extent.Y*extent.Z {
		return fmt.Errorf("export: data length %d does not match extent %+v", len(data), extent)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: creating %s: %w", path, err)
	}
	defer f.Close()
	return writeVolume(f, extent, data, 1, dxgiFormatR32Float)
}

// WriteCoefficients3D writes a two-channel RG32 float volume (the
// (ec2,ec3) or (hc2,hc3) coefficient maps).
func WriteCoefficients3D(path string, extent gpu.Extent3D, data []float32) error {
	if len(data) != extent.X*extent.Y*extent.Z*2 {
		return fmt.Errorf("export: data length %d does not match extent %+v (2 channels)", len(data), extent)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: creating %s: %w", path, err)
	}
	defer f.Close()
	return writeVolume(f, extent, data, 2, dxgiFormatR32G32Float)
}

func writeVolume(w io.Writer, extent gpu.Extent3D, data []float32, channels int, dxgiFormat uint32) error {
	bytesPerPixel := 4 * channels
	pitch := uint32(extent.X * bytesPerPixel)

	header := make([]byte, ddsHeaderSize)
	binary.LittleEndian.PutUint32(header[0:], ddsHeaderSize)
	binary.LittleEndian.PutUint32(header[4:], ddsFlagsCaps|ddsFlagsHeight|ddsFlagsWidth|ddsFlagsPixelFormat|ddsFlagsDepth|ddsFlagsLinearSize)
	binary.LittleEndian.PutUint32(header[8:], uint32(extent.Y))  // height
	binary.LittleEndian.PutUint32(header[12:], uint32(extent.X)) // width
	binary.LittleEndian.PutUint32(header[16:], pitch)
	binary.LittleEndian.PutUint32(header[20:], uint32(extent.Z)) // depth
	binary.LittleEndian.PutUint32(header[24:], 1)                // mipmap count

	pf := header[76:108]
	binary.LittleEndian.PutUint32(pf[0:], ddsPixelFormatSize)
	binary.LittleEndian.PutUint32(pf[4:], ddsPixelFormatFourCC)
	binary.LittleEndian.PutUint32(pf[8:], fourCCDX10)

	caps := header[108:]
	binary.LittleEndian.PutUint32(caps[0:], ddsCapsComplex|ddsCapsTexture)
	binary.LittleEndian.PutUint32(caps[4:], ddsCaps2Volume)

	if _, err := w.Write([]byte{'D', 'D', 'S', ' '}); err != nil {
		return fmt.Errorf("export: writing magic: %w", err)
	}
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("export: writing header: %w", err)
	}

	dx10 := make([]byte, 20)
	binary.LittleEndian.PutUint32(dx10[0:], dxgiFormat)
	binary.LittleEndian.PutUint32(dx10[4:], d3d10ResourceDimensionTexture3D)
	binary.LittleEndian.PutUint32(dx10[8:], 0) // misc flag
	binary.LittleEndian.PutUint32(dx10[12:], 1) // array size
	binary.LittleEndian.PutUint32(dx10[16:], 0) // misc flags2
	if _, err := w.Write(dx10); err != nil {
		return fmt.Errorf("export: writing DX10 header: %w", err)
	}

	buf := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("export: writing volume data: %w", err)
	}
	return nil
}

// Volume is a decoded DDS volume texture: its grid extent, channel
// count, and raw float32 data in the same layout WriteVolume3D and
// WriteCoefficients3D wrote it in.
type Volume struct {
	Extent   gpu.Extent3D
	Channels int
	Data     []float32
}

// ReadVolume reads back a file written by WriteVolume3D or
// WriteCoefficients3D, recovering the DXGI format to determine the
// channel count.
func ReadVolume(path string) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("export: opening %s: %w", path, err)
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, fmt.Errorf("export: reading magic: %w", err)
	}
	if string(magic) != "DDS " {
		return nil, fmt.Errorf("export: %s is not a DDS file", path)
	}

	header := make([]byte, ddsHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("export: reading header: %w", err)
	}
	height := binary.LittleEndian.Uint32(header[8:])
	width := binary.LittleEndian.Uint32(header[12:])
	depth := binary.LittleEndian.Uint32(header[20:])

	dx10 := make([]byte, 20)
	if _, err := io.ReadFull(f, dx10); err != nil {
		return nil, fmt.Errorf("export: reading DX10 header: %w", err)
	}
	dxgiFormat := binary.LittleEndian.Uint32(dx10[0:])

	channels := 1
	if dxgiFormat == dxgiFormatR32G32Float {
		channels = 2
	}

	extent := gpu.Extent3D{X: int(width), Y: int(height), Z: int(depth)}
	count := extent.X * extent.Y * extent.Z * channels
	raw := make([]byte, count*4)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, fmt.Errorf("export: reading volume data: %w", err)
	}

	data := make([]float32, count)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return &Volume{Extent: extent, Channels: channels, Data: data}, nil
}
