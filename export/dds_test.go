package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/fdtd/gpu"
)

func TestWriteVolume3DRoundTrip(t *testing.T) {
	extent := gpu.Extent3D{X: 4, Y: 3, Z: 2}
	data := make([]float32, extent.X*extent.Y*extent.Z)
	for i := range data {
		data[i] = float32(i) * 0.5
	}

	path := filepath.Join(t.TempDir(), "ex.dds")
	if err := WriteVolume3D(path, extent, data); err != nil {
		t.Fatal(err)
	}

	got, err := ReadVolume(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Extent != extent {
		t.Fatalf("expected extent %+v, got %+v", extent, got.Extent)
	}
	if got.Channels != 1 {
		t.Fatalf("expected 1 channel, got %d", got.Channels)
	}
	if len(got.Data) != len(data) {
		t.Fatalf("expected %d values, got %d", len(data), len(got.Data))
	}
	for i := range data {
		if got.Data[i] != data[i] {
			t.Fatalf("value %d: expected %v, got %v", i, data[i], got.Data[i])
		}
	}
}

func TestWriteCoefficients3DRoundTrip(t *testing.T) {
	extent := gpu.Extent3D{X: 3, Y: 3, Z: 3}
	data := make([]float32, extent.X*extent.Y*extent.Z*2)
	for i := range data {
		data[i] = float32(i)*0.1 - 1
	}

	path := filepath.Join(t.TempDir(), "coeffs.dds")
	if err := WriteCoefficients3D(path, extent, data); err != nil {
		t.Fatal(err)
	}

	got, err := ReadVolume(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Channels != 2 {
		t.Fatalf("expected 2 channels, got %d", got.Channels)
	}
	if len(got.Data) != len(data) {
		t.Fatalf("expected %d values, got %d", len(data), len(got.Data))
	}
	for i := range data {
		if got.Data[i] != data[i] {
			t.Fatalf("value %d: expected %v, got %v", i, data[i], got.Data[i])
		}
	}
}

func TestWriteVolume3DRejectsMismatchedLength(t *testing.T) {
	extent := gpu.Extent3D{X: 2, Y: 2, Z: 2}
	path := filepath.Join(t.TempDir(), "bad.dds")
	if err := WriteVolume3D(path, extent, make([]float32, 3)); err == nil {
		t.Fatal("expected error for mismatched data length")
	}
}

func TestReadVolumeRejectsNonDDSFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notdds.bin")
	if err := os.WriteFile(path, []byte("not a dds file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadVolume(path); err == nil {
		t.Fatal("expected error reading non-DDS file")
	}
}
