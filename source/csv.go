package source

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/pthm-cable/fdtd/gpu"
)

// amplitudeRow is one (x,y,real,imag) record of a modal source's
// precomputed complex amplitude profile.
type amplitudeRow struct {
	X    int     `csv:"x"`
	Y    int     `csv:"y"`
	Real float64 `csv:"real"`
	Imag float64 `csv:"imag"`
}

// LoadAmplitudeCSV reads a (x,y,real,imag) amplitude profile, sized to
// the given tangential extent. Cells absent from the file are left at
// zero.
func LoadAmplitudeCSV(path string, extent gpu.Extent2D) (*AmplitudeMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: opening amplitude csv %s: %w", path, err)
	}
	defer f.Close()

	var rows []amplitudeRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("source: parsing amplitude csv %s: %w", path, err)
	}

	m := &AmplitudeMap{Extent: extent, Data: make([]float32, extent.X*extent.Y*2)}
	for _, r := range rows {
		if r.X < 0 || r.Y < 0 || r.X >= extent.X || r.Y >= extent.Y {
			return nil, fmt.Errorf("source: amplitude csv %s: cell (%d,%d) outside tangential extent %dx%d", path, r.X, r.Y, extent.X, extent.Y)
		}
		idx := gpu.Index2DChan(extent, 2, r.X, r.Y, 0)
		m.Data[idx] = float32(r.Real)
		m.Data[idx+1] = float32(r.Imag)
	}
	return m, nil
}
