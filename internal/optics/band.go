package optics

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/bolocalc/internal/physics"
	"github.com/san-kum/bolocalc/internal/table"
)

// BandFile is a measured efficiency spectrum.
type BandFile struct {
	Path  string
	Freqs []float64 // Hz
	Eff   []float64
	Err   []float64 // nil for two-column files
}

// LoadBand reads a "freq [GHz] | efficiency [| uncertainty]" file.
func LoadBand(path string) (*BandFile, error) {
	cols, err := table.Columns(path, 2)
	if err != nil {
		return nil, err
	}
	b := &BandFile{Path: path, Freqs: make([]float64, len(cols[0])), Eff: cols[1]}
	for i, f := range cols[0] {
		b.Freqs[i] = f * 1e9
		if i > 0 && b.Freqs[i] <= b.Freqs[i-1] {
			return nil, fmt.Errorf("%w: %s: frequencies must increase", table.ErrMalformed, path)
		}
	}
	if len(cols) > 2 {
		b.Err = cols[2]
	}
	return b, nil
}

// Center returns the efficiency-weighted mean frequency.
func (b *BandFile) Center() float64 {
	num, den := 0.0, 0.0
	for i, f := range b.Freqs {
		num += f * b.Eff[i]
		den += b.Eff[i]
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// OnGrid interpolates the band onto freqs. With an uncertainty column and
// nominal false, every point gets an independent Gaussian draw. Results
// are clipped to [0, 1].
func (b *BandFile) OnGrid(freqs []float64, rng *rand.Rand, nominal bool) []float64 {
	eff := physics.Interp(freqs, b.Freqs, b.Eff, 0)
	if b.Err != nil && !nominal {
		errs := physics.Interp(freqs, b.Freqs, b.Err, 0)
		for i := range eff {
			if errs[i] > 0 {
				eff[i] += errs[i] * rng.NormFloat64()
			}
		}
	}
	for i, v := range eff {
		if v < 0 {
			eff[i] = 0
		} else if v > 1 {
			eff[i] = 1
		}
	}
	return eff
}
