package noise

import (
	"math"

	"github.com/san-kum/bolocalc/internal/physics"
	"github.com/san-kum/bolocalc/internal/table"
)

// CorrelationTable maps detector pitch, in units of F lambda, to the
// bunching-noise correlation factors of neighbouring detectors for light
// arriving from sky side of the aperture stop and from the stop itself.
type CorrelationTable struct {
	Pitch    []float64
	Aperture []float64
	Stop     []float64
}

// DefaultCorrelations tabulates the Airy coherence (2 J1(pi p)/(pi p))^2
// for the aperture and a Gaussian exp(-p^2/2) for the stop on [0, 5].
func DefaultCorrelations() *CorrelationTable {
	const n = 501
	t := &CorrelationTable{
		Pitch:    make([]float64, n),
		Aperture: make([]float64, n),
		Stop:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		p := 5 * float64(i) / float64(n-1)
		t.Pitch[i] = p
		t.Aperture[i] = airy(p)
		t.Stop[i] = math.Exp(-p * p / 2)
	}
	return t
}

func airy(p float64) float64 {
	if p == 0 {
		return 1
	}
	x := math.Pi * p
	a := 2 * math.J1(x) / x
	return a * a
}

// LoadCorrelations reads a "pitch | aperture | stop" file.
func LoadCorrelations(path string) (*CorrelationTable, error) {
	cols, err := table.Columns(path, 3)
	if err != nil {
		return nil, err
	}
	return &CorrelationTable{Pitch: cols[0], Aperture: cols[1], Stop: cols[2]}, nil
}

// Factors returns the aperture and stop factors at pitch p. Pitches past
// the table take the last row.
func (t *CorrelationTable) Factors(p float64) (aperture, stop float64) {
	last := len(t.Pitch) - 1
	if p >= t.Pitch[last] {
		return t.Aperture[last], t.Stop[last]
	}
	if p <= t.Pitch[0] {
		return t.Aperture[0], t.Stop[0]
	}
	x := []float64{p}
	return physics.Interp(x, t.Pitch, t.Aperture, 0)[0], physics.Interp(x, t.Pitch, t.Stop, 0)[0]
}

// Pitch returns the detector pitch in units of F lambda at the band
// center.
func Pitch(pixelSize, fNumber, center float64) float64 {
	return pixelSize / (fNumber * physics.Lambda(center))
}

// Weights returns one correlation factor per element of a stack with n
// elements and its aperture stop at apIndex: the aperture factor sky side
// of the stop, the stop factor at the stop, zero detector side. Without
// a stop every weight is zero.
func (t *CorrelationTable) Weights(n, apIndex int, pitch float64) []float64 {
	w := make([]float64, n)
	if apIndex < 0 {
		return w
	}
	ap, stop := t.Factors(pitch)
	for i := range w {
		switch {
		case i < apIndex:
			w[i] = ap
		case i == apIndex:
			w[i] = stop
		}
	}
	return w
}
