package noise

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/bolocalc/internal/param"
	"github.com/san-kum/bolocalc/internal/physics"
)

// ErrTcBelowBath indicates a transition temperature at or below the bath.
var ErrTcBelowBath = errors.New("noise: Tc must exceed the bath temperature")

// PhotonNEP returns the photon NEP of one detector:
// NEP^2 = integral of 2hfP + 2 sum_i sum_j p_i p_j over frequency.
func PhotonNEP(spectra [][]float64, freqs []float64) float64 {
	p := total(spectra, len(freqs))
	y := make([]float64, len(freqs))
	for k, f := range freqs {
		y[k] = 2*physics.H*f*p[k] + 2*p[k]*p[k]
	}
	return math.Sqrt(physics.Trapz(y, freqs))
}

// PhotonNEPCorrelated returns the single-detector photon NEP and the
// effective per-detector photon NEP for an array whose neighbours see
// correlated bunching noise. weights holds one correlation factor per
// element.
func PhotonNEPCorrelated(spectra [][]float64, freqs, weights []float64) (det, arr float64) {
	n := len(freqs)
	p := total(spectra, n)
	yDet := make([]float64, n)
	yArr := make([]float64, n)
	for k, f := range freqs {
		shot := 2 * physics.H * f * p[k]
		corr := 0.0
		for i := range spectra {
			if weights[i] == 0 {
				continue
			}
			for j := range spectra {
				corr += spectra[i][k] * spectra[j][k] * weights[i] * weights[j]
			}
		}
		yDet[k] = shot + 2*p[k]*p[k]
		yArr[k] = shot + 2*(p[k]*p[k]+corr)
	}
	return math.Sqrt(physics.Trapz(yDet, freqs)), math.Sqrt(physics.Trapz(yArr, freqs))
}

// Conductance returns the thermal conductance G [W/K] that saturates at
// psat with carrier index n, Tc and bath temperature tb.
func Conductance(psat, n, tc, tb float64) (float64, error) {
	if tc <= tb {
		return 0, fmt.Errorf("%w: Tc = %g K, Tb = %g K", ErrTcBelowBath, tc, tb)
	}
	return psat * (n + 1) * math.Pow(tc, n) / (math.Pow(tc, n+1) - math.Pow(tb, n+1)), nil
}

// FLink returns the thermal-link nonequilibrium factor.
func FLink(n, tc, tb float64) float64 {
	r := tb / tc
	return (n + 1) / (2*n + 3) * (1 - math.Pow(r, 2*n+3)) / (1 - math.Pow(r, n+1))
}

// BolometerNEP returns the thermal-carrier NEP sqrt(4 kB G Tc^2 F).
func BolometerNEP(psat, n, tc, tb float64) (float64, error) {
	g, err := Conductance(psat, n, tc, tb)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(4 * physics.KB * g * tc * tc * FLink(n, tc, tb)), nil
}

// Readout holds the inputs of the readout NEP.
type Readout struct {
	Popt     float64 // W
	Psat     float64 // W
	NEI      param.Value
	BoloR    param.Value
	ReadFrac param.Value
	NEPph    float64
	NEPbolo  float64
}

// ReadoutNEP returns zero for a latched detector (Popt >= Psat). Otherwise
// it is NEI sqrt((Psat - Popt) R) when both NEI and R are known, and
// otherwise the fraction ReadFrac of the photon and bolometer noise.
func ReadoutNEP(r Readout) float64 {
	if r.Popt >= r.Psat {
		return 0
	}
	nei, okN := r.NEI.Get()
	res, okR := r.BoloR.Get()
	if okN && okR {
		return nei * math.Sqrt((r.Psat-r.Popt)*res)
	}
	if frac, ok := r.ReadFrac.Get(); ok {
		return math.Sqrt((1+frac)*(1+frac)-1) * math.Sqrt(r.NEPph*r.NEPph+r.NEPbolo*r.NEPbolo)
	}
	return 0
}

// TotalNEP adds NEP terms in quadrature.
func TotalNEP(terms ...float64) float64 {
	sum := 0.0
	for _, t := range terms {
		sum += t * t
	}
	return math.Sqrt(sum)
}

// NETFromNEP converts an NEP [W/rtHz] to an NET [K rt(s)].
func NETFromNEP(nep, dpdt float64) float64 {
	if dpdt == 0 {
		return math.Inf(1)
	}
	return nep / (math.Sqrt2 * dpdt)
}
