package noise

import (
	"github.com/san-kum/bolocalc/internal/optics"
	"github.com/san-kum/bolocalc/internal/physics"
)

// PowerSpectra returns, per element, the power spectral density reaching
// the detector: the element's emission times the product of every
// downstream efficiency.
func PowerSpectra(st *optics.Stack, freqs []float64) [][]float64 {
	out := make([][]float64, st.Len())
	for i, el := range st.Elements {
		p := el.PowerSpectrum(freqs)
		down := st.Downstream(i)
		for k := range p {
			p[k] *= down[k]
		}
		out[i] = p
	}
	return out
}

// OpticalPower integrates the total power spectrum over freqs.
func OpticalPower(spectra [][]float64, freqs []float64) float64 {
	return physics.Trapz(total(spectra, len(freqs)), freqs)
}

// ElementPowers integrates each element's spectrum separately.
func ElementPowers(spectra [][]float64, freqs []float64) []float64 {
	out := make([]float64, len(spectra))
	for i, p := range spectra {
		out[i] = physics.Trapz(p, freqs)
	}
	return out
}

func total(spectra [][]float64, n int) []float64 {
	sum := make([]float64, n)
	for _, p := range spectra {
		for k, v := range p {
			sum[k] += v
		}
	}
	return sum
}

// SkyEfficiency returns the efficiency from the element at index i to the
// detector, inclusive of the detector itself.
func SkyEfficiency(st *optics.Stack, i int) []float64 {
	return st.Downstream(i)
}

// DPdT returns the change in detected power per unit CMB temperature,
// given the end-to-end efficiency skyEff from the CMB to the detector.
func DPdT(skyEff, freqs []float64) float64 {
	y := make([]float64, len(freqs))
	for k, f := range freqs {
		y[k] = skyEff[k] * physics.AniPowSpec(f, physics.TCMB, 1)
	}
	return physics.Trapz(y, freqs)
}
