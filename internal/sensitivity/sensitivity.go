// Package sensitivity turns a realized channel into optical power, noise,
// NET, array NET, mapping speed and map depth, and flattens a whole
// realization into a stats.Table.
package sensitivity

import (
	"fmt"
	"math"

	"github.com/san-kum/bolocalc/internal/experiment"
	"github.com/san-kum/bolocalc/internal/noise"
	"github.com/san-kum/bolocalc/internal/stats"
)

const secondsPerYear = 365.25 * 86400

// Options selects optional physics.
type Options struct {
	// Correlations enables correlated photon noise between neighbouring
	// detectors. Nil disables it.
	Correlations *noise.CorrelationTable
}

// Sample is the noise of one detector during one observation.
type Sample struct {
	Popt    float64
	NEPph   float64
	NEPbolo float64
	NEPrd   float64
	NEP     float64
	NET     float64

	// NETcorr is the NET including correlated array photon noise. It
	// equals NET when correlations are disabled.
	NETcorr float64
}

// Detector evaluates one detector during one observation.
func Detector(ch *experiment.ChannelRealization, tel *experiment.TelescopeRealization, obs, det int, opts Options) (Sample, error) {
	st := ch.Stack(obs, det)
	freqs := ch.Grid.Freqs
	spectra := noise.PowerSpectra(st, freqs)

	var s Sample
	s.Popt = noise.OpticalPower(spectra, freqs)
	nepArr := 0.0
	if opts.Correlations != nil {
		w := opts.Correlations.Weights(st.Len(), st.ApertureIndex, noise.Pitch(ch.PixelSize, ch.FNumber, ch.BandCenter))
		s.NEPph, nepArr = noise.PhotonNEPCorrelated(spectra, freqs, w)
	} else {
		s.NEPph = noise.PhotonNEP(spectra, freqs)
		nepArr = s.NEPph
	}

	d := ch.Detectors[det]
	psat, ok := d.Psat.Get()
	if !ok {
		psat = d.PsatFactor.Or(0) * s.Popt
	}
	tc, ok := d.Tc.Get()
	if !ok {
		tc = d.TcFrac.Or(0) * d.BathTemp
	}
	var err error
	s.NEPbolo, err = noise.BolometerNEP(psat, d.CarrierIndex, tc, d.BathTemp)
	if err != nil {
		return Sample{}, err
	}
	s.NEPrd = noise.ReadoutNEP(noise.Readout{
		Popt:     s.Popt,
		Psat:     psat,
		NEI:      d.SquidNEI,
		BoloR:    d.BoloR,
		ReadFrac: d.ReadNoiseFrac,
		NEPph:    s.NEPph,
		NEPbolo:  s.NEPbolo,
	})
	s.NEP = noise.TotalNEP(s.NEPph, s.NEPbolo, s.NEPrd)

	dpdt := noise.DPdT(st.Downstream(0), freqs)
	margin := tel.NETMargin
	if margin == 0 {
		margin = 1
	}
	s.NET = noise.NETFromNEP(s.NEP, dpdt) * margin
	s.NETcorr = noise.NETFromNEP(noise.TotalNEP(nepArr, s.NEPbolo, s.NEPrd), dpdt) * margin
	return s, nil
}

// ArrayNET combines per-detector NETs by inverse variance and scales the
// simulated subsample to the full array under the yield assumption.
func ArrayNET(nets []float64, numDet, yield float64) float64 {
	w := 0.0
	for _, n := range nets {
		w += 1 / (n * n)
	}
	if w == 0 || numDet*yield <= 0 {
		return math.Inf(1)
	}
	return math.Sqrt(float64(len(nets))/(yield*numDet)) / math.Sqrt(w)
}

// MappingSpeed returns 1/NETarr^2.
func MappingSpeed(netArr float64) float64 {
	return 1 / (netArr * netArr)
}

// MapDepth returns the survey depth [K arcmin] of an array with NET
// netArr observing a sky fraction fsky for obsTime seconds.
func MapDepth(netArr, fsky, obsTime float64) float64 {
	return math.Sqrt(4*math.Pi*fsky*2*netArr*netArr/obsTime) * (10800 / math.Pi)
}

// Channel evaluates every detector and observation of a channel and
// returns its row for one realization.
func Channel(ch *experiment.ChannelRealization, tel *experiment.TelescopeRealization, opts Options) (stats.Row, error) {
	nobs, ndet := len(ch.Sky), len(ch.Detectors)
	n := nobs * ndet
	cols := map[stats.Column][]float64{}
	var netArr, ms, depth []float64
	obsTime := tel.ObsTime * secondsPerYear * tel.ObsEfficiency

	for o := 0; o < nobs; o++ {
		corr := make([]float64, ndet)
		for d := 0; d < ndet; d++ {
			s, err := Detector(ch, tel, o, d, opts)
			if err != nil {
				return stats.Row{}, fmt.Errorf("%s/%s/%s: %w", ch.Telescope, ch.Camera, ch.BandID, err)
			}
			cols[stats.Popt] = append(cols[stats.Popt], s.Popt)
			cols[stats.NEPph] = append(cols[stats.NEPph], s.NEPph)
			cols[stats.NEPbolo] = append(cols[stats.NEPbolo], s.NEPbolo)
			cols[stats.NEPrd] = append(cols[stats.NEPrd], s.NEPrd)
			cols[stats.NEP] = append(cols[stats.NEP], s.NEP)
			cols[stats.NET] = append(cols[stats.NET], s.NET)
			corr[d] = s.NETcorr
		}
		na := ArrayNET(corr, ch.NumDet, ch.Yield)
		netArr = append(netArr, na)
		ms = append(ms, MappingSpeed(na))
		depth = append(depth, MapDepth(na, tel.SkyFraction, obsTime))
	}

	row := stats.Row{Key: stats.Key{Telescope: ch.Telescope, Camera: ch.Camera, Channel: ch.BandID}}
	row.Values[stats.Frequency] = stats.Estimate{Mean: ch.BandCenter}
	row.Values[stats.FracBW] = stats.Estimate{Mean: ch.FractionalBW}
	row.Values[stats.NumDet] = stats.Estimate{Mean: ch.NumDet}
	row.Values[stats.StopEff] = stats.Estimate{Mean: ch.StopEfficiency}
	for c, xs := range cols {
		if len(xs) != n {
			return stats.Row{}, fmt.Errorf("%s: %d samples of %v, want %d", row.Key, len(xs), c, n)
		}
		row.Values[c] = stats.Within(xs)
	}
	row.Values[stats.NETarr] = stats.Within(netArr)
	row.Values[stats.MappingSpeed] = stats.Within(ms)
	row.Values[stats.MapDepth] = stats.Within(depth)
	return row, nil
}

// Calculate evaluates every channel of a realization.
func Calculate(r *experiment.Realization, opts Options) (*stats.Table, error) {
	t := stats.NewTable()
	for _, tel := range r.Telescopes {
		for _, cam := range tel.Cameras {
			for _, ch := range cam.Channels {
				row, err := Channel(ch, tel, opts)
				if err != nil {
					return nil, err
				}
				t.Add(row)
			}
		}
	}
	return t, nil
}
