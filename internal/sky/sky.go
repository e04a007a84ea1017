package sky

import (
	"fmt"
	"strings"

	"github.com/san-kum/bolocalc/internal/logging"
	"github.com/san-kum/bolocalc/internal/optics"
	"github.com/san-kum/bolocalc/internal/physics"
)

// SiteSpace is the site name of a space-borne telescope.
const SiteSpace = "Space"

// Sky produces the sky-side elements seen by one telescope.
type Sky struct {
	Site   string
	Atlas  *Atlas
	Custom *Spectrum
	Log    logging.Logger
}

// Observation is one sampled observing condition.
type Observation struct {
	PWV       float64 // mm
	Elevation float64 // deg
}

// InSpace reports whether the sky has no atmosphere.
func (s *Sky) InSpace() bool { return strings.EqualFold(s.Site, SiteSpace) }

// Atmosphere returns the spectrum for obs.
func (s *Sky) Atmosphere(obs Observation) (*Spectrum, error) {
	if s.Custom != nil {
		return s.Custom, nil
	}
	if s.Atlas == nil {
		return nil, fmt.Errorf("%w: site %s has neither an atmosphere file nor a lookup table", ErrNoAtmosphere, s.Site)
	}
	return s.Atlas.Lookup(s.Site, obs.PWV, obs.Elevation, s.Log)
}

// Generate returns the sky stack for obs on freqs: CMB, then the
// foregrounds when fg is non-nil, then the atmosphere.
func (s *Sky) Generate(obs Observation, freqs []float64, fg *Realized) (*optics.Stack, error) {
	st := optics.NewStack()
	st.Append(optics.Uniform("CMB", len(freqs), 1, 1, physics.TCMB))
	if fg != nil {
		st.Append(fg.Synchrotron(freqs), fg.Dust(freqs))
	}
	if s.InSpace() {
		return st, nil
	}
	spec, err := s.Atmosphere(obs)
	if err != nil {
		return nil, err
	}
	temp, trans := spec.OnGrid(freqs)
	atm := optics.Element{
		Name:        "ATM",
		Emissivity:  make([]float64, len(freqs)),
		Efficiency:  trans,
		Temperature: temp,
	}
	for i := range atm.Emissivity {
		atm.Emissivity[i] = 1
	}
	st.Append(atm)
	return st, nil
}
