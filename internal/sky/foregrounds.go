package sky

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/bolocalc/internal/optics"
	"github.com/san-kum/bolocalc/internal/param"
	"github.com/san-kum/bolocalc/internal/physics"
)

// Foreground parameter names as they appear in foregrounds.txt.
const (
	DustTemperature = "Dust Temperature"
	DustSpecIndex   = "Dust Spec Index"
	DustAmplitude   = "Dust Amplitude"
	DustScaleFreq   = "Dust Scale Frequency"
	SyncSpecIndex   = "Synchrotron Spec Index"
	SyncAmplitude   = "Synchrotron Amplitude"
	SyncScaleFreq   = "Sync Scale Frequency"
)

// ForegroundSpecs lists the foreground parameters with their defaults.
var ForegroundSpecs = []struct {
	Spec    param.Spec
	Default float64
}{
	{param.Positive(DustTemperature, "K"), 19.7},
	{param.Unbounded(DustSpecIndex, "NA"), 1.5},
	{param.Positive(DustAmplitude, "NA"), 1.2e-6},
	{param.Positive(DustScaleFreq, "GHz"), 353},
	{param.Unbounded(SyncSpecIndex, "NA"), -3.0},
	{param.Positive(SyncAmplitude, "K_RJ"), 2.0e-5},
	{param.Positive(SyncScaleFreq, "GHz"), 30},
}

// ForegroundSpec returns the spec of a foreground parameter.
func ForegroundSpec(name string) (param.Spec, bool) {
	for _, fs := range ForegroundSpecs {
		if fs.Spec.Name == name {
			return fs.Spec, true
		}
	}
	return param.Spec{}, false
}

// Foregrounds holds the synchrotron and dust model parameters.
type Foregrounds struct {
	params map[string]*param.Parameter
}

// NewForegrounds returns foregrounds using params, falling back to the
// default of any parameter not given or given as NA.
func NewForegrounds(params map[string]*param.Parameter) (*Foregrounds, error) {
	f := &Foregrounds{params: make(map[string]*param.Parameter, len(ForegroundSpecs))}
	for _, fs := range ForegroundSpecs {
		p, ok := params[fs.Spec.Name]
		if !ok || p.IsEmpty("") {
			var err error
			p, err = param.New(fs.Spec, param.FixedEntry(fs.Default))
			if err != nil {
				return nil, err
			}
		}
		f.params[fs.Spec.Name] = p
	}
	for name := range params {
		if _, ok := ForegroundSpec(name); !ok {
			return nil, fmt.Errorf("%w: foreground parameter %q", param.ErrMalformed, name)
		}
	}
	return f, nil
}

// Param returns the named parameter.
func (f *Foregrounds) Param(name string) *param.Parameter { return f.params[name] }

// With returns a copy with one parameter replaced.
func (f *Foregrounds) With(name string, p *param.Parameter) *Foregrounds {
	c := &Foregrounds{params: make(map[string]*param.Parameter, len(f.params))}
	for k, v := range f.params {
		c.params[k] = v
	}
	c.params[name] = p
	return c
}

// Realized is one draw of the foreground model.
type Realized struct {
	DustTemp  float64 // K
	DustIndex float64
	DustAmp   float64
	DustFreq  float64 // Hz
	SyncIndex float64
	SyncAmp   float64 // K_RJ
	SyncFreq  float64 // Hz
}

// Realize draws every foreground parameter once.
func (f *Foregrounds) Realize(rng *rand.Rand, nominal bool) Realized {
	d := func(name string) float64 {
		return f.params[name].Draw(rng, "", nominal).Or(0)
	}
	return Realized{
		DustTemp:  d(DustTemperature),
		DustIndex: d(DustSpecIndex),
		DustAmp:   d(DustAmplitude),
		DustFreq:  d(DustScaleFreq),
		SyncIndex: d(SyncSpecIndex),
		SyncAmp:   d(SyncAmplitude),
		SyncFreq:  d(SyncScaleFreq),
	}
}

// Synchrotron returns the synchrotron element: a unit-emissivity source
// at the Planck temperature equivalent of its power-law brightness.
func (r Realized) Synchrotron(freqs []float64) optics.Element {
	el := optics.Uniform("Synchrotron", len(freqs), 1, 1, 0)
	for i, f := range freqs {
		trj := r.SyncAmp * math.Pow(f/r.SyncFreq, r.SyncIndex)
		el.Temperature[i] = physics.PlanckTemp(f, trj)
	}
	return el
}

// Dust returns the grey-body dust element.
func (r Realized) Dust(freqs []float64) optics.Element {
	el := optics.Uniform("Dust", len(freqs), 0, 1, r.DustTemp)
	for i, f := range freqs {
		el.Emissivity[i] = math.Min(1, r.DustAmp*math.Pow(f/r.DustFreq, r.DustIndex))
	}
	return el
}
