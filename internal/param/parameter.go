package param

import (
	"fmt"
	"math"
	"math/rand"
)

type Kind int

const (
	KindEmpty Kind = iota
	KindFixed
	KindSpread
	KindDist
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindSpread:
		return "spread"
	case KindDist:
		return "distribution"
	default:
		return "empty"
	}
}

// Entry is one value of a parameter: scalar, or for one band.
type Entry struct {
	Kind Kind
	Avg  float64
	Std  float64
	Dist *Distribution
}

// Empty is the "NA" entry.
var Empty = Entry{Kind: KindEmpty}

// FixedEntry returns a KindFixed entry.
func FixedEntry(v float64) Entry { return Entry{Kind: KindFixed, Avg: v} }

// SpreadEntry returns a KindSpread entry, or KindFixed when std is zero.
func SpreadEntry(avg, std float64) Entry {
	if std == 0 {
		return FixedEntry(avg)
	}
	return Entry{Kind: KindSpread, Avg: avg, Std: math.Abs(std)}
}

// DistEntry returns a KindDist entry.
func DistEntry(d *Distribution) Entry {
	return Entry{Kind: KindDist, Avg: d.Mean(), Std: d.Std(), Dist: d}
}

// Spec describes an allowed parameter: name, display unit and range.
type Spec struct {
	Name string
	Unit string
	Min  float64
	Max  float64
}

// Unbounded returns a spec with no range limits.
func Unbounded(name, unit string) Spec {
	return Spec{Name: name, Unit: unit, Min: math.Inf(-1), Max: math.Inf(1)}
}

// Positive returns a spec bounded below by zero.
func Positive(name, unit string) Spec {
	return Spec{Name: name, Unit: unit, Min: 0, Max: math.Inf(1)}
}

// Fraction returns a spec bounded to [0, 1].
func Fraction(name string) Spec {
	return Spec{Name: name, Unit: "NA", Min: 0, Max: 1}
}

// Parameter is one configuration value, scalar or per band.
type Parameter struct {
	Name string
	Unit Unit
	Min  float64
	Max  float64

	scalar  Entry
	bands   []string
	perBand []Entry
}

// New validates e against spec and returns a scalar parameter.
func New(spec Spec, e Entry) (*Parameter, error) {
	u, err := LookupUnit(spec.Unit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}
	p := &Parameter{Name: spec.Name, Unit: u, Min: spec.Min, Max: spec.Max, scalar: e}
	if err := p.check(e); err != nil {
		return nil, err
	}
	return p, nil
}

// NewVector returns a parameter with one entry per band ID.
func NewVector(spec Spec, bands []string, entries []Entry) (*Parameter, error) {
	if len(bands) != len(entries) {
		return nil, fmt.Errorf("%w: %s has %d entries for %d bands", ErrMalformed, spec.Name, len(entries), len(bands))
	}
	p, err := New(spec, Empty)
	if err != nil {
		return nil, err
	}
	p.bands = append([]string(nil), bands...)
	p.perBand = append([]Entry(nil), entries...)
	for _, e := range entries {
		if err := p.check(e); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// MustNew is New for values known to be valid.
func MustNew(spec Spec, e Entry) *Parameter {
	p, err := New(spec, e)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Parameter) check(e Entry) error {
	if e.Kind == KindEmpty {
		return nil
	}
	if e.Avg < p.Min || e.Avg > p.Max {
		return fmt.Errorf("%w: %s = %g %s, allowed [%g, %g]", ErrOutOfRange, p.Name, e.Avg, p.Unit.Name, p.Min, p.Max)
	}
	return nil
}

// PerBand reports whether the parameter holds one entry per band.
func (p *Parameter) PerBand() bool { return p.perBand != nil }

// Bands returns the band IDs of a per-band parameter.
func (p *Parameter) Bands() []string { return append([]string(nil), p.bands...) }

// Entry returns the entry for band. Scalar parameters ignore band.
func (p *Parameter) Entry(band string) (Entry, error) {
	if p == nil {
		return Empty, nil
	}
	if p.perBand == nil {
		return p.scalar, nil
	}
	for i, b := range p.bands {
		if b == band {
			return p.perBand[i], nil
		}
	}
	return Empty, fmt.Errorf("%w: %s has no entry for band %q", ErrNoBand, p.Name, band)
}

func (p *Parameter) entry(band string) Entry {
	e, err := p.Entry(band)
	if err != nil {
		return Empty
	}
	return e
}

// Kind returns the kind of the entry for band.
func (p *Parameter) Kind(band string) Kind { return p.entry(band).Kind }

func (p *Parameter) IsEmpty(band string) bool { return p.Kind(band) == KindEmpty }

// Nominal returns the SI average without sampling.
func (p *Parameter) Nominal(band string) Value {
	e := p.entry(band)
	if e.Kind == KindEmpty {
		return Unset
	}
	return Set(p.Unit.ToSI(e.Avg))
}

// SpreadOf returns the SI standard deviation without sampling.
func (p *Parameter) SpreadOf(band string) float64 {
	e := p.entry(band)
	switch e.Kind {
	case KindSpread:
		return p.Unit.ToSI(e.Std)
	case KindDist:
		return p.Unit.ToSI(e.Dist.Std())
	default:
		return 0
	}
}

// Sample returns n SI draws for band. Spread draws outside [Min, Max]
// are clamped to the violated bound. Empty parameters return nil.
func (p *Parameter) Sample(rng *rand.Rand, band string, n int) []float64 {
	e := p.entry(band)
	var out []float64
	switch e.Kind {
	case KindEmpty:
		return nil
	case KindFixed:
		out = make([]float64, n)
		for i := range out {
			out[i] = e.Avg
		}
	case KindSpread:
		out = make([]float64, n)
		for i := range out {
			out[i] = clamp(e.Avg+e.Std*rng.NormFloat64(), p.Min, p.Max)
		}
	case KindDist:
		out = e.Dist.Sample(rng, n)
	}
	for i := range out {
		out[i] = p.Unit.ToSI(out[i])
	}
	return out
}

// Draw returns one SI draw for band as a Value. When nominal is true the
// average is returned and rng is not consumed.
func (p *Parameter) Draw(rng *rand.Rand, band string, nominal bool) Value {
	if p == nil || p.IsEmpty(band) {
		return Unset
	}
	if nominal {
		return p.Nominal(band)
	}
	return Set(p.Sample(rng, band, 1)[0])
}

// Change returns a copy whose entry for band has average v (display
// units). The standard deviation of a spread entry is kept; a
// distribution entry becomes fixed. An empty band applies v to every band.
func (p *Parameter) Change(v float64, band string) (*Parameter, error) {
	c := p.clone()
	apply := func(e Entry) (Entry, error) {
		var n Entry
		switch e.Kind {
		case KindSpread:
			n = SpreadEntry(v, e.Std)
		default:
			n = FixedEntry(v)
		}
		return n, c.check(n)
	}
	if c.perBand == nil {
		e, err := apply(c.scalar)
		if err != nil {
			return nil, err
		}
		c.scalar = e
		return c, nil
	}
	matched := false
	for i, b := range c.bands {
		if band != "" && b != band {
			continue
		}
		e, err := apply(c.perBand[i])
		if err != nil {
			return nil, err
		}
		c.perBand[i] = e
		matched = true
	}
	if !matched {
		return nil, fmt.Errorf("%w: %s has no entry for band %q", ErrNoBand, p.Name, band)
	}
	return c, nil
}

// Expand returns a per-band copy of a scalar parameter with its entry
// repeated for every band. Per-band parameters are returned unchanged.
func (p *Parameter) Expand(bands []string) (*Parameter, error) {
	if p.perBand != nil {
		return p, nil
	}
	entries := make([]Entry, len(bands))
	for i := range entries {
		entries[i] = p.scalar
	}
	spec := Spec{Name: p.Name, Unit: p.Unit.Name, Min: p.Min, Max: p.Max}
	return NewVector(spec, bands, entries)
}

// Convolve returns the product of two efficiency-like scalar parameters.
// Relative uncertainties combine in quadrature.
func (p *Parameter) Convolve(o *Parameter, band string) (*Parameter, error) {
	a, b := p.entry(band), o.entry(band)
	if a.Kind == KindEmpty {
		return o.clone(), nil
	}
	if b.Kind == KindEmpty {
		return p.clone(), nil
	}
	avg := a.Avg * b.Avg
	rel := 0.0
	if a.Avg != 0 {
		rel += (a.Std / a.Avg) * (a.Std / a.Avg)
	}
	if b.Avg != 0 {
		rel += (b.Std / b.Avg) * (b.Std / b.Avg)
	}
	spec := Spec{Name: p.Name, Unit: p.Unit.Name, Min: p.Min, Max: p.Max}
	return New(spec, SpreadEntry(avg, math.Abs(avg)*math.Sqrt(rel)))
}

func (p *Parameter) clone() *Parameter {
	c := *p
	c.bands = append([]string(nil), p.bands...)
	if p.perBand != nil {
		c.perBand = append([]Entry(nil), p.perBand...)
	}
	return &c
}

func (p *Parameter) String() string {
	e := p.scalar
	if p.perBand != nil && len(p.perBand) > 0 {
		e = p.perBand[0]
	}
	switch e.Kind {
	case KindFixed:
		return fmt.Sprintf("%s = %g %s", p.Name, e.Avg, p.Unit.Name)
	case KindSpread:
		return fmt.Sprintf("%s = %g +/- %g %s", p.Name, e.Avg, e.Std, p.Unit.Name)
	case KindDist:
		return fmt.Sprintf("%s = PDF(mean %g) %s", p.Name, e.Dist.Mean(), p.Unit.Name)
	default:
		return p.Name + " = NA"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
