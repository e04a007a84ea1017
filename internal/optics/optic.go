package optics

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/san-kum/bolocalc/internal/param"
	"github.com/san-kum/bolocalc/internal/physics"
)

// Shape selects the closed-form loss model of an element.
type Shape int

const (
	Dielectric Shape = iota
	Mirror
	ApertureStop
)

func (s Shape) String() string {
	switch s {
	case Mirror:
		return "mirror"
	case ApertureStop:
		return "aperture stop"
	default:
		return "dielectric"
	}
}

// Classify returns the shape implied by an element name.
func Classify(element string) Shape {
	lower := strings.ToLower(element)
	for _, p := range []string{"aperture", "lyot", "stop"} {
		if strings.HasPrefix(lower, p) {
			return ApertureStop
		}
	}
	for _, m := range []string{"mirror", "primary", "secondary"} {
		if strings.Contains(lower, m) {
			return Mirror
		}
	}
	return Dielectric
}

// Optics table columns.
const (
	Temperature   = "Temperature"
	Absorption    = "Absorption"
	Reflection    = "Reflection"
	Thickness     = "Thickness"
	Index         = "Index"
	LossTangent   = "Loss Tangent"
	Conductivity  = "Conductivity"
	SurfaceRough  = "Surface Rough"
	Spillover     = "Spillover"
	SpilloverTemp = "Spillover Temp"
	ScatterFrac   = "Scatter Frac"
	ScatterTemp   = "Scatter Temp"
)

// Specs lists the parameters an optic accepts.
var Specs = []param.Spec{
	param.Positive(Temperature, "K"),
	param.Fraction(Absorption),
	param.Fraction(Reflection),
	param.Positive(Thickness, "mm"),
	{Name: Index, Unit: "NA", Min: 1, Max: math.Inf(1)},
	param.Positive(LossTangent, "1e-4"),
	param.Positive(Conductivity, "1e6 S/m"),
	param.Positive(SurfaceRough, "um RMS"),
	param.Fraction(Spillover),
	param.Positive(SpilloverTemp, "K"),
	param.Fraction(ScatterFrac),
	param.Positive(ScatterTemp, "K"),
}

// SpecFor returns the spec named name.
func SpecFor(name string) (param.Spec, bool) {
	for _, s := range Specs {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return param.Spec{}, false
}

// Optic is one configured optical element.
type Optic struct {
	Element string
	Shape   Shape

	params map[string]*param.Parameter
	bands  map[string]*BandFile
}

// New returns an optic. bands maps band IDs to measured efficiency files;
// the "" key applies to every band.
func New(element string, params map[string]*param.Parameter, bands map[string]*BandFile) *Optic {
	o := &Optic{
		Element: element,
		Shape:   Classify(element),
		params:  make(map[string]*param.Parameter, len(params)),
		bands:   make(map[string]*BandFile, len(bands)),
	}
	for k, v := range params {
		o.params[k] = v
	}
	for k, v := range bands {
		o.bands[k] = v
	}
	return o
}

// Param returns the named parameter, or nil.
func (o *Optic) Param(name string) *param.Parameter { return o.params[name] }

// WithParam returns a copy of o with the named parameter replaced.
func (o *Optic) WithParam(name string, p *param.Parameter) *Optic {
	c := New(o.Element, o.params, o.bands)
	c.params[name] = p
	return c
}

// Band returns the measured band for bandID, if any.
func (o *Optic) Band(bandID string) *BandFile {
	if b, ok := o.bands[bandID]; ok {
		return b
	}
	return o.bands[""]
}

// Context carries the channel quantities an optic depends on.
type Context struct {
	Band        string
	Grid        physics.Grid
	PixelSize   float64 // m
	FNumber     float64
	WaistFactor float64
	Rng         *rand.Rand
	Nominal     bool

	// RngFor, when set, gives each element its own random stream so that
	// changing one optic leaves the draws of the others untouched.
	RngFor func(element string) *rand.Rand
}

func (o *Optic) draw(ctx Context, name string) param.Value {
	return o.params[name].Draw(ctx.Rng, ctx.Band, ctx.Nominal)
}

// Generate samples the optic's parameters once and evaluates its loss
// models on the channel grid.
func (o *Optic) Generate(ctx Context) (Element, error) {
	freqs := ctx.Grid.Freqs
	n := len(freqs)
	temp, ok := o.draw(ctx, Temperature).Get()
	if !ok {
		return Element{}, fmt.Errorf("optic %s: %s is required", o.Element, Temperature)
	}

	abso := make([]float64, n)
	if a, ok := o.draw(ctx, Absorption).Get(); ok {
		fill(abso, a)
	} else {
		switch o.Shape {
		case ApertureStop:
			if ctx.PixelSize > 0 && ctx.FNumber > 0 && ctx.WaistFactor > 0 {
				for i, f := range freqs {
					abso[i] = 1 - physics.SpillEff(f, ctx.PixelSize, ctx.FNumber, ctx.WaistFactor)
				}
			}
		case Mirror:
			if sigma, ok := o.draw(ctx, Conductivity).Get(); ok {
				for i, f := range freqs {
					abso[i] = 1 - physics.OhmicEff(f, sigma)
				}
			}
		default:
			thick, okT := o.draw(ctx, Thickness).Get()
			idx, okI := o.draw(ctx, Index).Get()
			tanD, okL := o.draw(ctx, LossTangent).Get()
			if okT && okI && okL {
				for i, f := range freqs {
					abso[i] = physics.DielectricLoss(f, thick, idx, tanD)
				}
			}
		}
	}

	refl := make([]float64, n)
	fill(refl, o.draw(ctx, Reflection).Or(0))

	spill := make([]float64, n)
	fill(spill, o.draw(ctx, Spillover).Or(0))
	spillTemp := o.draw(ctx, SpilloverTemp).Or(temp)

	scatt := make([]float64, n)
	if s, ok := o.draw(ctx, ScatterFrac).Get(); ok {
		fill(scatt, s)
	} else if rough, ok := o.draw(ctx, SurfaceRough).Get(); ok {
		for i, f := range freqs {
			scatt[i] = 1 - physics.RuzeEff(f, rough)
		}
	}
	scattTemp := o.draw(ctx, ScatterTemp).Or(temp)

	eff := make([]float64, n)
	if b := o.Band(ctx.Band); b != nil {
		eff = b.OnGrid(freqs, ctx.Rng, ctx.Nominal)
		for i := range refl {
			refl[i] = math.Max(0, 1-eff[i]-abso[i])
		}
	} else {
		for i := range eff {
			eff[i] = clamp01(1 - abso[i] - refl[i] - spill[i] - scatt[i])
		}
	}

	el := Element{
		Name:        o.Element,
		Emissivity:  make([]float64, n),
		Efficiency:  eff,
		Temperature: make([]float64, n),
	}
	for i, f := range freqs {
		own := physics.BBPowSpec(f, temp, 1)
		emiss := abso[i]
		if own > 0 {
			emiss += spill[i]*physics.BBPowSpec(f, spillTemp, 1)/own +
				scatt[i]*physics.BBPowSpec(f, scattTemp, 1)/own
		}
		el.Emissivity[i] = emiss
		el.Temperature[i] = temp
	}
	return el, nil
}

func fill(dst []float64, v float64) {
	for i := range dst {
		dst[i] = v
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
