package experiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/bolocalc/internal/optics"
	"github.com/san-kum/bolocalc/internal/param"
	"github.com/san-kum/bolocalc/internal/sky"
)

// Level is a depth in the configuration tree.
type Level int

const (
	LevelExperiment Level = iota
	LevelTelescope
	LevelCamera
	LevelChannel
	LevelOptic
)

func (l Level) String() string {
	switch l {
	case LevelTelescope:
		return "telescope"
	case LevelCamera:
		return "camera"
	case LevelChannel:
		return "channel"
	case LevelOptic:
		return "optic"
	default:
		return "experiment"
	}
}

// Field is one parameter a level accepts.
type Field struct {
	Spec       param.Spec
	Required   bool
	Default    float64
	HasDefault bool
}

func req(s param.Spec) Field            { return Field{Spec: s, Required: true} }
func opt(s param.Spec) Field            { return Field{Spec: s} }
func def(s param.Spec, v float64) Field { return Field{Spec: s, Default: v, HasDefault: true} }

func bounded(name, unit string, lo, hi float64) param.Spec {
	return param.Spec{Name: name, Unit: unit, Min: lo, Max: hi}
}

// Telescope parameters.
const (
	Elevation     = "Elevation"
	PWV           = "PWV"
	ObsTime       = "Observation Time"
	SkyFraction   = "Sky Fraction"
	ObsEfficiency = "Observation Efficiency"
	NETMargin     = "NET Margin"

	Site           = "Site"
	AtmosphereFile = "Atmosphere File"
)

// Camera parameters.
const (
	BoresightElevation = "Boresight Elevation"
	OpticalCoupling    = "Optical Coupling"
	FNumber            = "F Number"
	BathTemp           = "Bath Temp"
)

// Channel parameters.
const (
	BandID         = "Band ID"
	PixelID        = "Pixel ID"
	BandCenter     = "Band Center"
	FractionalBW   = "Fractional BW"
	PixelSize      = "Pixel Size"
	NumDetPerWafer = "Num Det per Wafer"
	NumWafPerOT    = "Num Waf per OT"
	NumOT          = "Num OT"
	WaistFactor    = "Waist Factor"
	DetEff         = "Det Eff"
	Psat           = "Psat"
	PsatFactor     = "Psat Factor"
	CarrierIndex   = "Carrier Index"
	Tc             = "Tc"
	TcFrac         = "Tc Frac"
	SquidNEI       = "SQUID NEI"
	BoloR          = "Bolo Resistance"
	ReadNoiseFrac  = "Read Noise Frac"
	Yield          = "Yield"
)

// Registry maps every level to the parameters it accepts.
type Registry struct {
	fields map[Level][]Field
}

// NewRegistry returns the parameter schema of every level.
func NewRegistry() *Registry {
	r := &Registry{fields: make(map[Level][]Field)}

	for _, fs := range sky.ForegroundSpecs {
		r.fields[LevelExperiment] = append(r.fields[LevelExperiment], def(fs.Spec, fs.Default))
	}

	r.fields[LevelTelescope] = []Field{
		opt(bounded(Elevation, "deg", 0, 90)),
		opt(param.Positive(PWV, "mm")),
		req(param.Positive(ObsTime, "years")),
		req(param.Fraction(SkyFraction)),
		req(param.Fraction(ObsEfficiency)),
		def(param.Positive(NETMargin, "NA"), 1),
	}

	r.fields[LevelCamera] = []Field{
		def(bounded(BoresightElevation, "deg", -90, 90), 0),
		def(param.Fraction(OpticalCoupling), 1),
		req(param.Positive(FNumber, "NA")),
		req(param.Positive(BathTemp, "K")),
	}

	r.fields[LevelChannel] = []Field{
		opt(param.Positive(BandCenter, "GHz")),
		req(bounded(FractionalBW, "NA", 0, 2)),
		req(param.Positive(PixelSize, "mm")),
		req(param.Positive(NumDetPerWafer, "NA")),
		def(param.Positive(NumWafPerOT, "NA"), 1),
		def(param.Positive(NumOT, "NA"), 1),
		def(param.Positive(WaistFactor, "NA"), 3),
		opt(param.Fraction(DetEff)),
		opt(param.Positive(Psat, "pW")),
		opt(param.Positive(PsatFactor, "NA")),
		def(param.Positive(CarrierIndex, "NA"), 3),
		opt(param.Positive(Tc, "K")),
		opt(param.Positive(TcFrac, "NA")),
		opt(param.Positive(SquidNEI, "pA/rtHz")),
		opt(param.Positive(BoloR, "Ohm")),
		opt(param.Positive(ReadNoiseFrac, "NA")),
		def(param.Fraction(Yield), 1),
	}

	for _, s := range optics.Specs {
		r.fields[LevelOptic] = append(r.fields[LevelOptic], opt(s))
	}
	return r
}

// Fields returns the parameters of level in declaration order.
func (r *Registry) Fields(level Level) []Field {
	return append([]Field(nil), r.fields[level]...)
}

// Field returns the named parameter of level.
func (r *Registry) Field(level Level, name string) (Field, bool) {
	for _, f := range r.fields[level] {
		if strings.EqualFold(f.Spec.Name, name) {
			return f, true
		}
	}
	return Field{}, false
}

// LevelOf returns the deepest non-optic level owning name.
func (r *Registry) LevelOf(name string) (Level, error) {
	for _, l := range []Level{LevelChannel, LevelCamera, LevelTelescope, LevelExperiment} {
		if _, ok := r.Field(l, name); ok {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}

// Names lists every parameter name of level, sorted.
func (r *Registry) Names(level Level) []string {
	names := make([]string, 0, len(r.fields[level]))
	for _, f := range r.fields[level] {
		names = append(names, f.Spec.Name)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry is shared by the loader and overlays; it is read-only.
var defaultRegistry = NewRegistry()

// Schema returns the shared parameter registry.
func Schema() *Registry { return defaultRegistry }
