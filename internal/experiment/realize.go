package experiment

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"github.com/san-kum/bolocalc/internal/logging"
	"github.com/san-kum/bolocalc/internal/optics"
	"github.com/san-kum/bolocalc/internal/param"
	"github.com/san-kum/bolocalc/internal/physics"
	"github.com/san-kum/bolocalc/internal/sky"
)

// Options controls how a realization is drawn.
type Options struct {
	Observations int
	Detectors    int
	Resolution   float64 // Hz
	Foregrounds  bool

	// Nominal draws every parameter at its average.
	Nominal bool

	Atlas *sky.Atlas
	Log   logging.Logger
}

func (o Options) withDefaults() Options {
	if o.Observations < 1 {
		o.Observations = 1
	}
	if o.Detectors < 1 {
		o.Detectors = 1
	}
	if o.Resolution <= 0 {
		o.Resolution = 0.1e9
	}
	if o.Log == nil {
		o.Log = logging.Discard
	}
	return o
}

// Realization is one Monte Carlo draw of the whole instrument. It is
// read-only once built.
type Realization struct {
	Index       int
	Seed        int64
	Nominal     bool
	Foregrounds *sky.Realized
	Telescopes  []*TelescopeRealization

	def *Experiment
}

// TelescopeRealization holds the sampled telescope values and its
// observing conditions.
type TelescopeRealization struct {
	Name          string
	Sky           *sky.Sky
	Observations  []sky.Observation
	ObsTime       float64 // years
	SkyFraction   float64
	ObsEfficiency float64
	NETMargin     float64
	Cameras       []*CameraRealization

	def *Telescope
}

// CameraRealization holds the sampled camera values.
type CameraRealization struct {
	Name            string
	Boresight       float64 // deg
	OpticalCoupling float64
	FNumber         float64
	BathTemp        float64 // K
	Channels        []*ChannelRealization

	def *Camera
}

// ChannelRealization is one channel with its stacks and detectors.
type ChannelRealization struct {
	Telescope string
	Camera    string
	BandID    string
	PixelID   string

	Grid           physics.Grid
	BandCenter     float64 // Hz
	FractionalBW   float64
	PixelSize      float64 // m
	WaistFactor    float64
	FNumber        float64
	NumDet         float64
	Yield          float64
	StopEfficiency float64

	// Sky has one stack per observation.
	Sky       []*optics.Stack
	Optics    *optics.Stack
	Detectors []*Detector

	def *Channel
}

// Detector is one simulated detector. Unset values follow the derived
// policies of the noise model.
type Detector struct {
	Element       optics.Element
	Psat          param.Value // W
	PsatFactor    param.Value
	CarrierIndex  float64
	Tc            param.Value // K
	TcFrac        param.Value
	SquidNEI      param.Value // A/rtHz
	BoloR         param.Value // Ohm
	ReadNoiseFrac param.Value
	BathTemp      float64 // K
}

// Stack returns the full sky-to-detector stack for one observation and
// detector.
func (c *ChannelRealization) Stack(obs, det int) *optics.Stack {
	st := optics.NewStack()
	st.AppendStack(c.Sky[obs])
	st.AppendStack(c.Optics)
	st.Append(c.Detectors[det].Element)
	return st
}

// Channels returns every channel realization in tree order.
func (r *Realization) Channels() []*ChannelRealization {
	var out []*ChannelRealization
	for _, t := range r.Telescopes {
		for _, c := range t.Cameras {
			out = append(out, c.Channels...)
		}
	}
	return out
}

// Telescope returns the named telescope realization, or nil.
func (r *Realization) Telescope(name string) *TelescopeRealization {
	for _, t := range r.Telescopes {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Realize draws realization index of e with the given seed.
func Realize(e *Experiment, index int, seed int64, opts Options) (*Realization, error) {
	return realize(e, index, seed, opts.withDefaults(), nil)
}

// Regenerate redraws r for the modified experiment e, reusing every node
// whose configuration and ancestors are unchanged. Seeds are taken from r,
// so untouched draws are identical.
func (r *Realization) Regenerate(e *Experiment, opts Options) (*Realization, error) {
	return realize(e, r.Index, r.Seed, opts.withDefaults(), r)
}

func realize(e *Experiment, index int, seed int64, opts Options, base *Realization) (*Realization, error) {
	r := &Realization{Index: index, Seed: seed, Nominal: opts.Nominal, def: e}
	same := base != nil && base.def.Foregrounds == e.Foregrounds
	if opts.Foregrounds {
		if same {
			r.Foregrounds = base.Foregrounds
		} else {
			fg := e.Foregrounds.Realize(nodeRNG(seed, "foregrounds"), opts.Nominal)
			r.Foregrounds = &fg
		}
	}
	for _, t := range e.Telescopes {
		var bt *TelescopeRealization
		if same {
			bt = base.Telescope(t.Name)
		}
		tr, err := realizeTelescope(t, bt, r, opts)
		if err != nil {
			return nil, err
		}
		r.Telescopes = append(r.Telescopes, tr)
	}
	return r, nil
}

func realizeTelescope(t *Telescope, base *TelescopeRealization, r *Realization, opts Options) (*TelescopeRealization, error) {
	if base != nil && base.def == t {
		return base, nil
	}
	same := base != nil && base.def.conf == t.conf
	var tr *TelescopeRealization
	if same {
		c := *base
		c.Cameras = nil
		c.def = t
		tr = &c
	} else {
		var err error
		if tr, err = drawTelescope(t, r.Seed, opts); err != nil {
			return nil, err
		}
	}
	for _, cam := range t.Cameras {
		var bc *CameraRealization
		if same {
			bc = base.camera(cam.Name)
		}
		cr, err := realizeCamera(cam, bc, tr, r, opts)
		if err != nil {
			return nil, err
		}
		tr.Cameras = append(tr.Cameras, cr)
	}
	return tr, nil
}

func (t *TelescopeRealization) camera(name string) *CameraRealization {
	for _, c := range t.Cameras {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (c *CameraRealization) channel(bandID string) *ChannelRealization {
	for _, ch := range c.Channels {
		if ch.BandID == bandID {
			return ch
		}
	}
	return nil
}

func drawTelescope(t *Telescope, seed int64, opts Options) (*TelescopeRealization, error) {
	rng := nodeRNG(seed, t.Name)
	draw := func(name string) float64 {
		return t.Param(name).Draw(rng, "", opts.Nominal).Or(0)
	}
	tr := &TelescopeRealization{
		Name:          t.Name,
		ObsTime:       draw(ObsTime),
		SkyFraction:   draw(SkyFraction),
		ObsEfficiency: draw(ObsEfficiency),
		NETMargin:     draw(NETMargin),
		Sky: &sky.Sky{
			Site:   t.Site(),
			Atlas:  opts.Atlas,
			Custom: t.conf.atmosphere,
			Log:    opts.Log,
		},
		def: t,
	}
	pwv, elev := t.Param(PWV), t.Param(Elevation)
	obsRng := nodeRNG(seed, t.Name, "observations")
	for i := 0; i < opts.Observations; i++ {
		tr.Observations = append(tr.Observations, sky.Observation{
			PWV:       pwv.Unit.FromSI(pwv.Draw(obsRng, "", opts.Nominal).Or(0)),
			Elevation: elev.Unit.FromSI(elev.Draw(obsRng, "", opts.Nominal).Or(0)),
		})
	}
	logging.Logf(opts.Log, logging.Trace, "seed %d: telescope %s drawn", seed, t.Name)
	return tr, nil
}

func realizeCamera(cam *Camera, base *CameraRealization, tr *TelescopeRealization, r *Realization, opts Options) (*CameraRealization, error) {
	if base != nil && base.def == cam {
		return base, nil
	}
	same := base != nil && base.def.conf == cam.conf
	var cr *CameraRealization
	if same {
		c := *base
		c.Channels = nil
		c.def = cam
		cr = &c
	} else {
		rng := nodeRNG(r.Seed, tr.Name, cam.Name)
		draw := func(name string) float64 {
			return cam.Param(name).Draw(rng, "", opts.Nominal).Or(0)
		}
		cr = &CameraRealization{
			Name:            cam.Name,
			Boresight:       cam.Param(BoresightElevation).Unit.FromSI(draw(BoresightElevation)),
			OpticalCoupling: draw(OpticalCoupling),
			FNumber:         draw(FNumber),
			BathTemp:        draw(BathTemp),
			def:             cam,
		}
	}
	for _, ch := range cam.Channels {
		if same {
			if bch := base.channel(ch.BandID); bch != nil && bch.def == ch {
				cr.Channels = append(cr.Channels, bch)
				continue
			}
		}
		chr, err := realizeChannel(ch, cam, cr, tr, r, opts)
		if err != nil {
			return nil, fmt.Errorf("%s/%s/%s: %w", tr.Name, cam.Name, ch.BandID, err)
		}
		cr.Channels = append(cr.Channels, chr)
	}
	return cr, nil
}

func realizeChannel(ch *Channel, cam *Camera, cr *CameraRealization, tr *TelescopeRealization, r *Realization, opts Options) (*ChannelRealization, error) {
	path := []string{tr.Name, cam.Name, ch.BandID}
	rng := nodeRNG(r.Seed, path...)
	draw := func(name string) float64 {
		return ch.Param(name).Draw(rng, "", opts.Nominal).Or(0)
	}
	c := &ChannelRealization{
		Telescope:    tr.Name,
		Camera:       cam.Name,
		BandID:       ch.BandID,
		PixelID:      ch.PixelID,
		BandCenter:   draw(BandCenter),
		FractionalBW: draw(FractionalBW),
		PixelSize:    draw(PixelSize),
		WaistFactor:  draw(WaistFactor),
		FNumber:      cr.FNumber,
		def:          ch,
	}
	c.NumDet = math.Round(draw(NumDetPerWafer) * draw(NumWafPerOT) * draw(NumOT))
	c.Yield = draw(Yield)

	grid, err := physics.NewGrid(c.BandCenter, c.FractionalBW, opts.Resolution)
	if err != nil {
		return nil, err
	}
	c.Grid = grid

	c.Optics, err = cam.Chain().Generate(optics.Context{
		Band:        ch.BandID,
		Grid:        grid,
		PixelSize:   c.PixelSize,
		FNumber:     cr.FNumber,
		WaistFactor: c.WaistFactor,
		Nominal:     opts.Nominal,
		RngFor: func(element string) *rand.Rand {
			return nodeRNG(r.Seed, append(path, "optic", element)...)
		},
	})
	if err != nil {
		return nil, err
	}
	c.StopEfficiency = stopEfficiency(c)

	for _, obs := range tr.Observations {
		obs.Elevation += cr.Boresight
		st, err := tr.Sky.Generate(obs, grid.Freqs, r.Foregrounds)
		if err != nil {
			return nil, err
		}
		c.Sky = append(c.Sky, st)
	}

	eff, err := ch.Param(DetEff).Convolve(cam.Param(OpticalCoupling), "")
	if err != nil {
		return nil, err
	}
	for d := 0; d < opts.Detectors; d++ {
		drng := nodeRNG(r.Seed, append(path, "det", strconv.Itoa(d))...)
		dv := func(name string) param.Value {
			return ch.Param(name).Draw(drng, "", opts.Nominal)
		}
		var band []float64
		if ch.Band != nil {
			band = ch.Band.OnGrid(grid.Freqs, drng, opts.Nominal)
			coupling := cam.Param(OpticalCoupling).Draw(drng, "", opts.Nominal).Or(1)
			for i := range band {
				band[i] *= coupling
			}
		} else {
			band = grid.TopHat(eff.Draw(drng, "", opts.Nominal).Or(0))
		}
		el := optics.Uniform("Detector", len(grid.Freqs), 0, 0, cr.BathTemp)
		el.Efficiency = band
		c.Detectors = append(c.Detectors, &Detector{
			Element:       el,
			Psat:          dv(Psat),
			PsatFactor:    dv(PsatFactor),
			CarrierIndex:  dv(CarrierIndex).Or(3),
			Tc:            dv(Tc),
			TcFrac:        dv(TcFrac),
			SquidNEI:      dv(SquidNEI),
			BoloR:         dv(BoloR),
			ReadNoiseFrac: dv(ReadNoiseFrac),
			BathTemp:      cr.BathTemp,
		})
	}
	return c, nil
}

// stopEfficiency is the band-averaged efficiency of the aperture stop, or
// the Gaussian-beam spill efficiency when the chain has no stop.
func stopEfficiency(c *ChannelRealization) float64 {
	if i := c.Optics.ApertureIndex; i >= 0 {
		return c.Grid.BandAverage(c.Optics.Elements[i].Efficiency)
	}
	spill := make([]float64, len(c.Grid.Freqs))
	for i, f := range c.Grid.Freqs {
		spill[i] = physics.SpillEff(f, c.PixelSize, c.FNumber, c.WaistFactor)
	}
	return c.Grid.BandAverage(spill)
}
