package experiment

import (
	"fmt"
	"strings"

	"github.com/san-kum/bolocalc/internal/optics"
	"github.com/san-kum/bolocalc/internal/param"
	"github.com/san-kum/bolocalc/internal/table"
)

// Change sets one parameter to Value, in display units, on every entity
// the identity fields match. An empty identity field matches every child
// at that level. A non-empty Optic selects the optic level; Channel then
// restricts the change to that band.
type Change struct {
	Telescope string
	Camera    string
	Channel   string
	Optic     string
	Param     string
	Value     float64
}

func (c Change) String() string {
	path := strings.Join([]string{c.Telescope, c.Camera, c.Channel, c.Optic}, "/")
	return fmt.Sprintf("%s[%s]=%g", path, c.Param, c.Value)
}

// Overlay is an ordered list of changes.
type Overlay []Change

// Apply returns a copy of e with every change of o applied in order.
// e itself is left untouched and unchanged nodes are shared.
func (e *Experiment) Apply(o Overlay) (*Experiment, error) {
	out := e
	for _, c := range o {
		next, err := out.apply(c)
		if err != nil {
			return nil, fmt.Errorf("overlay %s: %w", c, err)
		}
		out = next
	}
	return out, nil
}

func matches(filter, name string) bool {
	return filter == "" || strings.EqualFold(filter, name)
}

func (e *Experiment) apply(c Change) (*Experiment, error) {
	c.Param = table.StripUnit(c.Param)
	level := LevelOptic
	if c.Optic == "" {
		var err error
		if level, err = Schema().LevelOf(c.Param); err != nil {
			return nil, err
		}
	} else if _, ok := Schema().Field(LevelOptic, c.Param); !ok {
		return nil, fmt.Errorf("%w: optic parameter %q", ErrUnknownParameter, c.Param)
	}
	f, _ := Schema().Field(level, c.Param)
	name := f.Spec.Name

	if level == LevelExperiment {
		p, err := e.Foregrounds.Param(name).Change(c.Value, "")
		if err != nil {
			return nil, err
		}
		n := *e
		n.Foregrounds = e.Foregrounds.With(name, p)
		return &n, nil
	}

	n := *e
	n.Telescopes = make([]*Telescope, len(e.Telescopes))
	hit := false
	for i, t := range e.Telescopes {
		n.Telescopes[i] = t
		if !matches(c.Telescope, t.Name) {
			continue
		}
		nt, ok, err := t.apply(c, level, name)
		if err != nil {
			return nil, err
		}
		if ok {
			n.Telescopes[i] = nt
			hit = true
		}
	}
	if !hit {
		return nil, ErrNoMatch
	}
	return &n, nil
}

func (t *Telescope) apply(c Change, level Level, name string) (*Telescope, bool, error) {
	n := *t
	if level == LevelTelescope {
		p, err := t.conf.params.get(name).Change(c.Value, "")
		if err != nil {
			return nil, false, err
		}
		conf := *t.conf
		conf.params = t.conf.params.with(name, p)
		n.conf = &conf
		return &n, true, nil
	}

	n.Cameras = make([]*Camera, len(t.Cameras))
	hit := false
	for i, cam := range t.Cameras {
		n.Cameras[i] = cam
		if !matches(c.Camera, cam.Name) {
			continue
		}
		nc, ok, err := cam.apply(c, level, name)
		if err != nil {
			return nil, false, err
		}
		if ok {
			n.Cameras[i] = nc
			hit = true
		}
	}
	return &n, hit, nil
}

func (cam *Camera) apply(c Change, level Level, name string) (*Camera, bool, error) {
	n := *cam
	switch level {
	case LevelCamera:
		p, err := cam.conf.params.get(name).Change(c.Value, "")
		if err != nil {
			return nil, false, err
		}
		conf := *cam.conf
		conf.params = cam.conf.params.with(name, p)
		n.conf = &conf
		return &n, true, nil

	case LevelOptic:
		o := cam.conf.chain.Find(c.Optic)
		if o == nil {
			return nil, false, nil
		}
		band := ""
		if c.Channel != "" {
			if cam.Channel(c.Channel) == nil {
				return nil, false, nil
			}
			band = cam.Channel(c.Channel).BandID
		}
		p, err := changeOptic(o, name, c.Value, band, cam.BandIDs())
		if err != nil {
			return nil, false, err
		}
		conf := *cam.conf
		conf.chain = cam.conf.chain.With(o.WithParam(name, p))
		n.conf = &conf
		return &n, true, nil
	}

	n.Channels = make([]*Channel, len(cam.Channels))
	hit := false
	for i, ch := range cam.Channels {
		n.Channels[i] = ch
		if !matches(c.Channel, ch.BandID) {
			continue
		}
		p, err := ch.params.get(name).Change(c.Value, "")
		if err != nil {
			return nil, false, err
		}
		nch := *ch
		nch.params = ch.params.with(name, p)
		n.Channels[i] = &nch
		hit = true
	}
	return &n, hit, nil
}

// changeOptic changes one band of an optic parameter, expanding a scalar
// parameter to one entry per band first.
func changeOptic(o *optics.Optic, name string, v float64, band string, bandIDs []string) (*param.Parameter, error) {
	p := o.Param(name)
	if p == nil {
		spec, _ := optics.SpecFor(name)
		var err error
		if p, err = param.New(spec, param.Empty); err != nil {
			return nil, err
		}
	}
	if band != "" && !p.PerBand() {
		var err error
		if p, err = p.Expand(bandIDs); err != nil {
			return nil, err
		}
	}
	return p.Change(v, band)
}
