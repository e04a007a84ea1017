package experiment

import (
	"strings"

	"github.com/san-kum/bolocalc/internal/optics"
	"github.com/san-kum/bolocalc/internal/param"
	"github.com/san-kum/bolocalc/internal/sky"
)

// Experiment is a loaded instrument description. It is never mutated:
// Apply returns a modified copy that shares every untouched node.
type Experiment struct {
	Dir         string
	Foregrounds *sky.Foregrounds
	Telescopes  []*Telescope
}

// Telescope is one telescope and its cameras.
type Telescope struct {
	Name    string
	Dir     string
	Cameras []*Camera

	conf *telescopeConf
}

type telescopeConf struct {
	site       string
	atmosphere *sky.Spectrum
	params     params
}

// Camera is one camera: its optics and channels.
type Camera struct {
	Name     string
	Dir      string
	Channels []*Channel

	conf *cameraConf
}

type cameraConf struct {
	chain  *optics.Chain
	params params
}

// Channel is one row of a camera's channels table.
type Channel struct {
	BandID  string
	PixelID string

	// Band is the measured detector band, or nil for a top hat.
	Band *optics.BandFile

	params params
}

type params map[string]*param.Parameter

func (p params) get(name string) *param.Parameter {
	if v, ok := p[name]; ok {
		return v
	}
	for k, v := range p {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}

func (p params) with(name string, v *param.Parameter) params {
	c := make(params, len(p)+1)
	for k, old := range p {
		c[k] = old
	}
	c[name] = v
	return c
}

// Telescope returns the named telescope, or nil.
func (e *Experiment) Telescope(name string) *Telescope {
	for _, t := range e.Telescopes {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// Channels returns the number of channels across the experiment.
func (e *Experiment) Channels() int {
	n := 0
	for _, t := range e.Telescopes {
		for _, c := range t.Cameras {
			n += len(c.Channels)
		}
	}
	return n
}

// AtlasSites returns the distinct sites whose atmosphere comes from the
// lookup atlas, in telescope order.
func (e *Experiment) AtlasSites() []string {
	var sites []string
	seen := map[string]bool{}
	for _, t := range e.Telescopes {
		key := strings.ToLower(t.Site())
		if t.conf.atmosphere != nil || strings.EqualFold(t.Site(), sky.SiteSpace) || seen[key] {
			continue
		}
		seen[key] = true
		sites = append(sites, t.Site())
	}
	return sites
}

func (t *Telescope) Site() string                       { return t.conf.site }
func (t *Telescope) Param(name string) *param.Parameter { return t.conf.params.get(name) }

// Camera returns the named camera, or nil.
func (t *Telescope) Camera(name string) *Camera {
	for _, c := range t.Cameras {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

func (c *Camera) Param(name string) *param.Parameter { return c.conf.params.get(name) }
func (c *Camera) Chain() *optics.Chain               { return c.conf.chain }

// BandIDs returns the camera's band IDs in table order.
func (c *Camera) BandIDs() []string {
	ids := make([]string, len(c.Channels))
	for i, ch := range c.Channels {
		ids[i] = ch.BandID
	}
	return ids
}

// Channel returns the channel with the given band ID, or nil.
func (c *Camera) Channel(bandID string) *Channel {
	for _, ch := range c.Channels {
		if strings.EqualFold(ch.BandID, bandID) {
			return ch
		}
	}
	return nil
}

func (ch *Channel) Param(name string) *param.Parameter { return ch.params.get(name) }
