package vary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/bolocalc/internal/display"
	"github.com/san-kum/bolocalc/internal/experiment"
	"github.com/san-kum/bolocalc/internal/logging"
	"github.com/san-kum/bolocalc/internal/sim"
	"github.com/san-kum/bolocalc/internal/stats"
)

// OutputDir is the sweep output directory inside the experiment.
const OutputDir = "paramVary"

// DefaultName is the sweep name used when none is given.
const DefaultName = "vary"

// Outputs are the quantities written per sweep, one file each.
var Outputs = []struct {
	File   string
	Column stats.Column
}{
	{"Popt.txt", stats.Popt},
	{"NEPph.txt", stats.NEPph},
	{"NETarr.txt", stats.NETarr},
	{"MapDepth.txt", stats.MapDepth},
}

// Vary is a validated sweep grid.
type Vary struct {
	targets  []Target
	together bool
	points   [][]float64
}

// New builds the grid of targets. together pairs the i-th value of every
// target; otherwise the full product is swept with the first target
// varying slowest.
func New(targets []Target, together bool) (*Vary, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no sweep targets", experiment.ErrMalformed)
	}
	for _, t := range targets {
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
	}
	if err := checkPixelConflicts(targets); err != nil {
		return nil, err
	}
	arrs := make([][]float64, len(targets))
	for i, t := range targets {
		a, err := Arange(t.Min, t.Max, t.Step)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		arrs[i] = a
	}

	v := &Vary{targets: append([]Target(nil), targets...), together: together}
	if together {
		pts, err := Together(arrs)
		if err != nil {
			return nil, err
		}
		v.points = pts
	} else {
		v.points = Cartesian(arrs)
	}
	return v, nil
}

func (v *Vary) Targets() []Target { return append([]Target(nil), v.targets...) }

// Points returns the grid as [point][target].
func (v *Vary) Points() [][]float64 { return v.points }

func (v *Vary) Len() int { return len(v.points) }

// Overlay returns the changes of grid point i against e.
func (v *Vary) Overlay(e *experiment.Experiment, i int) (experiment.Overlay, error) {
	var o experiment.Overlay
	for k, t := range v.targets {
		val := v.points[i][k]
		if t.Composite() {
			cs, err := pixelChanges(e, t, val)
			if err != nil {
				return nil, err
			}
			o = append(o, cs...)
			continue
		}
		o = append(o, experiment.Change{
			Telescope: t.Telescope,
			Camera:    t.Camera,
			Channel:   t.Channel,
			Optic:     t.Optic,
			Param:     t.Param,
			Value:     val,
		})
	}
	return o, nil
}

// Channels returns the keys of every channel a target touches, in
// experiment order.
func (v *Vary) Channels(e *experiment.Experiment) []stats.Key {
	var keys []stats.Key
	for _, tel := range e.Telescopes {
		for _, cam := range tel.Cameras {
			for _, ch := range cam.Channels {
				for _, t := range v.targets {
					if matches(t.Telescope, tel.Name) && matches(t.Camera, cam.Name) && matches(t.Channel, ch.BandID) {
						keys = append(keys, stats.Key{Telescope: tel.Name, Camera: cam.Name, Channel: ch.BandID})
						break
					}
				}
			}
		}
	}
	return keys
}

// Run evaluates every grid point over the realization pool of s, which
// must already be generated. Every overlay is applied before any point
// is computed, so configuration errors surface first. The pool is never
// modified.
func (v *Vary) Run(ctx context.Context, s *sim.Simulation) (*display.VaryTable, error) {
	base := s.Realizations()
	if len(base) == 0 {
		return nil, fmt.Errorf("%w: sweep needs generated realizations", sim.ErrStage)
	}
	exp := s.Experiment()
	log := s.Logger()

	exps := make([]*experiment.Experiment, len(v.points))
	for i := range v.points {
		o, err := v.Overlay(exp, i)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		if exps[i], err = exp.Apply(o); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
	}

	keys := v.Channels(exp)
	res := &display.VaryTable{
		Channels: keys,
		Values:   v.points,
		Rows:     make([][]stats.Row, len(v.points)),
	}
	for _, t := range v.targets {
		res.Targets = append(res.Targets, display.Target{
			Telescope: t.Telescope, Camera: t.Camera, Channel: t.Channel, Optic: t.Optic, Param: t.Param,
		})
	}

	ropts, sopts := s.RealizeOptions(), s.SensitivityOptions()
	logging.Logf(log, logging.Info, "sweeping %d point(s) over %d realization(s)", len(v.points), len(base))
	err := s.Executor().Map(ctx, len(v.points), func(ctx context.Context, i int) error {
		rs := make([]*experiment.Realization, len(base))
		for j, r := range base {
			nr, err := r.Regenerate(exps[i], ropts)
			if err != nil {
				return fmt.Errorf("point %d: %w", i, err)
			}
			rs[j] = nr
		}
		tables, err := sim.CalculateAll(ctx, sim.Sequential{}, rs, sopts, logging.Discard)
		if err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		combined, err := stats.Combine(tables)
		if err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		rows := make([]stats.Row, len(keys))
		for n, k := range keys {
			r, ok := combined.Get(k)
			if !ok {
				return fmt.Errorf("point %d: channel %s missing", i, k)
			}
			rows[n] = r
		}
		res.Rows[i] = rows
		logging.Logf(log, logging.Info, "sweep point %d/%d done", i+1, len(v.points))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Write writes one table per output quantity to
// <experiment>/paramVary/<name> and returns the paths.
func Write(expDir, name string, res *display.VaryTable) ([]string, error) {
	if name == "" {
		name = DefaultName
	}
	dir := filepath.Join(expDir, OutputDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for _, out := range Outputs {
		p := filepath.Join(dir, out.File)
		f, err := os.Create(p)
		if err != nil {
			return paths, err
		}
		if err := display.WriteVary(f, res, out.Column); err != nil {
			f.Close()
			return paths, fmt.Errorf("%s: %w", p, err)
		}
		if err := f.Close(); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Best returns the grid point with the lowest mean of column c for the
// channel at index ch of res.
func Best(res *display.VaryTable, ch int, c stats.Column) int {
	best := -1
	for i, rows := range res.Rows {
		if best < 0 || rows[ch].Values[c].Mean < res.Rows[best][ch].Values[c].Mean {
			best = i
		}
	}
	return best
}

// WritePlot writes an SVG chart of column c next to the sweep tables and
// returns its path.
func WritePlot(expDir, name string, res *display.VaryTable, c stats.Column) (string, error) {
	if name == "" {
		name = DefaultName
	}
	svg := display.VarySVG(res, c, 640, 360)
	if svg == "" {
		return "", fmt.Errorf("%w: sweep needs two points to plot", experiment.ErrMalformed)
	}
	dir := filepath.Join(expDir, OutputDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(dir, strings.ReplaceAll(c.String(), " ", "")+".svg")
	return p, os.WriteFile(p, []byte(svg), 0o644)
}
