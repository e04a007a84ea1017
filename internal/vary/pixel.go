package vary

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/bolocalc/internal/experiment"
	"github.com/san-kum/bolocalc/internal/optics"
	"github.com/san-kum/bolocalc/internal/physics"
)

// PixelSizeComposite sweeps pixel size and keeps the detector count and
// the aperture stop absorption consistent with it.
const PixelSizeComposite = "Pixel Size**"

// checkPixelConflicts rejects targets that Pixel Size** derives.
func checkPixelConflicts(targets []Target) error {
	composite := false
	for _, t := range targets {
		if t.Composite() {
			composite = true
		}
	}
	if !composite {
		return nil
	}
	for _, t := range targets {
		switch {
		case t.Composite():
		case strings.EqualFold(t.Param, experiment.WaistFactor),
			strings.EqualFold(t.Param, experiment.NumDetPerWafer),
			strings.EqualFold(t.Param, experiment.PixelSize):
			return fmt.Errorf("%w: %s", ErrPixelSizeConflict, t)
		case strings.EqualFold(t.Param, optics.Absorption) && optics.Classify(t.Optic) == optics.ApertureStop:
			return fmt.Errorf("%w: %s", ErrPixelSizeConflict, t)
		}
	}
	return nil
}

// pixelChanges derives the changes for setting the pixel size of every
// channel t matches to mm millimetres.
func pixelChanges(e *experiment.Experiment, t Target, mm float64) (experiment.Overlay, error) {
	var out experiment.Overlay
	for _, tel := range e.Telescopes {
		if !matches(t.Telescope, tel.Name) {
			continue
		}
		for _, cam := range tel.Cameras {
			if !matches(t.Camera, cam.Name) {
				continue
			}
			for _, ch := range cam.Channels {
				if !matches(t.Channel, ch.BandID) {
					continue
				}
				cs, err := pixelChannel(tel, cam, ch, mm)
				if err != nil {
					return nil, fmt.Errorf("%s/%s/%s: %w", tel.Name, cam.Name, ch.BandID, err)
				}
				out = append(out, cs...)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", t, experiment.ErrNoMatch)
	}
	return out, nil
}

func pixelChannel(tel *experiment.Telescope, cam *experiment.Camera, ch *experiment.Channel, mm float64) (experiment.Overlay, error) {
	pp := ch.Param(experiment.PixelSize)
	p0, ok := pp.Nominal("").Get()
	if !ok || p0 <= 0 {
		return nil, fmt.Errorf("%w: %s must be set to derive %s", experiment.ErrMissingParameter, experiment.PixelSize, PixelSizeComposite)
	}
	p := pp.Unit.ToSI(mm)
	if p <= 0 {
		return nil, fmt.Errorf("%w: %s %g", experiment.ErrOutOfRange, PixelSizeComposite, mm)
	}

	at := func(param, optic, band string, v float64) experiment.Change {
		return experiment.Change{Telescope: tel.Name, Camera: cam.Name, Channel: band, Optic: optic, Param: param, Value: v}
	}
	out := experiment.Overlay{at(experiment.PixelSize, "", ch.BandID, mm)}

	if n0, ok := ch.Param(experiment.NumDetPerWafer).Nominal("").Get(); ok {
		out = append(out, at(experiment.NumDetPerWafer, "", ch.BandID, math.Round(n0*(p0/p)*(p0/p))))
	}

	center := ch.Param(experiment.BandCenter).Nominal("").Or(0)
	fnum := cam.Param(experiment.FNumber).Nominal("").Or(0)
	wf := ch.Param(experiment.WaistFactor).Nominal("").Or(0)
	if center <= 0 || fnum <= 0 || wf <= 0 {
		return out, nil
	}
	eta0 := physics.SpillEff(center, p0, fnum, wf)
	eta := physics.SpillEff(center, p, fnum, wf)
	if eta0 <= 0 {
		return out, nil
	}
	for _, o := range cam.Chain().Optics {
		if o.Shape != optics.ApertureStop {
			continue
		}
		a := o.Param(optics.Absorption)
		if a == nil || a.IsEmpty(ch.BandID) {
			continue
		}
		a0 := a.Nominal(ch.BandID).Or(0)
		na := 1 - (1-a0)*eta/eta0
		out = append(out, at(optics.Absorption, o.Element, ch.BandID, math.Min(1, math.Max(0, na))))
	}
	return out, nil
}

func matches(filter, name string) bool {
	return filter == "" || strings.EqualFold(filter, name)
}
