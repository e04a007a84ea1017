package vary

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/bolocalc/internal/experiment"
	"github.com/san-kum/bolocalc/internal/optics"
	"github.com/san-kum/bolocalc/internal/table"
)

// SpecFile is the sweep definition inside <experiment>/config.
const SpecFile = "paramsToVary.txt"

var (
	// ErrTogetherLength indicates "together" targets with different
	// numbers of points.
	ErrTogetherLength = errors.New("vary: together targets need equal lengths")

	// ErrPixelSizeConflict indicates Pixel Size** swept with a parameter
	// it derives.
	ErrPixelSizeConflict = errors.New("vary: Pixel Size** cannot be combined with this parameter")

	// ErrBadRange indicates a non-positive step or max below min.
	ErrBadRange = errors.New("vary: invalid range")
)

// Target is one row of the sweep definition file.
type Target struct {
	Telescope string
	Camera    string
	Channel   string
	Optic     string
	Param     string
	Min       float64
	Max       float64
	Step      float64
}

func (t Target) String() string {
	path := strings.Join([]string{t.Telescope, t.Camera, t.Channel, t.Optic}, "/")
	return fmt.Sprintf("%s[%s]", path, t.Param)
}

// Composite reports whether t is the Pixel Size** policy.
func (t Target) Composite() bool { return t.Param == PixelSizeComposite }

// LoadSpec reads a sweep definition file.
func LoadSpec(path string) ([]Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", experiment.ErrMissingFile, err)
	}
	defer f.Close()

	tab, err := table.Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", experiment.ErrMalformed, err)
	}
	if len(tab.Header) != 8 {
		return nil, &experiment.ConfigError{Path: path, Err: fmt.Errorf("%w: need 8 columns, got %d", experiment.ErrMalformed, len(tab.Header))}
	}

	var out []Target
	for n, row := range tab.Rows {
		t := Target{
			Telescope: identity(row[0]),
			Camera:    identity(row[1]),
			Channel:   identity(row[2]),
			Optic:     identity(row[3]),
			Param:     table.StripUnit(row[4]),
		}
		vals := make([]float64, 3)
		for i, cell := range row[5:8] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, &experiment.ConfigError{Path: path, Entity: fmt.Sprintf("row %d", n+1), Param: t.Param,
					Err: fmt.Errorf("%w: %q is not a number", experiment.ErrMalformed, cell)}
			}
			vals[i] = v
		}
		t.Min, t.Max, t.Step = vals[0], vals[1], vals[2]
		if err := t.validate(); err != nil {
			return nil, &experiment.ConfigError{Path: path, Entity: fmt.Sprintf("row %d", n+1), Param: t.Param, Err: err}
		}
		if _, err := Arange(t.Min, t.Max, t.Step); err != nil {
			return nil, &experiment.ConfigError{Path: path, Entity: fmt.Sprintf("row %d", n+1), Param: t.Param, Err: err}
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, &experiment.ConfigError{Path: path, Err: fmt.Errorf("%w: no sweep targets", experiment.ErrMalformed)}
	}
	return out, nil
}

func identity(cell string) string {
	cell = strings.TrimSpace(cell)
	if strings.EqualFold(cell, "NA") {
		return ""
	}
	return cell
}

// validate checks that t names a known parameter at a level that can own
// it.
func (t Target) validate() error {
	if t.Composite() {
		if t.Optic != "" {
			return fmt.Errorf("%w: %s is a channel parameter", experiment.ErrUnknownParameter, t.Param)
		}
		return nil
	}
	if t.Optic != "" {
		if _, ok := optics.SpecFor(t.Param); !ok {
			return fmt.Errorf("%w: optic parameter %q", experiment.ErrUnknownParameter, t.Param)
		}
		return nil
	}
	_, err := experiment.Schema().LevelOf(t.Param)
	return err
}
