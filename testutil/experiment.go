// Package testutil provides reusable helpers that write complete
// experiment directories for tests across the repository.
package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// TB is the part of testing.TB the fixture writers need. Ginkgo's
// GinkgoT satisfies it.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// ChannelColumns is the default channels.txt header, in order.
var ChannelColumns = []string{
	"Band ID", "Pixel ID", "Band Center", "Fractional BW", "Pixel Size",
	"Num Det per Wafer", "Num Waf per OT", "Num OT", "Waist Factor", "Det Eff",
	"Psat", "Psat Factor", "Carrier Index", "Tc", "Tc Frac", "SQUID NEI",
	"Bolo Resistance", "Read Noise Frac", "Yield",
}

// OpticColumns is the optics.txt header, in order.
var OpticColumns = []string{
	"Element", "Temperature", "Absorption", "Reflection", "Thickness", "Index",
	"Loss Tangent", "Conductivity", "Surface Rough", "Spillover",
	"Spillover Temp", "Scatter Frac", "Scatter Temp",
}

var defaultChannel = map[string]string{
	"Pixel ID":          "1",
	"Fractional BW":     "0.3",
	"Pixel Size":        "5.0",
	"Num Det per Wafer": "100",
	"Num Waf per OT":    "1",
	"Num OT":            "1",
	"Waist Factor":      "3.0",
	"Det Eff":           "0.5",
	"Psat":              "10",
	"Psat Factor":       "NA",
	"Carrier Index":     "3",
	"Tc":                "0.171",
	"Tc Frac":           "NA",
	"SQUID NEI":         "NA",
	"Bolo Resistance":   "NA",
	"Read Noise Frac":   "0.1",
	"Yield":             "1.0",
}

var defaultTelescope = map[string]string{
	"Site":                   "Space",
	"Elevation":              "50",
	"PWV":                    "1.0",
	"Observation Time":       "5",
	"Sky Fraction":           "0.2",
	"Observation Efficiency": "0.2",
	"NET Margin":             "1",
	"Atmosphere File":        "NA",
}

var defaultCamera = map[string]string{
	"Boresight Elevation": "0",
	"Optical Coupling":    "1",
	"F Number":            "2.5",
	"Bath Temp":           "0.1",
}

// Experiment describes a fixture. Zero values give one telescope "Tel"
// with one camera "Cam" and a single 150 GHz channel in space.
type Experiment struct {
	Telescopes []string
	Cameras    []string
	Bands      []string

	// Channel overrides columns of every channel row; ChannelRows
	// overrides columns of one band.
	Channel     map[string]string
	ChannelRows map[string]map[string]string
	Telescope   map[string]string
	Camera      map[string]string

	// Optics rows, sky side first. Each row needs an "Element" key.
	Optics []map[string]string

	Foregrounds map[string]string

	// Atmosphere writes an atlas for site "Atacama" and points the
	// telescopes at it.
	Atmosphere bool

	// Files are extra files relative to the experiment directory.
	Files map[string]string
}

// Fixture locates a written experiment.
type Fixture struct {
	Dir           string
	AtmosphereDir string
}

// WriteExperiment writes opts under dir and returns its locations.
func WriteExperiment(t TB, dir string, opts Experiment) Fixture {
	t.Helper()
	fx := Fixture{Dir: filepath.Join(dir, "Exp")}
	tels := orDefault(opts.Telescopes, "Tel")
	cams := orDefault(opts.Cameras, "Cam")
	bands := orDefault(opts.Bands, "150")

	telKV := merge(defaultTelescope, opts.Telescope)
	if opts.Atmosphere {
		fx.AtmosphereDir = filepath.Join(dir, "atm")
		WriteAtlas(t, fx.AtmosphereDir, "Atacama")
		if _, ok := opts.Telescope["Site"]; !ok {
			telKV["Site"] = "Atacama"
		}
	}

	if opts.Foregrounds != nil {
		WriteFile(t, filepath.Join(fx.Dir, "config", "foregrounds.txt"), keyValue(opts.Foregrounds, nil))
	} else {
		mkdir(t, filepath.Join(fx.Dir, "config"))
	}

	for _, tel := range tels {
		tdir := filepath.Join(fx.Dir, tel)
		WriteFile(t, filepath.Join(tdir, "config", "telescope.txt"), keyValue(telKV, keyOrder(defaultTelescope)))
		for _, cam := range cams {
			cdir := filepath.Join(tdir, cam, "config")
			WriteFile(t, filepath.Join(cdir, "camera.txt"), keyValue(merge(defaultCamera, opts.Camera), keyOrder(defaultCamera)))

			var rows [][]string
			for _, b := range bands {
				row := merge(defaultChannel, opts.Channel)
				row["Band ID"] = b
				if _, ok := row["Band Center"]; !ok {
					row["Band Center"] = bandCenter(b)
				}
				for k, v := range opts.ChannelRows[b] {
					row[k] = v
				}
				rows = append(rows, pick(row, ChannelColumns))
			}
			WriteFile(t, filepath.Join(cdir, "channels.txt"), pipeTable(ChannelColumns, rows))

			if len(opts.Optics) > 0 {
				rows = nil
				for _, o := range opts.Optics {
					row := map[string]string{}
					for _, c := range OpticColumns {
						row[c] = "NA"
					}
					for k, v := range o {
						row[k] = v
					}
					rows = append(rows, pick(row, OpticColumns))
				}
				WriteFile(t, filepath.Join(cdir, "optics.txt"), pipeTable(OpticColumns, rows))
			}
		}
	}
	for rel, content := range opts.Files {
		WriteFile(t, filepath.Join(fx.Dir, rel), content)
	}
	return fx
}

// WriteAtlas writes a small atmosphere table for site under dir covering
// elevations 30 to 70 degrees and PWV 0.5 to 3.0 mm.
func WriteAtlas(t TB, dir, site string) {
	t.Helper()
	for elev := 30; elev <= 70; elev += 10 {
		for _, pwv := range []float64{0.5, 1.0, 2.0, 3.0} {
			airmass := 1 / math.Sin(float64(elev)*math.Pi/180)
			tau := 0.02 * pwv * airmass
			var b strings.Builder
			b.WriteString("# freq [GHz] | Tb [K] | transmission\n")
			for f := 10; f <= 1000; f += 10 {
				tx := 1 / (1 + tau*float64(f)/100)
				fmt.Fprintf(&b, "%d | %.6f | %.6f\n", f, 270*(1-tx), tx)
			}
			WriteFile(t, filepath.Join(dir, site, fmt.Sprintf("%d,%.1f.txt", elev, pwv)), b.String())
		}
	}
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t TB, path, content string) {
	t.Helper()
	mkdir(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func mkdir(t TB, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
}

func orDefault(xs []string, def string) []string {
	if len(xs) == 0 {
		return []string{def}
	}
	return xs
}

func merge(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

func bandCenter(id string) string {
	if _, err := strconv.ParseFloat(id, 64); err == nil {
		return id
	}
	return "150"
}

func pick(row map[string]string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		v, ok := row[c]
		if !ok {
			v = "NA"
		}
		out[i] = v
	}
	return out
}

func keyOrder(defaults map[string]string) []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// keyValue renders a "Parameter | Value" file. Keys in order come first,
// then any remaining keys sorted.
func keyValue(kv map[string]string, order []string) string {
	var b strings.Builder
	b.WriteString("Parameter | Value\n")
	done := map[string]bool{}
	for _, k := range order {
		if v, ok := kv[k]; ok {
			fmt.Fprintf(&b, "%s | %s\n", k, v)
			done[k] = true
		}
	}
	var rest []string
	for k := range kv {
		if !done[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		fmt.Fprintf(&b, "%s | %s\n", k, kv[k])
	}
	return b.String()
}

func pipeTable(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(header, " | "))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(strings.Join(r, " | "))
		b.WriteString("\n")
	}
	return b.String()
}
