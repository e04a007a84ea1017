package vary

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/san-kum/bolocalc/internal/experiment"
	"github.com/san-kum/bolocalc/internal/optics"
	"github.com/san-kum/bolocalc/internal/physics"
	"github.com/san-kum/bolocalc/testutil"
)

func TestArange(t *testing.T) {
	tests := []struct {
		name           string
		min, max, step float64
		want           int
	}{
		{"psat", 0, 10, 2, 6},
		{"inexact step", 0.1, 0.3, 0.1, 3},
		{"single point", 5, 5, 1, 1},
		{"max not on grid", 0, 9, 2, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Arange(tt.min, tt.max, tt.step)
			if err != nil {
				t.Fatalf("Arange() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len(Arange()) = %d, want %d (%v)", len(got), tt.want, got)
			}
			if got[0] != tt.min {
				t.Errorf("first = %v, want %v", got[0], tt.min)
			}
		})
	}

	for _, bad := range [][3]float64{{0, 1, 0}, {0, 1, -1}, {2, 1, 1}} {
		if _, err := Arange(bad[0], bad[1], bad[2]); !errors.Is(err, ErrBadRange) {
			t.Errorf("Arange(%v) error = %v, want ErrBadRange", bad, err)
		}
	}
}

func TestCartesian(t *testing.T) {
	arrs := [][]float64{{1, 2}, {10, 20, 30}, {100, 200}}
	pts := Cartesian(arrs)
	if len(pts) != 2*3*2 {
		t.Fatalf("len = %d, want 12", len(pts))
	}
	want := [][]float64{{1, 10, 100}, {1, 10, 200}, {1, 20, 100}}
	for i, w := range want {
		for k := range w {
			if pts[i][k] != w[k] {
				t.Errorf("pts[%d] = %v, want %v", i, pts[i], w)
			}
		}
	}
	if last := pts[len(pts)-1]; last[0] != 2 || last[1] != 30 || last[2] != 200 {
		t.Errorf("last = %v", last)
	}
	seen := map[[3]float64]bool{}
	for _, p := range pts {
		seen[[3]float64{p[0], p[1], p[2]}] = true
	}
	if len(seen) != 12 {
		t.Errorf("expected 12 distinct points, got %d", len(seen))
	}
}

func TestTogether(t *testing.T) {
	pts, err := Together([][]float64{{1, 2, 3}, {4, 5, 6}})
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 3 || pts[2][0] != 3 || pts[2][1] != 6 {
		t.Errorf("pts = %v", pts)
	}
	if _, err := Together([][]float64{{1, 2, 3}, {4, 5}}); !errors.Is(err, ErrTogetherLength) {
		t.Errorf("error = %v, want ErrTogetherLength", err)
	}
}

func TestNewGridSize(t *testing.T) {
	targets := []Target{
		{Param: "Psat", Min: 0, Max: 10, Step: 2},
		{Param: "Bath Temp", Min: 0.1, Max: 0.3, Step: 0.1},
	}
	v, err := New(targets, false)
	if err != nil {
		t.Fatal(err)
	}
	if v.Len() != 18 {
		t.Errorf("cartesian Len() = %d, want 18", v.Len())
	}
	if _, err := New(targets, true); !errors.Is(err, ErrTogetherLength) {
		t.Errorf("together error = %v, want ErrTogetherLength", err)
	}
	if _, err := New([]Target{{Param: "Bogus", Min: 0, Max: 1, Step: 1}}, false); !errors.Is(err, experiment.ErrUnknownParameter) {
		t.Errorf("unknown parameter error = %v", err)
	}
}

func TestPixelConflicts(t *testing.T) {
	px := Target{Param: PixelSizeComposite, Min: 4, Max: 6, Step: 1}
	tests := []struct {
		name  string
		other Target
		ok    bool
	}{
		{"waist factor", Target{Param: experiment.WaistFactor, Min: 2, Max: 3, Step: 1}, false},
		{"detector count", Target{Param: experiment.NumDetPerWafer, Min: 10, Max: 20, Step: 10}, false},
		{"lyot absorption", Target{Optic: "Lyot", Param: optics.Absorption, Min: 0, Max: 0.2, Step: 0.1}, false},
		{"lens absorption", Target{Optic: "Lens", Param: optics.Absorption, Min: 0, Max: 0.2, Step: 0.1}, true},
		{"psat", Target{Param: experiment.Psat, Min: 1, Max: 3, Step: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]Target{px, tt.other}, false)
			if tt.ok && err != nil {
				t.Errorf("New() error = %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrPixelSizeConflict) {
				t.Errorf("New() error = %v, want ErrPixelSizeConflict", err)
			}
		})
	}
}

func TestPixelChanges(t *testing.T) {
	fx := testutil.WriteExperiment(t, t.TempDir(), testutil.Experiment{
		Optics: []map[string]string{{"Element": "Lyot", "Temperature": "1", "Absorption": "0.3"}},
	})
	e, err := experiment.Load(fx.Dir)
	if err != nil {
		t.Fatal(err)
	}
	o, err := pixelChanges(e, Target{Param: PixelSizeComposite}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(o) != 3 {
		t.Fatalf("overlay = %v", o)
	}
	if o[0].Param != experiment.PixelSize || o[0].Value != 10 {
		t.Errorf("pixel change = %v", o[0])
	}
	if o[1].Param != experiment.NumDetPerWafer || o[1].Value != 25 {
		t.Errorf("detector change = %v, want 25", o[1])
	}
	eta := func(p float64) float64 { return physics.SpillEff(150e9, p, 2.5, 3) }
	want := 1 - 0.7*eta(10e-3)/eta(5e-3)
	if o[2].Optic != "Lyot" || math.Abs(o[2].Value-want) > 1e-9 {
		t.Errorf("absorption change = %v, want %g", o[2], want)
	}
	if _, err := e.Apply(o); err != nil {
		t.Errorf("Apply() error = %v", err)
	}
}

func TestLoadSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SpecFile)
	testutil.WriteFile(t, path, "Telescope | Camera | Channel | Optic | Parameter | Minimum | Maximum | Step\n"+
		"Tel | Cam | 150 |  | Psat [pW] | 0 | 10 | 2\n"+
		" | | | Lyot | Temperature | 1 | 4 | 1\n")
	targets, err := LoadSpec(path)
	if err != nil {
		t.Fatalf("LoadSpec() error = %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("targets = %v", targets)
	}
	if targets[0].Param != "Psat" || targets[0].Channel != "150" || targets[0].Optic != "" || targets[0].Max != 10 {
		t.Errorf("targets[0] = %+v", targets[0])
	}
	if targets[1].Telescope != "" || targets[1].Optic != "Lyot" {
		t.Errorf("targets[1] = %+v", targets[1])
	}

	tests := []struct {
		name string
		body string
		want error
	}{
		{"unknown parameter", "T|C|Ch|O|P|Mi|Ma|S\n||||Bogus|0|1|1\n", experiment.ErrUnknownParameter},
		{"bad number", "T|C|Ch|O|P|Mi|Ma|S\n||||Psat|zero|1|1\n", experiment.ErrMalformed},
		{"bad step", "T|C|Ch|O|P|Mi|Ma|S\n||||Psat|0|1|0\n", ErrBadRange},
		{"short header", "T|C|Ch\n", experiment.ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), SpecFile)
			testutil.WriteFile(t, p, tt.body)
			if _, err := LoadSpec(p); !errors.Is(err, tt.want) {
				t.Errorf("LoadSpec() error = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := LoadSpec(filepath.Join(dir, "missing.txt")); !errors.Is(err, experiment.ErrMissingFile) {
		t.Errorf("missing file error = %v", err)
	}
}
