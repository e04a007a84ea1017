package sky

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/san-kum/bolocalc/internal/logging"
	"github.com/san-kum/bolocalc/internal/param"
	"github.com/san-kum/bolocalc/internal/physics"
)

type recorder struct {
	msgs   []string
	levels []logging.Importance
}

func (r *recorder) Log(msg string, importance logging.Importance) {
	r.msgs = append(r.msgs, msg)
	r.levels = append(r.levels, importance)
}

func writeSpectrum(t *testing.T, dir, name string, temp, trans float64) {
	t.Helper()
	var b strings.Builder
	for f := 100; f <= 200; f += 10 {
		b.WriteString(strconv.Itoa(f) + " | " + ftoa(temp) + " | " + ftoa(trans))
		b.WriteString("\n")
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func testAtlas(t *testing.T) *Atlas {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "Atacama")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSpectrum(t, dir, "40,1.0.txt", 10, 0.90)
	writeSpectrum(t, dir, "40,2.0.txt", 20, 0.80)
	writeSpectrum(t, dir, "60,1.0.txt", 8, 0.95)
	writeSpectrum(t, dir, "60,2.0.txt", 15, 0.85)
	a := NewAtlas(root)
	if err := a.Load("Atacama"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return a
}

func TestKey(t *testing.T) {
	if got := Key(50, 1); got != "50,1.0" {
		t.Errorf("Key() = %q, want 50,1.0", got)
	}
}

func TestAtlasLookup(t *testing.T) {
	a := testAtlas(t)
	tests := []struct {
		name     string
		pwv      float64
		elev     float64
		wantTemp float64
		clamped  bool
	}{
		{"exact", 1.0, 40, 10, false},
		{"nearest", 1.9, 58, 15, false},
		{"clamp high pwv", 5.0, 60, 15, true},
		{"clamp low elevation", 1.0, 20, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			spec, err := a.Lookup("atacama", tt.pwv, tt.elev, rec)
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if spec.Temp[0] != tt.wantTemp {
				t.Errorf("Temp = %v, want %v", spec.Temp[0], tt.wantTemp)
			}
			if tt.clamped != (len(rec.msgs) > 0) {
				t.Errorf("clamp logged = %v, want %v (%v)", len(rec.msgs) > 0, tt.clamped, rec.msgs)
			}
		})
	}
}

func TestAtlasClampLogsNoticeOnce(t *testing.T) {
	a := testAtlas(t)
	rec := &recorder{}
	for i := 0; i < 3; i++ {
		if _, err := a.Lookup("Atacama", 9, 90, rec); err != nil {
			t.Fatal(err)
		}
	}
	if len(rec.msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(rec.msgs))
	}
	if rec.levels[0] != logging.Notice || rec.levels[1] != logging.Detail || rec.levels[2] != logging.Detail {
		t.Errorf("levels = %v, want one Notice then Detail", rec.levels)
	}
}

func TestAtlasMissingSite(t *testing.T) {
	a := NewAtlas(t.TempDir())
	if err := a.Load("Pole"); !errors.Is(err, ErrNoAtmosphere) {
		t.Errorf("Load() error = %v, want ErrNoAtmosphere", err)
	}
	if _, err := a.Lookup("Pole", 1, 50, nil); !errors.Is(err, ErrNoAtmosphere) {
		t.Errorf("Lookup() error = %v, want ErrNoAtmosphere", err)
	}
}

func TestSkyGenerate(t *testing.T) {
	grid, err := physics.NewGrid(150e9, 0.3, 0.5e9)
	if err != nil {
		t.Fatal(err)
	}
	fg, err := NewForegrounds(nil)
	if err != nil {
		t.Fatal(err)
	}
	r := fg.Realize(nil, true)

	s := &Sky{Site: "Atacama", Atlas: testAtlas(t)}
	st, err := s.Generate(Observation{PWV: 1, Elevation: 40}, grid.Freqs, &r)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := []string{"CMB", "Synchrotron", "Dust", "ATM"}
	if got := st.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	atm := st.Elements[3]
	for i := range grid.Freqs {
		if math.Abs(atm.Efficiency[i]-0.9) > 1e-12 || math.Abs(atm.Temperature[i]-10) > 1e-12 {
			t.Fatalf("ATM[%d] = (%v, %v), want (0.9, 10)", i, atm.Efficiency[i], atm.Temperature[i])
		}
	}
	if st.Elements[0].Temperature[0] != physics.TCMB {
		t.Errorf("CMB temperature = %v", st.Elements[0].Temperature[0])
	}
	dust := st.Elements[2]
	if dust.Emissivity[0] <= 0 || dust.Emissivity[0] >= dust.Emissivity[len(dust.Emissivity)-1] {
		t.Errorf("dust emissivity should rise with frequency: %v .. %v", dust.Emissivity[0], dust.Emissivity[len(dust.Emissivity)-1])
	}
}

func TestSkySpaceHasNoAtmosphere(t *testing.T) {
	s := &Sky{Site: "space"}
	st, err := s.Generate(Observation{}, []float64{1e11, 2e11}, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if st.Len() != 1 || st.Names()[0] != "CMB" {
		t.Errorf("Names() = %v, want [CMB]", st.Names())
	}
}

func TestSkyWithoutAtmosphereSource(t *testing.T) {
	s := &Sky{Site: "Atacama"}
	if _, err := s.Generate(Observation{PWV: 1, Elevation: 50}, []float64{1e11}, nil); !errors.Is(err, ErrNoAtmosphere) {
		t.Errorf("Generate() error = %v, want ErrNoAtmosphere", err)
	}
}

func TestForegroundsDefaultsAndOverride(t *testing.T) {
	spec, _ := ForegroundSpec(DustTemperature)
	p := param.MustNew(spec, param.SpreadEntry(20, 2))
	fg, err := NewForegrounds(map[string]*param.Parameter{DustTemperature: p})
	if err != nil {
		t.Fatal(err)
	}
	if got := fg.Realize(nil, true).DustTemp; got != 20 {
		t.Errorf("nominal DustTemp = %v, want 20", got)
	}
	r := fg.Realize(rand.New(rand.NewSource(1)), false)
	if r.DustTemp == 20 {
		t.Errorf("sampled DustTemp should differ from the mean")
	}
	if r.SyncFreq != 30e9 {
		t.Errorf("SyncFreq = %v, want default 30 GHz", r.SyncFreq)
	}

	if _, err := NewForegrounds(map[string]*param.Parameter{"Bogus": p}); err == nil {
		t.Error("unknown foreground parameter should fail")
	}
}
