package optics

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/bolocalc/internal/param"
	"github.com/san-kum/bolocalc/internal/physics"
)

func fixed(t *testing.T, name string, v float64) *param.Parameter {
	t.Helper()
	spec, ok := SpecFor(name)
	if !ok {
		t.Fatalf("no spec for %s", name)
	}
	p, err := param.New(spec, param.FixedEntry(v))
	if err != nil {
		t.Fatalf("param %s: %v", name, err)
	}
	return p
}

func testContext(t *testing.T) Context {
	t.Helper()
	g, err := physics.NewGrid(150e9, 0.3, 0.5e9)
	if err != nil {
		t.Fatal(err)
	}
	return Context{
		Band:        "MF",
		Grid:        g,
		PixelSize:   5e-3,
		FNumber:     2,
		WaistFactor: 3,
		Rng:         rand.New(rand.NewSource(1)),
		Nominal:     true,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		element string
		want    Shape
	}{
		{"Aperture", ApertureStop},
		{"Lyot", ApertureStop},
		{"Stop", ApertureStop},
		{"Primary", Mirror},
		{"SecondaryMirror", Mirror},
		{"Window", Dielectric},
		{"Lens1", Dielectric},
	}
	for _, tt := range tests {
		if got := Classify(tt.element); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.element, got, tt.want)
		}
	}
}

func TestGenerateExplicitAbsorption(t *testing.T) {
	ctx := testContext(t)
	o := New("Window", map[string]*param.Parameter{
		Temperature: fixed(t, Temperature, 280),
		Absorption:  fixed(t, Absorption, 0.01),
		Reflection:  fixed(t, Reflection, 0.02),
	}, nil)

	el, err := o.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	for i := range ctx.Grid.Freqs {
		if math.Abs(el.Efficiency[i]-0.97) > 1e-12 {
			t.Fatalf("eff[%d] = %v, want 0.97", i, el.Efficiency[i])
		}
		if math.Abs(el.Emissivity[i]-0.01) > 1e-12 {
			t.Fatalf("emiss[%d] = %v, want 0.01", i, el.Emissivity[i])
		}
		if el.Temperature[i] != 280 {
			t.Fatalf("temp[%d] = %v", i, el.Temperature[i])
		}
	}
}

func TestGenerateDielectricLoss(t *testing.T) {
	ctx := testContext(t)
	o := New("Lens", map[string]*param.Parameter{
		Temperature: fixed(t, Temperature, 4),
		Thickness:   fixed(t, Thickness, 10),
		Index:       fixed(t, Index, 3.4),
		LossTangent: fixed(t, LossTangent, 1),
	}, nil)
	el, err := o.Generate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	f := ctx.Grid.Freqs[3]
	want := physics.DielectricLoss(f, 10e-3, 3.4, 1e-4)
	if math.Abs(el.Emissivity[3]-want) > 1e-12 {
		t.Errorf("emiss = %v, want %v", el.Emissivity[3], want)
	}
	if math.Abs(el.Efficiency[3]-(1-want)) > 1e-12 {
		t.Errorf("eff = %v, want %v", el.Efficiency[3], 1-want)
	}
}

func TestGenerateMirror(t *testing.T) {
	ctx := testContext(t)
	o := New("Primary", map[string]*param.Parameter{
		Temperature:  fixed(t, Temperature, 273),
		Conductivity: fixed(t, Conductivity, 36.9),
		SurfaceRough: fixed(t, SurfaceRough, 5),
	}, nil)
	el, err := o.Generate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	f := ctx.Grid.Freqs[0]
	abso := 1 - physics.OhmicEff(f, 36.9e6)
	scatt := 1 - physics.RuzeEff(f, 5e-6)
	if math.Abs(el.Efficiency[0]-(1-abso-scatt)) > 1e-12 {
		t.Errorf("eff = %v, want %v", el.Efficiency[0], 1-abso-scatt)
	}
	// scatter terminates at the element temperature by default
	if math.Abs(el.Emissivity[0]-(abso+scatt)) > 1e-12 {
		t.Errorf("emiss = %v, want %v", el.Emissivity[0], abso+scatt)
	}
}

func TestGenerateApertureSpill(t *testing.T) {
	ctx := testContext(t)
	o := New("Lyot", map[string]*param.Parameter{
		Temperature: fixed(t, Temperature, 1),
	}, nil)
	el, err := o.Generate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	f := ctx.Grid.Freqs[10]
	spill := physics.SpillEff(f, 5e-3, 2, 3)
	if math.Abs(el.Efficiency[10]-spill) > 1e-12 {
		t.Errorf("eff = %v, want spill efficiency %v", el.Efficiency[10], spill)
	}
}

func TestSpilloverWeightedByTemperature(t *testing.T) {
	ctx := testContext(t)
	o := New("Window", map[string]*param.Parameter{
		Temperature:   fixed(t, Temperature, 10),
		Spillover:     fixed(t, Spillover, 0.1),
		SpilloverTemp: fixed(t, SpilloverTemp, 300),
	}, nil)
	el, err := o.Generate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	f := ctx.Grid.Freqs[0]
	want := 0.1 * physics.BBPowSpec(f, 300, 1) / physics.BBPowSpec(f, 10, 1)
	if math.Abs(el.Emissivity[0]-want)/want > 1e-12 {
		t.Errorf("emiss = %v, want %v", el.Emissivity[0], want)
	}
	if math.Abs(el.Efficiency[0]-0.9) > 1e-12 {
		t.Errorf("eff = %v, want 0.9", el.Efficiency[0])
	}
}

func TestGenerateBandFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Filter_MF.txt")
	if err := os.WriteFile(path, []byte("100 0.8\n200 0.8\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	band, err := LoadBand(path)
	if err != nil {
		t.Fatalf("LoadBand() error: %v", err)
	}
	ctx := testContext(t)
	o := New("Filter", map[string]*param.Parameter{
		Temperature: fixed(t, Temperature, 1),
		Absorption:  fixed(t, Absorption, 0.05),
	}, map[string]*BandFile{"MF": band})

	el, err := o.Generate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(el.Efficiency[5]-0.8) > 1e-12 {
		t.Errorf("eff = %v, want 0.8", el.Efficiency[5])
	}
	if math.Abs(el.Emissivity[5]-0.05) > 1e-12 {
		t.Errorf("emiss = %v, want 0.05", el.Emissivity[5])
	}
}

func TestGenerateMissingTemperature(t *testing.T) {
	o := New("Window", nil, nil)
	if _, err := o.Generate(testContext(t)); err == nil {
		t.Error("expected error for missing temperature")
	}
}

func TestBandFileOnGridWithUncertainty(t *testing.T) {
	b := &BandFile{
		Freqs: []float64{100e9, 200e9},
		Eff:   []float64{0.99, 0.99},
		Err:   []float64{0.5, 0.5},
	}
	freqs := []float64{120e9, 150e9, 180e9, 250e9}
	eff := b.OnGrid(freqs, rand.New(rand.NewSource(3)), false)
	for i, v := range eff {
		if v < 0 || v > 1 {
			t.Errorf("eff[%d] = %v outside [0,1]", i, v)
		}
	}
	if eff[3] != 0 {
		t.Errorf("out-of-band eff = %v, want 0", eff[3])
	}
	nominal := b.OnGrid(freqs, nil, true)
	if nominal[1] != 0.99 {
		t.Errorf("nominal eff = %v, want 0.99", nominal[1])
	}
}
