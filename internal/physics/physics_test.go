package physics

import (
	"errors"
	"math"
	"testing"
)

func TestOccupationNumber(t *testing.T) {
	f := 150e9
	temp := 2.725
	x := H * f / (KB * temp)
	want := 1 / (math.Exp(x) - 1)
	if got := OccupationNumber(f, temp); math.Abs(got-want)/want > 1e-12 {
		t.Errorf("OccupationNumber = %v, want %v", got, want)
	}
	if OccupationNumber(f, 0) != 0 {
		t.Error("zero temperature should give zero occupation")
	}
}

func TestBBPowSpecRayleighJeansLimit(t *testing.T) {
	// hf << kT: P -> kB T per Hz
	f := 1e9
	temp := 300.0
	got := BBPowSpec(f, temp, 1)
	want := KB * temp
	if math.Abs(got-want)/want > 1e-3 {
		t.Errorf("BBPowSpec RJ limit = %v, want ~%v", got, want)
	}
}

func TestAniPowSpecMatchesDerivative(t *testing.T) {
	f := 150e9
	temp := TCMB
	dT := 1e-5
	numeric := (BBPowSpec(f, temp+dT, 1) - BBPowSpec(f, temp-dT, 1)) / (2 * dT)
	got := AniPowSpec(f, temp, 1)
	if math.Abs(got-numeric)/numeric > 1e-6 {
		t.Errorf("AniPowSpec = %v, numeric derivative %v", got, numeric)
	}
}

func TestPlanckTempRoundTrip(t *testing.T) {
	f := 30e9
	trj := 0.02
	temp := PlanckTemp(f, trj)
	if got := BBPowSpec(f, temp, 1); math.Abs(got-KB*trj)/(KB*trj) > 1e-9 {
		t.Errorf("BBPowSpec(PlanckTemp) = %v, want %v", got, KB*trj)
	}
}

func TestLossModels(t *testing.T) {
	f := 150e9
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"dielectric", DielectricLoss(f, 0.01, 1.5, 1e-4), 1 - math.Exp(-2*math.Pi*1.5*0.01*1e-4*f/C)},
		{"lossless dielectric", DielectricLoss(f, 0.01, 1.5, 0), 0},
		{"ohmic", OhmicEff(f, 36.9e6), 1 - 4*math.Sqrt(math.Pi*f*Eps0/36.9e6)},
		{"perfect conductor", OhmicEff(f, 0), 1},
		{"smooth surface", RuzeEff(f, 0), 1},
		{"ruze", RuzeEff(f, 5e-6), math.Exp(-math.Pow(4*math.Pi*5e-6*f/C, 2))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestSpillEffIncreasesWithPixel(t *testing.T) {
	f := 150e9
	small := SpillEff(f, 3e-3, 2, 3)
	large := SpillEff(f, 6e-3, 2, 3)
	if !(small < large) || large > 1 || small < 0 {
		t.Errorf("SpillEff small=%v large=%v", small, large)
	}
}

func TestNewGrid(t *testing.T) {
	g, err := NewGrid(150e9, 0.3, 0.1e9)
	if err != nil {
		t.Fatalf("NewGrid() error: %v", err)
	}
	if math.Abs(g.Freqs[0]-120.75e9) > 1 {
		t.Errorf("first freq = %v", g.Freqs[0])
	}
	if math.Abs(g.Lo-127.5e9) > 1 || math.Abs(g.Hi-172.5e9) > 1 {
		t.Errorf("band edges = %v, %v", g.Lo, g.Hi)
	}
	inBand := 0
	for i, in := range g.Mask {
		if in {
			inBand++
			if g.Freqs[i] < g.Lo || g.Freqs[i] > g.Hi {
				t.Fatalf("masked freq %v outside band", g.Freqs[i])
			}
		}
	}
	if inBand < 440 || inBand > 452 {
		t.Errorf("in-band points = %d, want ~451", inBand)
	}
}

func TestNewGridInvalid(t *testing.T) {
	tests := []struct {
		name        string
		center, fbw float64
		res         float64
	}{
		{"zero bandwidth", 150e9, 0, 1e8},
		{"negative resolution", 150e9, 0.3, -1},
		{"negative center", -150e9, 0.3, 1e8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGrid(tt.center, tt.fbw, tt.res); !errors.Is(err, ErrBadGrid) {
				t.Errorf("expected ErrBadGrid, got %v", err)
			}
		})
	}
}

func TestTrapz(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{0, 1, 2, 3}
	if got := Trapz(y, x); math.Abs(got-4.5) > 1e-12 {
		t.Errorf("Trapz = %v, want 4.5", got)
	}
}

func TestInterp(t *testing.T) {
	xp := []float64{1, 2, 4}
	fp := []float64{10, 20, 40}
	got := Interp([]float64{0, 1, 1.5, 3, 4, 5}, xp, fp, -1)
	want := []float64{-1, 10, 15, 30, 40, -1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("Interp[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBandAverageAndTopHat(t *testing.T) {
	g, _ := NewGrid(100e9, 0.2, 1e9)
	band := g.TopHat(0.5)
	if got := g.BandAverage(band); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("BandAverage(TopHat) = %v", got)
	}
	if band[0] != 0 {
		t.Error("TopHat should be zero out of band")
	}
}
