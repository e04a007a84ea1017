package experiment

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/bolocalc/testutil"
)

func loadFixture(t *testing.T, opts testutil.Experiment) *Experiment {
	t.Helper()
	fx := testutil.WriteExperiment(t, t.TempDir(), opts)
	e, err := Load(fx.Dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return e
}

func TestApplyChannelParameter(t *testing.T) {
	e := loadFixture(t, testutil.Experiment{Bands: []string{"90", "150"}})
	n, err := e.Apply(Overlay{{Channel: "150", Param: "Psat [pW]", Value: 4}})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	cam, old := n.Telescopes[0].Cameras[0], e.Telescopes[0].Cameras[0]
	if v, _ := cam.Channel("150").Param(Psat).Nominal("").Get(); v != 4e-12 {
		t.Errorf("changed Psat = %v, want 4e-12", v)
	}
	if v, _ := old.Channel("150").Param(Psat).Nominal("").Get(); math.Abs(v-10e-12) > 1e-20 {
		t.Errorf("base Psat changed to %v", v)
	}
	if cam.Channel("90") != old.Channel("90") {
		t.Error("untouched channel should be shared")
	}
	if cam.conf != old.conf {
		t.Error("camera configuration should be shared")
	}
}

func TestApplyLevels(t *testing.T) {
	e := loadFixture(t, testutil.Experiment{
		Bands:  []string{"90", "150"},
		Optics: []map[string]string{{"Element": "Window", "Temperature": "273", "Absorption": "0.01"}},
	})

	n, err := e.Apply(Overlay{
		{Param: "Observation Time", Value: 2},
		{Param: "Bath Temp", Value: 0.25},
		{Param: "Dust Temperature", Value: 25},
		{Optic: "Window", Channel: "90", Param: "Absorption", Value: 0.05},
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	tel := n.Telescopes[0]
	if v, _ := tel.Param(ObsTime).Nominal("").Get(); v != 2 {
		t.Errorf("Observation Time = %v years", v)
	}
	if v, _ := tel.Cameras[0].Param(BathTemp).Nominal("").Get(); v != 0.25 {
		t.Errorf("Bath Temp = %v", v)
	}
	if got := n.Foregrounds.Realize(nil, true).DustTemp; got != 25 {
		t.Errorf("Dust Temperature = %v", got)
	}
	abso := tel.Cameras[0].Chain().Find("Window").Param("Absorption")
	a90, _ := abso.Nominal("90").Get()
	a150, _ := abso.Nominal("150").Get()
	if a90 != 0.05 || a150 != 0.01 {
		t.Errorf("Absorption = (%v, %v), want (0.05, 0.01)", a90, a150)
	}
	if e.Telescopes[0].Cameras[0].Chain().Find("Window").Param("Absorption").PerBand() {
		t.Error("base optic was modified")
	}
}

func TestApplyErrors(t *testing.T) {
	e := loadFixture(t, testutil.Experiment{})
	tests := []struct {
		name string
		c    Change
		want error
	}{
		{"unknown parameter", Change{Param: "Flux Capacitance", Value: 1}, ErrUnknownParameter},
		{"unknown telescope", Change{Telescope: "Other", Param: "Sky Fraction", Value: 0.3}, ErrNoMatch},
		{"unknown optic", Change{Optic: "Lens", Param: "Absorption", Value: 0.1}, ErrNoMatch},
		{"out of range", Change{Param: "Yield", Value: 2}, ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Apply(Overlay{tt.c}); !errors.Is(err, tt.want) {
				t.Errorf("Apply() error = %v, want %v", err, tt.want)
			}
		})
	}
}
