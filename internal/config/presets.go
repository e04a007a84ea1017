package config

import "sort"

// Presets are named starting points for simulation.yaml.
var Presets = map[string]*Config{
	"nominal": {
		Realizations: 1, Observations: 1, Detectors: 1, ResolutionGHz: 0.1,
		Percentiles: [2]float64{15.9, 84.1}, LogLevel: DefaultLogLevel,
	},
	"quick": {
		Realizations: 10, Observations: 1, Detectors: 10, ResolutionGHz: 0.5,
		Parallel: true, Percentiles: [2]float64{15.9, 84.1}, LogLevel: DefaultLogLevel,
	},
	"standard": {
		Realizations: 100, Observations: 10, Detectors: 10, ResolutionGHz: 0.1,
		Parallel: true, Percentiles: [2]float64{15.9, 84.1}, LogLevel: DefaultLogLevel,
	},
	"full": {
		Realizations: 1000, Observations: 10, Detectors: 100, ResolutionGHz: 0.1,
		Foregrounds: true, Correlations: true, Parallel: true,
		Percentiles: [2]float64{15.9, 84.1}, LogLevel: DefaultLogLevel,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for n := range Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
