// Package config holds the run inputs read from
// <experiment>/config/simulation.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultRealizations  = 1
	DefaultObservations  = 1
	DefaultDetectors     = 1
	DefaultResolutionGHz = 0.1
	DefaultLogLevel      = "info"
)

// FileName is the configuration file name inside <experiment>/config.
const FileName = "simulation.yaml"

// ErrInvalid indicates a configuration value outside its allowed range.
var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Realizations    int        `yaml:"realizations"`
	Observations    int        `yaml:"observations"`
	Detectors       int        `yaml:"detectors"`
	ResolutionGHz   float64    `yaml:"resolution_ghz"`
	Foregrounds     bool       `yaml:"foregrounds"`
	Correlations    bool       `yaml:"correlations"`
	Parallel        bool       `yaml:"parallel"`
	Workers         int        `yaml:"workers"`
	Seed            int64      `yaml:"seed"`
	AtmosphereDir   string     `yaml:"atmosphere_dir"`
	CorrelationFile string     `yaml:"correlation_file"`
	Percentiles     [2]float64 `yaml:"percentiles"`
	LogLevel        string     `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		Realizations:  DefaultRealizations,
		Observations:  DefaultObservations,
		Detectors:     DefaultDetectors,
		ResolutionGHz: DefaultResolutionGHz,
		Percentiles:   [2]float64{15.9, 84.1},
		LogLevel:      DefaultLogLevel,
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ForExperiment loads <dir>/config/simulation.yaml, or the defaults when
// the file does not exist. Relative paths in the file are resolved
// against <dir>/config.
func ForExperiment(dir string) (*Config, error) {
	cdir := filepath.Join(dir, "config")
	cfg, err := Load(filepath.Join(cdir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	cfg.AtmosphereDir = resolve(cdir, cfg.AtmosphereDir)
	cfg.CorrelationFile = resolve(cdir, cfg.CorrelationFile)
	return cfg, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects counts and resolutions that cannot drive a run.
func (c *Config) Validate() error {
	switch {
	case c.Realizations < 1:
		return fmt.Errorf("%w: realizations must be positive, got %d", ErrInvalid, c.Realizations)
	case c.Observations < 1:
		return fmt.Errorf("%w: observations must be positive, got %d", ErrInvalid, c.Observations)
	case c.Detectors < 1:
		return fmt.Errorf("%w: detectors must be positive, got %d", ErrInvalid, c.Detectors)
	case c.ResolutionGHz <= 0:
		return fmt.Errorf("%w: resolution_ghz must be positive, got %g", ErrInvalid, c.ResolutionGHz)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, c.Workers)
	}
	lo, hi := c.Percentiles[0], c.Percentiles[1]
	if lo < 0 || hi > 100 || lo >= hi {
		return fmt.Errorf("%w: percentiles must satisfy 0 <= lo < hi <= 100, got %v", ErrInvalid, c.Percentiles)
	}
	return nil
}

// Nominal reports whether the run draws the mean instrument only.
func (c *Config) Nominal() bool { return c.Realizations == 1 }
