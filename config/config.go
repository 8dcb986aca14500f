// Package config loads the YAML configuration of the cleaner.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bsaid97/go-polygon-cleaner/cleaning"
	"github.com/bsaid97/go-polygon-cleaner/codec"
	"github.com/bsaid97/go-polygon-cleaner/utils"
)

// Config represents the root configuration file structure.
type Config struct {
	Cleaning Cleaning `yaml:"cleaning"`
	Server   Server   `yaml:"server"`
}

// Cleaning holds the pipeline and codec settings.
type Cleaning struct {
	Tolerance       float64 `yaml:"tolerance"`
	ToleranceMeters float64 `yaml:"tolerance_meters,omitempty"` // overrides tolerance when set
	Precision       int     `yaml:"precision,omitempty"`
	IndexCellSize   float64 `yaml:"index_cell_size"`
	BruteForce      bool    `yaml:"brute_force,omitempty"`
	DefaultCRS      string  `yaml:"default_crs"`
	FallbackName    string  `yaml:"fallback_name"`
}

// Server holds the HTTP server settings.
type Server struct {
	Addr           string        `yaml:"addr"`
	Port           int           `yaml:"port"`
	MaxUploadMB    int64         `yaml:"max_upload_mb"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Cleaning: Cleaning{
			Tolerance:     cleaning.DefaultTolerance,
			IndexCellSize: cleaning.DefaultCellSize,
			DefaultCRS:    codec.DefaultCRS,
			FallbackName:  codec.DefaultFallbackName,
		},
		Server: Server{
			Addr:           "0.0.0.0",
			Port:           8080,
			MaxUploadMB:    64,
			RequestTimeout: time.Minute,
		},
	}
}

// Load reads the YAML configuration file at path on top of the defaults. An
// empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EffectiveTolerance returns the near-duplicate tolerance in coordinate units.
func (c Cleaning) EffectiveTolerance() float64 {
	if c.ToleranceMeters > 0 {
		return utils.CalculateWGS84ToleranceFromMeters(c.ToleranceMeters)
	}
	return c.Tolerance
}

// Options returns the pipeline options.
func (c Cleaning) Options() cleaning.Options {
	return cleaning.Options{
		Tolerance:  c.EffectiveTolerance(),
		Precision:  c.Precision,
		CellSize:   c.IndexCellSize,
		BruteForce: c.BruteForce,
	}
}

// CodecOptions returns the decode fallbacks, preferring name over the
// configured fallback name when it is not empty.
func (c Cleaning) CodecOptions(name string) codec.Options {
	if name == "" {
		name = c.FallbackName
	}
	return codec.Options{FallbackName: name, DefaultCRS: c.DefaultCRS}
}

// MaxUploadBytes returns the request size limit in bytes.
func (s Server) MaxUploadBytes() int64 {
	if s.MaxUploadMB <= 0 {
		return 64 << 20
	}
	return s.MaxUploadMB << 20
}
