// Package config loads runtime settings of the rmsynth command from RMSYNTH_*
// environment variables. Command-line flags override them.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix.
const Prefix = "RMSYNTH"

var ErrInvalid = errors.New("config: invalid setting")

// Config holds the runtime settings.
type Config struct {
	Logging LoggingConfig `envconfig:"LOG"`
	Metrics MetricsConfig `envconfig:"METRICS"`
	Tracing TracingConfig `envconfig:"TRACE"`
	// Workers bounds whole-cube synthesis concurrency; 0 means one per CPU.
	Workers int `envconfig:"WORKERS" default:"0"`
}

// LoggingConfig selects the log level and format.
type LoggingConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"text"`
}

// MetricsConfig names a node-exporter textfile to write on exit. Empty
// disables metrics output.
type MetricsConfig struct {
	File string `envconfig:"FILE"`
}

// TracingConfig enables span export to stdout.
type TracingConfig struct {
	Enabled     bool    `envconfig:"ENABLED" default:"false"`
	ServiceName string  `envconfig:"SERVICE_NAME" default:"rmsynth"`
	SampleRatio float64 `envconfig:"SAMPLE_RATIO" default:"1"`
}

// Load reads and validates the settings from the environment.
func Load() (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the settings without validating them, for callers that
// apply overrides first.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: load from env: %w", err)
	}
	return &cfg, nil
}

// Validate checks enumerated and ranged values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Logging.Format)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.Workers)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: trace sample ratio %v", ErrInvalid, c.Tracing.SampleRatio)
	}
	return nil
}
