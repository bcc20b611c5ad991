package synth

import "runtime"

const (
	// DefaultPhiLimit is the default half-width of the Faraday-depth grid, rad m^-2.
	DefaultPhiLimit = 200.0
	// DefaultPhiStep is the default Faraday-depth spacing, rad m^-2.
	DefaultPhiStep = 0.5
)

// Config holds the RM-synthesis settings.
type Config struct {
	PhiLimit float64
	PhiStep  float64
	// Workers bounds the goroutines used by SynthesizeCube.
	Workers int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns PhiLimit=200, PhiStep=0.5 and one worker per CPU.
func DefaultConfig() Config {
	return Config{
		PhiLimit: DefaultPhiLimit,
		PhiStep:  DefaultPhiStep,
		Workers:  runtime.GOMAXPROCS(0),
	}
}

// WithPhiLimit sets the Faraday-depth half-width. Validation happens when
// the grid is built.
func WithPhiLimit(phiLim float64) Option {
	return func(cfg *Config) {
		cfg.PhiLimit = phiLim
	}
}

// WithPhiStep sets the Faraday-depth spacing.
func WithPhiStep(dphi float64) Option {
	return func(cfg *Config) {
		cfg.PhiStep = dphi
	}
}

// WithWorkers sets the SynthesizeCube concurrency limit. Values below 1 are
// ignored.
func WithWorkers(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Workers = n
		}
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
