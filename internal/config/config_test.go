package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Empty(t, cfg.Metrics.File)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "rmsynth", cfg.Tracing.ServiceName)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.Zero(t, cfg.Workers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RMSYNTH_LOG_LEVEL", "debug")
	t.Setenv("RMSYNTH_LOG_FORMAT", "json")
	t.Setenv("RMSYNTH_METRICS_FILE", "/tmp/rmsynth.prom")
	t.Setenv("RMSYNTH_TRACE_ENABLED", "true")
	t.Setenv("RMSYNTH_WORKERS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/rmsynth.prom", cfg.Metrics.File)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("RMSYNTH_LOG_FORMAT", "xml")
	_, err := Load()
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestLoadRejectsUnparsable(t *testing.T) {
	t.Setenv("RMSYNTH_WORKERS", "many")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		Logging: LoggingConfig{Level: "WARN", Format: "JSON"},
		Tracing: TracingConfig{SampleRatio: 0.5},
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.Workers = -1
	assert.True(t, errors.Is(bad.Validate(), ErrInvalid))

	bad = base
	bad.Logging.Level = "trace"
	assert.True(t, errors.Is(bad.Validate(), ErrInvalid))

	bad = base
	bad.Tracing.SampleRatio = 2
	assert.True(t, errors.Is(bad.Validate(), ErrInvalid))
}

func TestFromEnvDefersValidation(t *testing.T) {
	t.Setenv("RMSYNTH_LOG_LEVEL", "loud")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "loud", cfg.Logging.Level)
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalid))
}
