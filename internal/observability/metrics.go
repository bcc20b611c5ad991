// Package observability wires Prometheus metrics and OpenTelemetry tracing
// for the rmsynth command.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the pipeline counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	ChannelsStacked    prometheus.Counter
	CubesWritten       *prometheus.CounterVec
	SpectraSynthesized prometheus.Counter
	DegenerateChannels prometheus.Counter
	SourcesWritten     prometheus.Counter
	StageDuration      *prometheus.HistogramVec
}

// NewMetrics registers the metrics against reg, defaulting to the global
// registry when nil. Metrics already registered on reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	stacked, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rmsynth_channels_stacked_total",
		Help: "Channel images stacked into spectral cubes.",
	}), "rmsynth_channels_stacked_total")
	if err != nil {
		return nil, err
	}

	cubes, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rmsynth_cubes_written_total",
		Help: "Spectral cubes written, labeled by Stokes parameter.",
	}, []string{"pol"}), "rmsynth_cubes_written_total")
	if err != nil {
		return nil, err
	}

	spectra, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rmsynth_spectra_synthesized_total",
		Help: "Q/U spectra transformed into Faraday dispersion functions.",
	}), "rmsynth_spectra_synthesized_total")
	if err != nil {
		return nil, err
	}

	degenerate, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rmsynth_degenerate_channels_total",
		Help: "Model channels whose Q and U were replaced by NaN.",
	}), "rmsynth_degenerate_channels_total")
	if err != nil {
		return nil, err
	}

	sources, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rmsynth_sources_written_total",
		Help: "Sources written to sourcelists.",
	}), "rmsynth_sources_written_total")
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rmsynth_stage_duration_seconds",
		Help:    "Duration of pipeline stages in seconds.",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"stage"}), "rmsynth_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:           gatherer,
		ChannelsStacked:    stacked,
		CubesWritten:       cubes,
		SpectraSynthesized: spectra,
		DegenerateChannels: degenerate,
		SourcesWritten:     sources,
		StageDuration:      duration,
	}, nil
}

// CubeWritten records one cube of nchan channels for pol.
func (m *Metrics) CubeWritten(pol string, nchan int) {
	if m == nil {
		return
	}
	m.CubesWritten.WithLabelValues(pol).Inc()
	m.ChannelsStacked.Add(float64(nchan))
}

// Synthesized records n transformed spectra.
func (m *Metrics) Synthesized(n int) {
	if m == nil {
		return
	}
	m.SpectraSynthesized.Add(float64(n))
}

// Degenerate records n degenerate model channels.
func (m *Metrics) Degenerate(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DegenerateChannels.Add(float64(n))
}

// SourcesListed records n written sources.
func (m *Metrics) SourcesListed(n int) {
	if m == nil {
		return
	}
	m.SourcesWritten.Add(float64(n))
}

// ObserveStage records the time elapsed since start for stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes every gathered metric to path in the node-exporter
// textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.gatherer); err != nil {
		return fmt.Errorf("observability: write metrics %s: %w", path, err)
	}
	return nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C, name string) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("observability: collector %s already registered with incompatible type", name)
		}
		var zero C
		return zero, err
	}
	return c, nil
}
