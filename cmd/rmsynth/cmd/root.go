package cmd

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-rmsynth/internal/config"
	"github.com/cwbudde/algo-rmsynth/internal/logging"
	"github.com/cwbudde/algo-rmsynth/internal/observability"
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	metrics  *observability.Metrics
	shutdown func(context.Context) error

	logLevel    string
	logFormat   string
	metricsFile string
	trace       bool
}

// Execute runs the root command.
func Execute() error {
	cmd := NewRootCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.Execute()
}

// NewRootCmd builds the rmsynth command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "rmsynth",
		Short: "RM synthesis toolkit for radio polarimetry",
		Long: "Assemble fine-channel images into spectral cubes, write RTS sourcelists of\n" +
			"polarised sources, and recover Faraday depths with RM synthesis.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (env RMSYNTH_LOG_LEVEL)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json (env RMSYNTH_LOG_FORMAT)")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit (env RMSYNTH_METRICS_FILE)")
	pf.BoolVar(&a.trace, "trace", false, "export trace spans to stderr (env RMSYNTH_TRACE_ENABLED)")

	for _, sub := range []*cobra.Command{
		newCubeCmd(a),
		newSrclistCmd(a),
		newSynthCmd(a),
		newRMSFCmd(a),
		newPeakmapCmd(a),
	} {
		sub.RunE = a.withFinish(sub.RunE)
		root.AddCommand(sub)
	}
	return root
}

// withFinish runs finish after run whether or not run fails. cobra skips
// post-run hooks on error, so the flush lives in RunE.
func (a *app) withFinish(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if ferr := a.finish(cmd.Context()); err == nil {
				err = ferr
			}
		}()
		return run(cmd, args)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = a.logFormat
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.File = a.metricsFile
	}
	if flags.Changed("trace") {
		cfg.Tracing.Enabled = a.trace
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.log, err = logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return err
	}

	if a.metrics, err = observability.NewMetrics(prometheus.NewRegistry()); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a.shutdown, err = observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
		Writer:      cmd.ErrOrStderr(),
	}, a.log)
	return err
}

func (a *app) finish(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	observability.ShutdownWithTimeout(ctx, a.shutdown, a.log)
	if a.cfg == nil || a.cfg.Metrics.File == "" {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.File); err != nil {
		return err
	}
	a.log.Debug("metrics written", slog.String("path", a.cfg.Metrics.File))
	return nil
}
