package cmd

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cwbudde/algo-rmsynth/internal/observability"
	"github.com/cwbudde/algo-rmsynth/srclist"
)

func newSrclistCmd(a *app) *cobra.Command {
	var (
		cfgPath string
		outDir  string
	)

	c := &cobra.Command{
		Use:   "srclist",
		Short: "Write RTS sourcelists for simulated polarised sources",
		Long: "Read a YAML source configuration and write the calibrator list\n" +
			"<obsid>_<stem>_cal.txt and the full list <obsid>_<stem>_sim.txt.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, span := observability.StartSpan(cmd.Context(), "srclist",
				attribute.String("config", cfgPath))
			defer span.End()

			start := time.Now()
			cfg, err := srclist.Load(cfgPath)
			if err != nil {
				return err
			}
			out, err := srclist.Generate(cfg, srclist.StemOf(cfgPath), outDir)
			if err != nil {
				return err
			}
			a.metrics.ObserveStage("srclist", start)
			a.metrics.SourcesListed(out.Sources)

			names := make([]string, 0, len(out.Degenerate))
			for name := range out.Degenerate {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				chans := out.Degenerate[name]
				a.metrics.Degenerate(len(chans))
				a.log.Warn("degenerate model channels written as nan",
					slog.String("source", name),
					slog.Any("channels", chans),
				)
			}

			a.log.Info("sourcelists written",
				slog.String("cal", out.CalPath),
				slog.String("sim", out.SimPath),
				slog.Int("calibrators", out.Calibrators),
				slog.Int("sources", out.Sources),
			)
			fmt.Fprintln(cmd.OutOrStdout(), out.CalPath)
			fmt.Fprintln(cmd.OutOrStdout(), out.SimPath)
			return nil
		},
	}

	f := c.Flags()
	f.StringVar(&cfgPath, "yaml-cfg", "", "YAML source configuration")
	f.StringVar(&outDir, "out-dir", ".", "output directory for the sourcelists")
	_ = c.MarkFlagRequired("yaml-cfg")
	return c
}
