package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cwbudde/algo-rmsynth/cube"
	"github.com/cwbudde/algo-rmsynth/internal/observability"
)

func newCubeCmd(a *app) *cobra.Command {
	var (
		fitsDir   string
		outDir    string
		pols      []string
		freqAxis  bool
		overwrite bool
	)

	c := &cobra.Command{
		Use:   "cube",
		Short: "Stack fine-channel images into spectral cubes",
		Long: "Stack the per-channel Stokes images of a directory into one FITS cube per\n" +
			"polarization and write the channel frequencies to frequency.txt.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, span := observability.StartSpan(cmd.Context(), "cube",
				attribute.String("fits_dir", fitsDir))
			defer span.End()

			cat, err := cube.ScanDir(fitsDir)
			if err != nil {
				return err
			}
			a.log.Info("scanned channel images",
				slog.String("dir", fitsDir), slog.Int("images", cat.Len()))

			for _, raw := range pols {
				pol, err := cube.ParseStokes(strings.TrimSpace(raw))
				if err != nil {
					return err
				}

				start := time.Now()
				res, err := cube.Build(ctx, cube.BuildConfig{
					Catalog:       cat,
					OutDir:        outDir,
					Pol:           pol,
					FrequencyAxis: freqAxis,
					Overwrite:     overwrite,
				})
				if err != nil {
					return fmt.Errorf("cube %s: %w", pol, err)
				}
				a.metrics.ObserveStage("cube", start)
				a.metrics.CubeWritten(string(pol), res.Cube.NChan)

				a.log.Info("cube written",
					slog.String("pol", string(pol)),
					slog.String("path", res.CubePath),
					slog.Int("channels", res.Cube.NChan),
					slog.Int("nra", res.Cube.NRA),
					slog.Int("ndec", res.Cube.NDec),
				)
				if res.FreqListWritten {
					a.log.Info("frequency list written", slog.String("path", res.FreqListPath))
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.CubePath)
			}
			return nil
		},
	}

	f := c.Flags()
	f.StringVar(&fitsDir, "fits-dir", "", "directory of <prefix>_<MHz>MHz_<POL>.fits channel images")
	f.StringVar(&outDir, "out-dir", "", "output directory for cubes and frequency.txt")
	f.StringSliceVar(&pols, "pol", []string{"Q", "U"}, "polarizations to stack")
	f.BoolVar(&freqAxis, "freq-axis", false, "write frequency-axis WCS keys (CTYPE1=FREQ)")
	f.BoolVar(&overwrite, "overwrite", false, "replace existing cube files")
	_ = c.MarkFlagRequired("fits-dir")
	_ = c.MarkFlagRequired("out-dir")
	return c
}
