package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cwbudde/algo-rmsynth/cube"
	"github.com/cwbudde/algo-rmsynth/internal/observability"
	"github.com/cwbudde/algo-rmsynth/rm/synth"
)

func newPeakmapCmd(a *app) *cobra.Command {
	var (
		freqPath, qPath, uPath string
		outPath                string
		phiLim, dphi           float64
		workers                int
	)

	c := &cobra.Command{
		Use:   "peakmap",
		Short: "Map the FDF peak depth and amplitude of every pixel",
		Long: "Run RM synthesis on every pixel of a Q/U cube pair and write a two-plane\n" +
			"FITS image: plane 1 is the peak Faraday depth, plane 2 the peak |F|.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, span := observability.StartSpan(cmd.Context(), "peakmap",
				attribute.String("out", outPath))
			defer span.End()

			d, err := loadQU(ctx, freqPath, qPath, uPath)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Workers
			}
			start := time.Now()
			maps, err := synth.SynthesizeCube(ctx, d.q, d.u, d.freqs,
				synth.WithPhiLimit(phiLim), synth.WithPhiStep(dphi), synth.WithWorkers(workers))
			if err != nil {
				return err
			}
			a.metrics.ObserveStage("peakmap", start)
			a.metrics.Synthesized(maps.NDec * maps.NRA)
			if maps.Blank > 0 {
				a.log.Warn("pixels without a finite peak", slog.Int("pixels", maps.Blank))
			}

			hdr, err := cube.DeriveImageHeader(d.header, 2)
			if err != nil {
				return err
			}
			hdr = hdr.Set("BUNIT", "rad/m^2 | Jy/beam")

			n := maps.NDec * maps.NRA
			data := make([]float32, 2*n)
			for i := range n {
				data[i] = float32(maps.PeakPhi[i])
				data[n+i] = float32(maps.PeakAmplitude[i])
			}
			if err := cube.WriteFloat32(outPath, []int{maps.NRA, maps.NDec, 2}, data, hdr); err != nil {
				return err
			}

			a.log.Info("peak map written",
				slog.String("path", outPath),
				slog.Int("nra", maps.NRA),
				slog.Int("ndec", maps.NDec),
				slog.Duration("elapsed", time.Since(start)),
			)
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}

	f := c.Flags()
	addQUFlags(f, &freqPath, &qPath, &uPath)
	f.StringVar(&outPath, "out", "peak.fits", "output FITS image")
	f.IntVar(&workers, "workers", 0, "concurrent rows; 0 uses RMSYNTH_WORKERS or one per CPU")
	addGridFlags(f, &phiLim, &dphi)
	for _, name := range []string{"freqs", "q", "u"} {
		_ = c.MarkFlagRequired(name)
	}
	return c
}
