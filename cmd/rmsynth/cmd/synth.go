package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/cmplx"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cwbudde/algo-rmsynth/cube"
	"github.com/cwbudde/algo-rmsynth/internal/observability"
	"github.com/cwbudde/algo-rmsynth/measure/faraday"
	"github.com/cwbudde/algo-rmsynth/rm/synth"
)

// quData is a pair of Q/U cubes with their channel frequencies.
type quData struct {
	freqs  []float64
	q, u   *cube.Cube
	header cube.Header
}

func loadQU(ctx context.Context, freqPath, qPath, uPath string) (*quData, error) {
	_, span := observability.StartSpan(ctx, "load",
		attribute.String("q", qPath), attribute.String("u", uPath))
	defer span.End()

	freqs, err := cube.ReadFrequencyList(freqPath)
	if err != nil {
		return nil, err
	}
	q, hdr, err := cube.ReadCube(qPath)
	if err != nil {
		return nil, err
	}
	u, _, err := cube.ReadCube(uPath)
	if err != nil {
		return nil, err
	}
	return &quData{freqs: freqs, q: q, u: u, header: hdr}, nil
}

func newSynthCmd(a *app) *cobra.Command {
	var (
		freqPath, qPath, uPath string
		x, y                   int
		phiLim, dphi           float64
	)

	c := &cobra.Command{
		Use:   "synth",
		Short: "Run RM synthesis on one pixel of a Q/U cube pair",
		Long: "Print the Faraday dispersion function and RMSF of one pixel as\n" +
			"'phi re(FDF) im(FDF) |FDF| re(RMSF) im(RMSF)' rows, then its peak.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, span := observability.StartSpan(cmd.Context(), "synth",
				attribute.Int("x", x), attribute.Int("y", y))
			defer span.End()

			d, err := loadQU(ctx, freqPath, qPath, uPath)
			if err != nil {
				return err
			}
			if x < 0 || x >= d.q.NRA || y < 0 || y >= d.q.NDec {
				return fmt.Errorf("pixel (%d,%d) outside %dx%d image", x, y, d.q.NRA, d.q.NDec)
			}
			if d.u.NRA != d.q.NRA || d.u.NDec != d.q.NDec || d.u.NChan != d.q.NChan {
				return fmt.Errorf("%w: Q %dx%dx%d, U %dx%dx%d", synth.ErrCubeMismatch,
					d.q.NDec, d.q.NRA, d.q.NChan, d.u.NDec, d.u.NRA, d.u.NChan)
			}

			start := time.Now()
			res, err := synth.SynthesizeReal(d.freqs,
				widen(d.q.Spectrum(y, x)), widen(d.u.Spectrum(y, x)),
				synth.WithPhiLimit(phiLim), synth.WithPhiStep(dphi))
			if err != nil {
				return err
			}
			a.metrics.ObserveStage("synth", start)
			a.metrics.Synthesized(1)

			if err := writeFDFTable(cmd.OutOrStdout(), res); err != nil {
				return err
			}

			peak, err := faraday.FindPeak(res.Phi, res.FDF)
			if err != nil {
				a.log.Warn("no finite peak", slog.Int("x", x), slog.Int("y", y))
				return nil
			}
			a.log.Info("peak",
				slog.Float64("phi", peak.Phi),
				slog.Float64("amplitude", peak.Amplitude),
				slog.Float64("lambda_sq0", res.LambdaSq0),
			)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "# peak phi=%.4f |F|=%.6g angle=%.4f\n",
				peak.Phi, peak.Amplitude, peak.Angle)
			return err
		},
	}

	f := c.Flags()
	addQUFlags(f, &freqPath, &qPath, &uPath)
	f.IntVar(&x, "x", 0, "RA pixel index")
	f.IntVar(&y, "y", 0, "Dec pixel index")
	addGridFlags(f, &phiLim, &dphi)
	for _, name := range []string{"freqs", "q", "u"} {
		_ = c.MarkFlagRequired(name)
	}
	return c
}

func writeFDFTable(w io.Writer, res *synth.Result) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# phi re(FDF) im(FDF) |FDF| re(RMSF) im(RMSF)")
	for i, phi := range res.Phi {
		f, r := res.FDF[i], res.RMSF[i]
		fmt.Fprintf(bw, "%.4f %.6e %.6e %.6e %.6e %.6e\n",
			phi, real(f), imag(f), cmplx.Abs(f), real(r), imag(r))
	}
	return bw.Flush()
}

func widen(s []float32) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}
