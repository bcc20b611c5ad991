package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"math/cmplx"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-rmsynth/cube"
	"github.com/cwbudde/algo-rmsynth/internal/observability"
	"github.com/cwbudde/algo-rmsynth/measure/faraday"
	"github.com/cwbudde/algo-rmsynth/rm/synth"
)

func newRMSFCmd(a *app) *cobra.Command {
	var (
		freqPath     string
		phiLim, dphi float64
	)

	c := &cobra.Command{
		Use:   "rmsf",
		Short: "Print the RM spread function of a channel layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, span := observability.StartSpan(cmd.Context(), "rmsf")
			defer span.End()

			freqs, err := cube.ReadFrequencyList(freqPath)
			if err != nil {
				return err
			}
			phi, rmsf, err := synth.RMSF(freqs, synth.WithPhiLimit(phiLim), synth.WithPhiStep(dphi))
			if err != nil {
				return err
			}
			res, err := faraday.TheoreticalResolution(freqs)
			if err != nil {
				return err
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			fmt.Fprintln(w, "# phi re(RMSF) im(RMSF) |RMSF|")
			for i, p := range phi {
				fmt.Fprintf(w, "%.4f %.6e %.6e %.6e\n", p, real(rmsf[i]), imag(rmsf[i]), cmplx.Abs(rmsf[i]))
			}

			if fwhm, err := faraday.FWHM(phi, rmsf); err == nil {
				fmt.Fprintf(w, "# fwhm %.4f rad/m^2\n", fwhm)
			} else {
				a.log.Warn("rmsf main lobe not resolved on grid", slog.String("error", err.Error()))
			}
			fmt.Fprintf(w, "# theoretical fwhm %.4f rad/m^2\n", res.RMSFWidth)
			fmt.Fprintf(w, "# max scale %.4f rad/m^2\n", res.MaxScale)
			fmt.Fprintf(w, "# max depth %.4f rad/m^2\n", res.MaxDepth)
			fmt.Fprintf(w, "# channels %d distinct %d\n", res.ChannelCount, res.DistinctCount)
			return w.Flush()
		},
	}

	f := c.Flags()
	f.StringVar(&freqPath, "freqs", "", "frequency list written by 'rmsynth cube'")
	addGridFlags(f, &phiLim, &dphi)
	_ = c.MarkFlagRequired("freqs")
	return c
}
