package cmd

import (
	"github.com/spf13/pflag"

	"github.com/cwbudde/algo-rmsynth/rm/synth"
)

func addQUFlags(f *pflag.FlagSet, freqs, q, u *string) {
	f.StringVar(freqs, "freqs", "", "frequency list written by 'rmsynth cube'")
	f.StringVar(q, "q", "", "Stokes Q cube")
	f.StringVar(u, "u", "", "Stokes U cube")
}

func addGridFlags(f *pflag.FlagSet, phiLim, dphi *float64) {
	f.Float64Var(phiLim, "phi-lim", synth.DefaultPhiLimit, "Faraday-depth half-width, rad m^-2")
	f.Float64Var(dphi, "dphi", synth.DefaultPhiStep, "Faraday-depth step, rad m^-2")
}
