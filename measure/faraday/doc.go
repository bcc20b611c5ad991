// Package faraday measures Faraday-depth spectra produced by RM synthesis.
//
// It provides:
//
//   - Amplitude: |F(phi)| of an FDF or RMSF
//   - FindPeak: the strongest Faraday-depth component, refined to sub-step
//     precision by parabolic interpolation, with its polarization angle
//   - FWHM: the main-lobe full width at half maximum of an RMSF
//   - TheoreticalResolution: the resolution, largest detectable scale and
//     maximum detectable depth implied by a channel layout
//     (Brentjens & de Bruyn 2005, eqs. 61-63)
//
// # Usage
//
//	res, _ := synth.Synthesize(freqs, q, u)
//	peak, err := faraday.FindPeak(res.Phi, res.FDF)
//	fmt.Printf("RM = %.2f rad/m^2, |F| = %.3f Jy\n", peak.Phi, peak.Amplitude)
package faraday
