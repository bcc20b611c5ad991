// Package synth implements RM synthesis: the inversion of sampled Stokes Q
// and U spectra into a Faraday Dispersion Function (FDF) over a grid of trial
// Faraday depths, together with the Rotation Measure Spread Function (RMSF).
//
// For channels n with wavelength squared l2[n] and uniform weights w[n] = 1:
//
//	K        = 1 / sum(w)
//	l2_0     = K * sum(w * l2)
//	FDF(phi) = K * sum(P[n] * exp(-2i*phi*(l2[n]-l2_0))),  P = Q + iU
//	RMSF(phi)= K * sum(w[n] * exp(-2i*phi*(l2[n]-l2_0)))
//
// Subtracting l2_0 removes a phase ramp across the FDF that would otherwise
// smear its peak. Channels are in general not uniformly spaced in l2, so the
// transform is evaluated directly in O(len(phi) * channels) without an FFT.
// Each depth is computed in one pass over the channels; no
// depth-by-channel matrix is built.
//
// # Usage
//
//	res, err := synth.Synthesize(freqs, q, u, synth.WithPhiLimit(100), synth.WithPhiStep(0.25))
//	peak, err := faraday.FindPeak(res.Phi, res.FDF)
//
// For many spectra sharing one frequency grid (e.g. every pixel of a cube),
// build an [Engine] once and call [Engine.Transform] per spectrum, or use
// [SynthesizeCube].
package synth
