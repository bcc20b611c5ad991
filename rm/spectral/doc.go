// Package spectral forward-models the Stokes spectrum of a polarized radio
// source undergoing Faraday rotation.
//
// A source is described by its rotation measure (rad m^-2), the Stokes I and
// V flux densities at a reference frequency, a power-law spectral index and
// a linear polarization fraction. The linear polarization angle rotates with
// wavelength squared:
//
//	chi(nu) = chi0 + RM * lambda^2,    lambda = c / nu
//
// # Usage
//
//	src := spectral.NewSource(20, 1.0, 0.0, -0.7, 0.3)
//	st, err := spectral.StokesIQUV(freqs, src)
//	if errors.Is(err, spectral.ErrDegenerateAngle) {
//		// st is still populated; affected channels carry NaN in Q and U.
//	}
//
// All frequencies are in Hz. I and V are real quantities but are carried as
// complex128 so all four Stokes spectra share one arithmetic path.
package spectral
