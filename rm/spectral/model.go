package spectral

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

const (
	// DefaultRefFreq is the reference frequency used when none is given.
	DefaultRefFreq = 200e6

	// VRefFreq is the reference frequency of the Stokes V power law. It does
	// not follow Source.RefFreq.
	VRefFreq = 200e6
)

// ErrDegenerateAngle reports channels where tan(2*chi) made Q or U
// non-finite.
var ErrDegenerateAngle = errors.New("spectral: degenerate polarization angle")

// DegenerateError lists the channels whose Q and U were replaced by NaN.
type DegenerateError struct {
	Channels []int
}

func (e *DegenerateError) Error() string {
	return fmt.Sprintf("%v in %d channel(s): %v", ErrDegenerateAngle, len(e.Channels), e.Channels)
}

func (e *DegenerateError) Unwrap() error { return ErrDegenerateAngle }

// Source holds the intrinsic parameters of a polarized point source.
type Source struct {
	RM            float64 // rotation measure, rad m^-2
	RefI          float64 // Stokes I at RefFreq, Jy
	RefV          float64 // Stokes V at VRefFreq, Jy
	SpectralIndex float64
	FracPol       float64 // linear polarization fraction, 0..1
	RefChi        float64 // polarization angle at lambda=0, rad
	// RefFreq is the Stokes I reference frequency in Hz. NewSource sets
	// DefaultRefFreq. A non-positive value is used as is, so the power law
	// is undefined: negative values give NaN spectra, zero gives 0 or Inf.
	RefFreq float64
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithRefChi sets the reference polarization angle in radians.
func WithRefChi(chi float64) SourceOption {
	return func(s *Source) {
		s.RefChi = chi
	}
}

// WithRefFreq sets the Stokes I reference frequency in Hz.
func WithRefFreq(freq float64) SourceOption {
	return func(s *Source) {
		s.RefFreq = freq
	}
}

// NewSource returns a Source with RefChi=0 and RefFreq=DefaultRefFreq unless
// overridden by opts.
func NewSource(rm, refI, refV, spectralIndex, fracPol float64, opts ...SourceOption) Source {
	s := Source{
		RM:            rm,
		RefI:          refI,
		RefV:          refV,
		SpectralIndex: spectralIndex,
		FracPol:       fracPol,
		RefFreq:       DefaultRefFreq,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// Stokes holds the four Stokes spectra sampled on a frequency grid.
type Stokes struct {
	I, Q, U, V []complex128
}

// SpectralIndexFlux evaluates refFlux * (nu/refFreq)^si for each frequency.
//
// freqs and refFreq must be positive; other inputs produce non-finite values.
func SpectralIndexFlux(freqs []float64, si, refFlux, refFreq float64) []float64 {
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		out[i] = refFlux * math.Pow(f/refFreq, si)
	}
	return out
}

// PolarizationAngle returns refChi + rm*lambda^2 for each wavelength-squared
// value. lambdaSq must already be squared.
func PolarizationAngle(rm float64, lambdaSq []float64, refChi float64) []float64 {
	out := make([]float64, len(lambdaSq))
	for i, l2 := range lambdaSq {
		out[i] = refChi + rm*l2
	}
	return out
}

// StokesIQUV evaluates I, Q, U and V for src at each frequency in Hz.
//
//	Q = p * I * exp(2i*chi) / (1 + i*tan(2*chi))
//	U = Q * tan(2*chi)
//
// Channels where Q or U is not finite get NaN in both Q and U and are listed
// in the returned *DegenerateError. The Stokes value is always fully
// populated, even when an error is returned.
func StokesIQUV(freqs []float64, src Source) (Stokes, error) {
	chi := PolarizationAngle(src.RM, WavelengthSquared(freqs), src.RefChi)
	fluxI := SpectralIndexFlux(freqs, src.SpectralIndex, src.RefI, src.RefFreq)
	fluxV := SpectralIndexFlux(freqs, src.SpectralIndex, src.RefV, VRefFreq)

	n := len(freqs)
	st := Stokes{
		I: make([]complex128, n),
		Q: make([]complex128, n),
		U: make([]complex128, n),
		V: make([]complex128, n),
	}

	var degenerate []int
	for k := range freqs {
		tan2chi := complex(math.Tan(2*chi[k]), 0)
		numer := complex(src.FracPol*fluxI[k], 0) * cmplx.Exp(complex(0, 2*chi[k]))
		q := numer / (1 + 1i*tan2chi)
		u := q * tan2chi

		if !isFinite(q) || !isFinite(u) {
			q, u = cmplx.NaN(), cmplx.NaN()
			degenerate = append(degenerate, k)
		}

		st.I[k] = complex(fluxI[k], 0)
		st.Q[k] = q
		st.U[k] = u
		st.V[k] = complex(fluxV[k], 0)
	}

	if len(degenerate) > 0 {
		return st, &DegenerateError{Channels: degenerate}
	}
	return st, nil
}

func isFinite(c complex128) bool {
	return !cmplx.IsNaN(c) && !cmplx.IsInf(c)
}
