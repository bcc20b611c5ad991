package synth

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-rmsynth/rm/spectral"
)

var (
	ErrNoChannels       = errors.New("synth: no frequency channels")
	ErrLengthMismatch   = errors.New("synth: spectrum length does not match channel count")
	ErrInvalidFrequency = errors.New("synth: frequency must be positive and finite")
	ErrInvalidPhiLimit  = errors.New("synth: phi limit must be positive and finite")
	ErrInvalidPhiStep   = errors.New("synth: phi step must be in (0, 2*phi limit]")
)

// Engine holds everything that depends only on the frequency channels and
// the Faraday-depth grid, so repeated transforms over the same channels
// reuse it. An Engine is immutable after construction and safe for
// concurrent use.
type Engine struct {
	cfg Config

	lambdaSq  []float64
	weights   []float64
	offset    []float64 // lambdaSq - lambdaSq0
	norm      float64   // K = 1/sum(weights)
	lambdaSq0 float64

	phi  []float64
	rmsf []complex128
}

// NewEngine prepares an RM-synthesis engine for the given channel
// frequencies in Hz. Frequencies may be in any order; repeated frequencies
// are counted once per occurrence.
func NewEngine(freqs []float64, opts ...Option) (*Engine, error) {
	if len(freqs) == 0 {
		return nil, ErrNoChannels
	}
	for i, f := range freqs {
		if !(f > 0) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: index %d: %v", ErrInvalidFrequency, i, f)
		}
	}

	cfg := ApplyOptions(opts...)
	phi, err := FaradayDepths(cfg.PhiLimit, cfg.PhiStep)
	if err != nil {
		return nil, err
	}

	n := len(freqs)
	e := &Engine{
		cfg:      cfg,
		lambdaSq: spectral.WavelengthSquared(freqs),
		weights:  make([]float64, n),
		offset:   make([]float64, n),
		phi:      phi,
	}
	for i := range e.weights {
		e.weights[i] = 1
	}

	wsum := 0.0
	for _, w := range e.weights {
		wsum += w
	}
	e.norm = 1 / wsum

	weighted := make([]float64, n)
	vecmath.MulBlock(weighted, e.weights, e.lambdaSq)
	for _, v := range weighted {
		e.lambdaSq0 += v
	}
	e.lambdaSq0 *= e.norm

	for i, l2 := range e.lambdaSq {
		e.offset[i] = l2 - e.lambdaSq0
	}

	unit := make([]complex128, n)
	for i, w := range e.weights {
		unit[i] = complex(w, 0)
	}
	e.rmsf = e.dft(unit, e.phi)

	return e, nil
}

// Transform evaluates the FDF of the complex polarization p = Q + iU on the
// engine's Faraday-depth grid.
func (e *Engine) Transform(p []complex128) ([]complex128, error) {
	return e.TransformAt(p, e.phi)
}

// TransformAt evaluates the FDF of p at arbitrary Faraday depths.
func (e *Engine) TransformAt(p []complex128, phis []float64) ([]complex128, error) {
	if len(p) != len(e.offset) {
		return nil, fmt.Errorf("%w: %d values for %d channels", ErrLengthMismatch, len(p), len(e.offset))
	}
	return e.dft(p, phis), nil
}

// RMSFAt evaluates the RMSF at arbitrary Faraday depths.
func (e *Engine) RMSFAt(phis []float64) []complex128 {
	unit := make([]complex128, len(e.weights))
	for i, w := range e.weights {
		unit[i] = complex(w, 0)
	}
	return e.dft(unit, phis)
}

// Phi returns a copy of the Faraday-depth grid.
func (e *Engine) Phi() []float64 { return append([]float64(nil), e.phi...) }

// RMSF returns a copy of the RMSF on the Faraday-depth grid.
func (e *Engine) RMSF() []complex128 { return append([]complex128(nil), e.rmsf...) }

// LambdaSq0 returns the weighted mean wavelength squared, m^2.
func (e *Engine) LambdaSq0() float64 { return e.lambdaSq0 }

// LambdaSq returns a copy of the per-channel wavelength squared, m^2.
func (e *Engine) LambdaSq() []float64 { return append([]float64(nil), e.lambdaSq...) }

// Channels returns the number of frequency channels.
func (e *Engine) Channels() int { return len(e.offset) }

// Config returns the settings the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// dft computes K * sum_n v[n] * exp(-2i*phi*offset[n]) for every phi. Each
// depth is one fused pass over the channels.
func (e *Engine) dft(v []complex128, phis []float64) []complex128 {
	re := make([]float64, len(phis))
	im := make([]float64, len(phis))

	for k, phi := range phis {
		var sr, si float64
		for n, d := range e.offset {
			s, c := math.Sincos(-2 * phi * d)
			vr, vi := real(v[n]), imag(v[n])
			sr += vr*c - vi*s
			si += vr*s + vi*c
		}
		re[k] = sr
		im[k] = si
	}

	if len(phis) > 0 {
		vecmath.ScaleBlock(re, re, e.norm)
		vecmath.ScaleBlock(im, im, e.norm)
	}

	out := make([]complex128, len(phis))
	for k := range out {
		out[k] = complex(re[k], im[k])
	}
	return out
}
