package synth

import "fmt"

// Result holds the output of one RM-synthesis run. Phi, FDF and RMSF share
// one length.
type Result struct {
	Phi       []float64
	FDF       []complex128
	RMSF      []complex128
	LambdaSq0 float64
}

// Synthesize runs RM synthesis on complex Stokes Q and U spectra sampled at
// freqs (Hz). q and u must have one value per frequency.
//
// Non-finite Q or U values are not filtered: they propagate into every FDF
// depth so a degenerate input stays visible downstream.
func Synthesize(freqs []float64, q, u []complex128, opts ...Option) (*Result, error) {
	if len(q) != len(freqs) || len(u) != len(freqs) {
		return nil, fmt.Errorf("%w: %d frequencies, %d Q, %d U", ErrLengthMismatch, len(freqs), len(q), len(u))
	}

	e, err := NewEngine(freqs, opts...)
	if err != nil {
		return nil, err
	}

	p := make([]complex128, len(q))
	for i := range p {
		p[i] = q[i] + 1i*u[i]
	}

	fdf, err := e.Transform(p)
	if err != nil {
		return nil, err
	}

	return &Result{
		Phi:       e.phi,
		FDF:       fdf,
		RMSF:      e.rmsf,
		LambdaSq0: e.lambdaSq0,
	}, nil
}

// SynthesizeReal is Synthesize for real-valued Q and U.
func SynthesizeReal(freqs, q, u []float64, opts ...Option) (*Result, error) {
	if len(q) != len(u) {
		return nil, fmt.Errorf("%w: %d Q, %d U", ErrLengthMismatch, len(q), len(u))
	}
	qc := make([]complex128, len(q))
	uc := make([]complex128, len(u))
	for i := range q {
		qc[i] = complex(q[i], 0)
		uc[i] = complex(u[i], 0)
	}
	return Synthesize(freqs, qc, uc, opts...)
}

// RMSF returns the Faraday-depth grid and the RMSF for the given channels.
// It does not depend on any Q/U data.
func RMSF(freqs []float64, opts ...Option) ([]float64, []complex128, error) {
	e, err := NewEngine(freqs, opts...)
	if err != nil {
		return nil, nil, err
	}
	return e.phi, e.rmsf, nil
}
