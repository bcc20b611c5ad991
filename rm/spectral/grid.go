package spectral

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// SpeedOfLight is the speed of light in vacuum in m/s.
const SpeedOfLight = 299792458.0

var (
	ErrEmptyGrid            = errors.New("spectral: empty frequency grid")
	ErrNonPositiveFrequency = errors.New("spectral: frequency must be positive and finite")
	ErrNotIncreasing        = errors.New("spectral: frequencies must be strictly increasing")
	ErrInvalidStep          = errors.New("spectral: invalid frequency step")
)

// ValidateFrequencies checks that freqs is non-empty, strictly increasing and
// holds only positive finite values.
func ValidateFrequencies(freqs []float64) error {
	if len(freqs) == 0 {
		return ErrEmptyGrid
	}
	for i, f := range freqs {
		if !(f > 0) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: index %d: %v", ErrNonPositiveFrequency, i, f)
		}
		if i > 0 && !(f > freqs[i-1]) {
			return fmt.Errorf("%w: index %d: %v after %v", ErrNotIncreasing, i, f, freqs[i-1])
		}
	}
	return nil
}

// Wavelength returns c/nu for each frequency in Hz.
func Wavelength(freqs []float64) []float64 {
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		out[i] = SpeedOfLight / f
	}
	return out
}

// WavelengthSquared returns (c/nu)^2 for each frequency in Hz.
func WavelengthSquared(freqs []float64) []float64 {
	lambda := Wavelength(freqs)
	if len(lambda) == 0 {
		return lambda
	}
	vecmath.MulBlockInPlace(lambda, lambda)
	return lambda
}

// FrequencyRange returns low, low+step, ... up to and including high.
//
// The stop is padded by one step and the count rounded up, so a final value
// slightly above high appears when (high-low) is not a multiple of step.
func FrequencyRange(low, high, step float64) ([]float64, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, step)
	}
	if !(low > 0) || math.IsInf(low, 0) {
		return nil, fmt.Errorf("%w: low %v", ErrNonPositiveFrequency, low)
	}
	if high < low {
		return nil, fmt.Errorf("spectral: high frequency %v below low frequency %v", high, low)
	}

	n := int(math.Ceil((high + step - low) / step))
	out := make([]float64, n)
	for i := range out {
		out[i] = low + float64(i)*step
	}
	return out, nil
}
