package testutil

import (
	"math"
	"math/rand"
	"sort"
)

// MWAFineChannels returns n frequencies in Hz starting at startMHz and spaced
// by stepMHz, e.g. MWAFineChannels(169, 1.28, 24) for a 169-198 MHz band.
func MWAFineChannels(startMHz, stepMHz float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = (startMHz + float64(i)*stepMHz) * 1e6
	}
	return out
}

// UniformLambdaSqFrequencies returns n frequencies in Hz, ascending, whose
// wavelengths squared are l2Start, l2Start+l2Step, ... in descending order of
// wavelength.
func UniformLambdaSqFrequencies(l2Start, l2Step float64, n int) []float64 {
	const c = 299792458.0
	out := make([]float64, n)
	for i := range out {
		l2 := l2Start + float64(n-1-i)*l2Step
		out[i] = c / math.Sqrt(l2)
	}
	return out
}

// MirroredLambdaSqFrequencies returns frequencies whose wavelengths squared
// sit in pairs at center +/- offsets[i], so the weighted mean of lambda^2 is
// exactly center. The result is sorted ascending in frequency.
func MirroredLambdaSqFrequencies(center float64, offsets []float64) []float64 {
	const c = 299792458.0
	l2 := make([]float64, 0, 2*len(offsets))
	for _, d := range offsets {
		l2 = append(l2, center+d, center-d)
	}
	out := make([]float64, len(l2))
	for i, v := range l2 {
		out[i] = c / math.Sqrt(v)
	}
	sort.Float64s(out)
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Shuffled returns a copy of in permuted with a fixed seed.
func Shuffled[T any](seed int64, in []T) []T {
	out := append([]T(nil), in...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
