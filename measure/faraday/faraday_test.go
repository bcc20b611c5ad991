package faraday

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-rmsynth/internal/testutil"
	"github.com/cwbudde/algo-rmsynth/rm/spectral"
)

func grid(lo, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// gaussianFDF returns amp*exp(-(phi-center)^2/(2*sigma^2)) * exp(2i*chi).
func gaussianFDF(phi []float64, center, sigma, amp, chi float64) []complex128 {
	out := make([]complex128, len(phi))
	for i, p := range phi {
		d := (p - center) / sigma
		out[i] = complex(amp*math.Exp(-0.5*d*d), 0) * cmplx.Rect(1, 2*chi)
	}
	return out
}

func TestAmplitude(t *testing.T) {
	got := Amplitude([]complex128{3 + 4i, -1, 0, 2i})
	testutil.RequireSliceNearlyEqual(t, got, []float64{5, 1, 0, 2}, 1e-12)
	assert.Nil(t, Amplitude(nil))
}

func TestFindPeakInterpolates(t *testing.T) {
	phi := grid(-10, 0.5, 41)
	fdf := gaussianFDF(phi, 3.2, 1.5, 2, 0.4)

	p, err := FindPeak(phi, fdf)
	require.NoError(t, err)
	assert.Equal(t, 26, p.Index)
	assert.Equal(t, 3.0, p.GridPhi)
	assert.InDelta(t, 3.2, p.Phi, 0.05)
	assert.InDelta(t, 2, p.Amplitude, 0.01)
	assert.InDelta(t, 0.4, p.Angle, 1e-12)
}

func TestFindPeakEdgeAndNaN(t *testing.T) {
	phi := grid(0, 1, 4)

	p, err := FindPeak(phi, []complex128{5, 3, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Index)
	assert.Equal(t, 0.0, p.Phi)
	assert.Equal(t, 5.0, p.Amplitude)

	p, err = FindPeak(phi, []complex128{cmplx.NaN(), 1, 4, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Index)

	p, err = FindPeak(phi, []complex128{1, cmplx.NaN(), 4, 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, p.Phi)
}

func TestFindPeakErrors(t *testing.T) {
	_, err := FindPeak(nil, nil)
	assert.True(t, errors.Is(err, ErrEmptySpectrum))

	_, err = FindPeak([]float64{1}, []complex128{1, 2})
	assert.True(t, errors.Is(err, ErrLengthMismatch))

	_, err = FindPeak([]float64{1, 2}, []complex128{0, 0})
	assert.True(t, errors.Is(err, ErrNoFinitePeak))

	_, err = FindPeak([]float64{1, 2}, []complex128{cmplx.NaN(), cmplx.NaN()})
	assert.True(t, errors.Is(err, ErrNoFinitePeak))
}

func TestFWHMGaussian(t *testing.T) {
	phi := grid(-20, 0.1, 401)
	sigma := 2.0
	fdf := gaussianFDF(phi, 0, sigma, 1, 0)

	w, err := FWHM(phi, fdf)
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Sqrt(2*math.Ln2)*sigma, w, 0.01)
}

func TestFWHMNoHalfMaximum(t *testing.T) {
	phi := grid(-1, 0.5, 5)
	_, err := FWHM(phi, gaussianFDF(phi, 0, 10, 1, 0))
	assert.True(t, errors.Is(err, ErrNoHalfMaximum))
}

func TestTheoreticalResolution(t *testing.T) {
	freqs := testutil.MWAFineChannels(169, 1.28, 24)
	r, err := TheoreticalResolution(testutil.Shuffled(5, freqs))
	require.NoError(t, err)

	l2 := spectral.WavelengthSquared(freqs)
	lo, hi := l2[len(l2)-1], l2[0]
	assert.Equal(t, 24, r.ChannelCount)
	assert.Equal(t, 24, r.DistinctCount)
	assert.InDelta(t, lo, r.LambdaSqMin, 1e-15)
	assert.InDelta(t, hi, r.LambdaSqMax, 1e-15)
	assert.InDelta(t, 2*math.Sqrt(3)/(hi-lo), r.RMSFWidth, 1e-9)
	assert.InDelta(t, math.Pi/lo, r.MaxScale, 1e-9)
	assert.InDelta(t, l2[len(l2)-2]-lo, r.ChannelWidth, 1e-12)
	assert.InDelta(t, math.Sqrt(3)/r.ChannelWidth, r.MaxDepth, 1e-9)
}

func TestTheoreticalResolutionErrors(t *testing.T) {
	_, err := TheoreticalResolution(nil)
	assert.True(t, errors.Is(err, ErrTooFewChannels))

	_, err = TheoreticalResolution([]float64{150e6, 150e6})
	assert.True(t, errors.Is(err, ErrTooFewChannels))

	_, err = TheoreticalResolution([]float64{150e6, -1})
	assert.Error(t, err)
}
