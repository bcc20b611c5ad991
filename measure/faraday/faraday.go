package faraday

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"sync"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-rmsynth/rm/spectral"
)

var (
	ErrEmptySpectrum  = errors.New("faraday: empty spectrum")
	ErrLengthMismatch = errors.New("faraday: phi and spectrum length mismatch")
	ErrNoFinitePeak   = errors.New("faraday: spectrum has no finite non-zero value")
	ErrNoHalfMaximum  = errors.New("faraday: main lobe does not fall to half maximum inside the grid")
	ErrTooFewChannels = errors.New("faraday: at least two distinct channels required")
)

type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

// Amplitude returns |F(phi)| for each Faraday depth.
//
// Scratch buffers are pooled, so in steady state this allocates only the
// output slice.
func Amplitude(fdf []complex128) []float64 {
	if len(fdf) == 0 {
		return nil
	}

	out := make([]float64, len(fdf))
	re, im, buf := getScratch(len(fdf))
	for i, c := range fdf {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Magnitude(out, re, im)
	scratchPool.Put(buf)
	return out
}

// Peak describes the strongest component of an FDF.
type Peak struct {
	Index     int     // grid index of the largest |F|
	GridPhi   float64 // phi[Index]
	Phi       float64 // interpolated Faraday depth, rad m^-2
	Amplitude float64 // interpolated |F|
	Angle     float64 // 0.5*arg(F) at Index, rad
}

// FindPeak locates the largest finite |F| and refines its position with a
// parabola through the neighbouring depths. Refinement is skipped at the
// grid edges and when a neighbour is not finite.
func FindPeak(phi []float64, fdf []complex128) (Peak, error) {
	if len(fdf) == 0 {
		return Peak{}, ErrEmptySpectrum
	}
	if len(phi) != len(fdf) {
		return Peak{}, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(phi), len(fdf))
	}

	amp := Amplitude(fdf)
	best := -1
	for i, a := range amp {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			continue
		}
		if best < 0 || a > amp[best] {
			best = i
		}
	}
	if best < 0 || amp[best] == 0 {
		return Peak{}, ErrNoFinitePeak
	}

	p := Peak{
		Index:     best,
		GridPhi:   phi[best],
		Phi:       phi[best],
		Amplitude: amp[best],
		Angle:     0.5 * cmplx.Phase(fdf[best]),
	}

	if best == 0 || best == len(amp)-1 {
		return p, nil
	}
	ym, y0, yp := amp[best-1], amp[best], amp[best+1]
	if math.IsNaN(ym) || math.IsNaN(yp) {
		return p, nil
	}
	denom := ym - 2*y0 + yp
	if denom == 0 {
		return p, nil
	}
	delta := 0.5 * (ym - yp) / denom
	step := phi[best+1] - phi[best]
	p.Phi = phi[best] + delta*step
	p.Amplitude = y0 - 0.25*(ym-yp)*delta
	return p, nil
}

// FWHM returns the full width at half maximum of the main lobe of an RMSF
// (or any single-peaked Faraday spectrum), in the units of phi. The
// half-power crossings are located by linear interpolation between depths.
func FWHM(phi []float64, rmsf []complex128) (float64, error) {
	peak, err := FindPeak(phi, rmsf)
	if err != nil {
		return 0, err
	}

	amp := Amplitude(rmsf)
	half := amp[peak.Index] / 2
	n := len(amp)

	lower, upper := math.NaN(), math.NaN()
	for i := peak.Index; i >= 1; i-- {
		if amp[i-1] <= half && amp[i] > half {
			lower = crossing(phi[i-1], phi[i], amp[i-1], amp[i], half)
			break
		}
	}
	for i := peak.Index; i < n-1; i++ {
		if amp[i+1] <= half && amp[i] > half {
			upper = crossing(phi[i], phi[i+1], amp[i], amp[i+1], half)
			break
		}
	}
	if math.IsNaN(lower) || math.IsNaN(upper) {
		return 0, ErrNoHalfMaximum
	}
	return upper - lower, nil
}

func crossing(x0, x1, y0, y1, level float64) float64 {
	if y1 == y0 {
		return x0
	}
	return x0 + (level-y0)*(x1-x0)/(y1-y0)
}

// Resolution summarises the Faraday-depth response of a channel layout.
type Resolution struct {
	LambdaSqMin   float64 // smallest wavelength squared, m^2
	LambdaSqMax   float64 // largest wavelength squared, m^2
	LambdaSqSpan  float64 // LambdaSqMax - LambdaSqMin
	ChannelWidth  float64 // smallest spacing between adjacent channels in lambda^2
	RMSFWidth     float64 // 2*sqrt(3)/span, rad m^-2
	MaxScale      float64 // pi/LambdaSqMin, rad m^-2
	MaxDepth      float64 // sqrt(3)/ChannelWidth, rad m^-2
	ChannelCount  int
	DistinctCount int
}

// TheoreticalResolution derives the expected RMSF width, largest
// detectable Faraday-depth scale and maximum detectable depth for the given
// frequencies in Hz.
func TheoreticalResolution(freqs []float64) (Resolution, error) {
	if err := validatePositive(freqs); err != nil {
		return Resolution{}, err
	}

	l2 := spectral.WavelengthSquared(freqs)
	sort.Float64s(l2)

	r := Resolution{
		LambdaSqMin:   l2[0],
		LambdaSqMax:   l2[len(l2)-1],
		ChannelCount:  len(l2),
		DistinctCount: 1,
		ChannelWidth:  math.Inf(1),
	}
	for i := 1; i < len(l2); i++ {
		d := l2[i] - l2[i-1]
		if d <= 0 {
			continue
		}
		r.DistinctCount++
		if d < r.ChannelWidth {
			r.ChannelWidth = d
		}
	}
	if r.DistinctCount < 2 {
		return Resolution{}, ErrTooFewChannels
	}

	r.LambdaSqSpan = r.LambdaSqMax - r.LambdaSqMin
	r.RMSFWidth = 2 * math.Sqrt(3) / r.LambdaSqSpan
	r.MaxScale = math.Pi / r.LambdaSqMin
	r.MaxDepth = math.Sqrt(3) / r.ChannelWidth
	return r, nil
}

func validatePositive(freqs []float64) error {
	if len(freqs) == 0 {
		return ErrTooFewChannels
	}
	for i, f := range freqs {
		if !(f > 0) || math.IsInf(f, 0) {
			return fmt.Errorf("faraday: frequency must be positive and finite at index %d: %v", i, f)
		}
	}
	return nil
}
