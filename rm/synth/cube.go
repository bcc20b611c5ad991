package synth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-rmsynth/cube"
	"github.com/cwbudde/algo-rmsynth/measure/faraday"
)

var ErrCubeMismatch = errors.New("synth: Q and U cubes differ in shape")

// PeakMaps holds the per-pixel FDF peak of a cube. Maps are row-major with
// RA fastest: index dec*NRA + ra. Pixels without a finite peak are NaN.
type PeakMaps struct {
	NDec, NRA     int
	PeakPhi       []float64
	PeakAmplitude []float64
	// Blank counts pixels whose FDF had no finite non-zero peak.
	Blank int
}

// At returns the peak depth and amplitude of pixel (dec, ra).
func (m *PeakMaps) At(dec, ra int) (phi, amp float64) {
	i := dec*m.NRA + ra
	return m.PeakPhi[i], m.PeakAmplitude[i]
}

// SynthesizeCube runs RM synthesis on every pixel of matching Q and U cubes
// and records the interpolated FDF peak. Rows are processed concurrently,
// bounded by WithWorkers; the first error or a cancelled ctx stops the run.
func SynthesizeCube(ctx context.Context, q, u *cube.Cube, freqs []float64, opts ...Option) (*PeakMaps, error) {
	if q == nil || u == nil {
		return nil, fmt.Errorf("%w: nil cube", ErrCubeMismatch)
	}
	if q.NDec != u.NDec || q.NRA != u.NRA || q.NChan != u.NChan {
		return nil, fmt.Errorf("%w: Q %dx%dx%d, U %dx%dx%d",
			ErrCubeMismatch, q.NDec, q.NRA, q.NChan, u.NDec, u.NRA, u.NChan)
	}
	if q.NChan != len(freqs) {
		return nil, fmt.Errorf("%w: %d frequencies for %d channels", ErrLengthMismatch, len(freqs), q.NChan)
	}

	e, err := NewEngine(freqs, opts...)
	if err != nil {
		return nil, err
	}

	n := q.NDec * q.NRA
	m := &PeakMaps{
		NDec:          q.NDec,
		NRA:           q.NRA,
		PeakPhi:       make([]float64, n),
		PeakAmplitude: make([]float64, n),
	}

	var blank atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for dec := 0; dec < q.NDec; dec++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := make([]complex128, q.NChan)
			for ra := 0; ra < q.NRA; ra++ {
				qs, us := q.Spectrum(dec, ra), u.Spectrum(dec, ra)
				for ch := range p {
					p[ch] = complex(float64(qs[ch]), float64(us[ch]))
				}
				fdf := e.dft(p, e.phi)

				i := dec*q.NRA + ra
				peak, err := faraday.FindPeak(e.phi, fdf)
				if errors.Is(err, faraday.ErrNoFinitePeak) {
					m.PeakPhi[i], m.PeakAmplitude[i] = math.NaN(), math.NaN()
					blank.Add(1)
					continue
				}
				if err != nil {
					return fmt.Errorf("synth: pixel (%d, %d): %w", dec, ra, err)
				}
				m.PeakPhi[i], m.PeakAmplitude[i] = peak.Phi, peak.Amplitude
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m.Blank = int(blank.Load())
	return m, nil
}
