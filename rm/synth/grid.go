package synth

import (
	"fmt"
	"math"
)

// maxGridLen caps the Faraday-depth grid to keep a mistyped step from
// exhausting memory.
const maxGridLen = 1 << 24

// FaradayDepths returns the trial Faraday depths -phiLim, -phiLim+dphi, ...
//
// The grid follows half-open range semantics on [-phiLim, phiLim+dphi): its
// length is ceil((2*phiLim+dphi)/dphi), so +phiLim is included when 2*phiLim
// is a multiple of dphi, and otherwise the last depth lies beyond +phiLim.
// For phiLim=200, dphi=0.5 this gives 801 depths symmetric about zero.
func FaradayDepths(phiLim, dphi float64) ([]float64, error) {
	if !(phiLim > 0) || math.IsInf(phiLim, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPhiLimit, phiLim)
	}
	if !(dphi > 0) || dphi > 2*phiLim {
		return nil, fmt.Errorf("%w: %v (phi limit %v)", ErrInvalidPhiStep, dphi, phiLim)
	}

	count := math.Ceil((phiLim + dphi - (-phiLim)) / dphi)
	if count > maxGridLen {
		return nil, fmt.Errorf("%w: %v depths exceeds %d", ErrInvalidPhiStep, count, maxGridLen)
	}

	phi := make([]float64, int(count))
	for i := range phi {
		phi[i] = -phiLim + float64(i)*dphi
	}
	return phi, nil
}
