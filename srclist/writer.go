package srclist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/cwbudde/algo-rmsynth/rm/spectral"
)

// SkyPosition returns the ICRS position of a source offset by (delRA,
// delDec) degrees from (ra, dec): RA in hours wrapped to [0, 24) and Dec in
// degrees.
func SkyPosition(ra, dec, delRA, delDec float64) (raHours, decDeg float64) {
	deg := math.Mod(ra+delRA, 360)
	if deg < 0 {
		deg += 360
	}
	return deg / 15, dec + delDec
}

// Entry is one modelled source ready to be written.
type Entry struct {
	Name    string
	RAHours float64
	DecDeg  float64
	Freqs   []float64
	Stokes  spectral.Stokes
	// Degenerate lists channels whose Q and U are NaN.
	Degenerate []int
}

// Entries models every source of cfg on its simulated band, in the order
// of cfg.Names.
// When calibratorsOnly is set, other sources are skipped.
func Entries(cfg *Config, calibratorsOnly bool) ([]Entry, error) {
	freqs, err := cfg.Frequencies()
	if err != nil {
		return nil, fmt.Errorf("srclist: sim_freqs: %w", err)
	}

	ra, dec := deref(cfg.PointCenter.RA), deref(cfg.PointCenter.Dec)
	var out []Entry
	for _, name := range cfg.Names() {
		p := cfg.Sources[name]
		if calibratorsOnly && !p.IsCalibrator() {
			continue
		}

		e := Entry{Name: name, Freqs: freqs}
		e.RAHours, e.DecDeg = SkyPosition(ra, dec, deref(p.DelRA), deref(p.DelDec))

		st, err := spectral.StokesIQUV(freqs, p.Source())
		var derr *spectral.DegenerateError
		switch {
		case errors.As(err, &derr):
			e.Degenerate = derr.Channels
		case err != nil:
			return nil, fmt.Errorf("srclist: source %s: %w", name, err)
		}
		e.Stokes = st
		out = append(out, e)
	}
	return out, nil
}

// Write writes entries in RTS sourcelist format.
func Write(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		fmt.Fprintf(bw, "SOURCE %s %s %s\n", e.Name, formatCoord(e.RAHours), formatCoord(e.DecDeg))
		for i, f := range e.Freqs {
			fmt.Fprintf(bw, "FREQ %.6e %s %s %s %s\n", f,
				formatFlux(real(e.Stokes.I[i])),
				formatFlux(real(e.Stokes.Q[i])),
				formatFlux(real(e.Stokes.U[i])),
				formatFlux(real(e.Stokes.V[i])))
		}
		bw.WriteString("ENDSOURCE\n")
	}
	return bw.Flush()
}

// formatCoord prints the shortest exact decimal, always with a fraction.
func formatCoord(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for _, r := range s {
		if r == '.' || r == 'N' || r == 'I' {
			return s
		}
	}
	return s + ".0"
}

func formatFlux(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', 5, 64)
}
