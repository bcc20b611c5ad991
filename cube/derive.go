package cube

import (
	"errors"
	"fmt"
)

// RemovedKeys are dropped from the template when deriving a cube header.
// They describe the per-image frequency, the CD rotation matrix and the
// projection parameters of the template's own layout.
var RemovedKeys = []string{
	"FREQ",
	"PV2_1",
	"PV2_2",
	"CD1_1",
	"CD1_2",
	"CD2_1",
	"CD2_2",
	"BZERO",
	"SIZEX",
	"SIZEY",
}

// axis4Keys describe the template's Stokes axis, which a 3-axis cube lacks.
var axis4Keys = []string{"NAXIS4", "CRPIX4", "CDELT4", "CRVAL4", "CTYPE4", "CUNIT4", "CROTA4"}

var wcsPrefixes = []string{"CRPIX", "CDELT", "CRVAL", "CTYPE"}

var ErrInvalidChannels = errors.New("cube: channel count must be positive")

type headerConfig struct {
	freqsHz []float64
}

// HeaderOption configures DeriveCubeHeader.
type HeaderOption func(*headerConfig)

// WithFrequencyAxis populates the WCS of the frequency axis (CTYPE1='FREQ',
// CUNIT1='Hz', CRPIX1=1, CRVAL1=freqsHz[0], CDELT1=mean spacing) instead of
// leaving it blank. freqsHz must be ascending.
func WithFrequencyAxis(freqsHz []float64) HeaderOption {
	copied := append([]float64(nil), freqsHz...)
	return func(c *headerConfig) {
		c.freqsHz = copied
	}
}

// DeriveCubeHeader returns a 3-axis cube header built from a 2-D image
// header. template is not modified.
//
//   - NAXIS = 3, NAXIS1 = nchan (frequency)
//   - NAXIS2, CRPIX2, CDELT2, CRVAL2, CTYPE2 take the template's axis-1 (RA) values
//   - NAXIS3, CRPIX3, CDELT3, CRVAL3, CTYPE3 take the template's axis-2 (Dec) values
//   - CRPIX1, CDELT1, CRVAL1, CTYPE1 are blanked unless WithFrequencyAxis is given
//   - RemovedKeys and the axis-4 keys are dropped
//
// NAXIS1 and NAXIS2 are required; a WCS key missing from the template is
// absent from the result too.
func DeriveCubeHeader(template Header, nchan int, opts ...HeaderOption) (Header, error) {
	if nchan <= 0 {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidChannels, nchan)
	}
	var cfg headerConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	nra, err := template.Int("NAXIS1")
	if err != nil {
		return Header{}, fmt.Errorf("cube: template header: %w", err)
	}
	ndec, err := template.Int("NAXIS2")
	if err != nil {
		return Header{}, fmt.Errorf("cube: template header: %w", err)
	}

	h := template.Clone().
		Set("NAXIS", 3).
		Set("NAXIS1", nchan).
		Set("NAXIS2", nra).
		Set("NAXIS3", ndec)

	for _, p := range wcsPrefixes {
		h = h.Set(p+"1", BlankValue)
		h = copyKey(h, template, p+"1", p+"2")
		h = copyKey(h, template, p+"2", p+"3")
	}

	h = h.Delete(RemovedKeys...).Delete(axis4Keys...)

	if len(cfg.freqsHz) > 0 {
		h = withFrequencyWCS(h, template, cfg.freqsHz)
	}
	return h, nil
}

// copyKey sets dst[to] = src[from] verbatim, or removes dst[to] when src
// has no such key.
func copyKey(dst, src Header, from, to string) Header {
	c, ok := src.Get(from)
	if !ok {
		return dst.Delete(to)
	}
	if existing, ok := dst.Get(to); ok && c.Comment == "" {
		c.Comment = existing.Comment
	}
	c.Key = to
	return dst.SetCard(c)
}

func withFrequencyWCS(h, template Header, freqsHz []float64) Header {
	step := 0.0
	if n := len(freqsHz); n > 1 {
		step = (freqsHz[n-1] - freqsHz[0]) / float64(n-1)
	}
	h = copyKey(h, template, "CUNIT1", "CUNIT2")
	h = copyKey(h, template, "CUNIT2", "CUNIT3")
	return h.
		SetCard(Card{Key: "CTYPE1", Value: "FREQ", Comment: "frequency axis"}).
		SetCard(Card{Key: "CUNIT1", Value: "Hz"}).
		SetCard(Card{Key: "CRPIX1", Value: 1.0}).
		SetCard(Card{Key: "CRVAL1", Value: freqsHz[0]}).
		SetCard(Card{Key: "CDELT1", Value: step})
}

// DeriveImageHeader returns the header of a per-pixel map of a cube: the
// cube's RA and Dec axes become axes 1 and 2 again and nplanes map planes
// form axis 3. It inverts the axis shuffle of DeriveCubeHeader.
func DeriveImageHeader(cubeHeader Header, nplanes int) (Header, error) {
	if nplanes <= 0 {
		return Header{}, fmt.Errorf("%w: %d planes", ErrInvalidChannels, nplanes)
	}
	nra, err := cubeHeader.Int("NAXIS2")
	if err != nil {
		return Header{}, fmt.Errorf("cube: cube header: %w", err)
	}
	ndec, err := cubeHeader.Int("NAXIS3")
	if err != nil {
		return Header{}, fmt.Errorf("cube: cube header: %w", err)
	}

	h := cubeHeader.Clone().
		Set("NAXIS", 3).
		Set("NAXIS1", nra).
		Set("NAXIS2", ndec).
		Set("NAXIS3", nplanes)

	for _, p := range append(wcsPrefixes, "CUNIT") {
		h = copyKey(h, cubeHeader, p+"2", p+"1")
		h = copyKey(h, cubeHeader, p+"3", p+"2")
		h = h.Delete(p + "3")
	}
	return h, nil
}
