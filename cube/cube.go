package cube

import (
	"errors"
	"fmt"
)

var (
	ErrShapeMismatch = errors.New("cube: image shape does not match first channel")
	ErrEmptyImage    = errors.New("cube: image has no pixels")
	ErrNoChannels    = errors.New("cube: no channels to assemble")
)

// Plane is one 2-D image. NX is the FITS NAXIS1 (RA) length, NY the NAXIS2
// (Dec) length; Data is row-major with x fastest: Data[y*NX+x].
type Plane struct {
	NX, NY int
	Data   []float64
}

// At returns the pixel at column x (RA) and row y (Dec).
func (p Plane) At(x, y int) float64 { return p.Data[y*p.NX+x] }

func (p Plane) validate() error {
	if p.NX <= 0 || p.NY <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyImage, p.NX, p.NY)
	}
	if len(p.Data) < p.NX*p.NY {
		return fmt.Errorf("%w: %d values for %dx%d", ErrEmptyImage, len(p.Data), p.NX, p.NY)
	}
	return nil
}

// Cube is a spectral cube ordered (Dec, RA, channel) with the channel index
// varying fastest.
type Cube struct {
	NDec, NRA, NChan int
	Data             []float32
}

// NewCube allocates a zero cube.
func NewCube(ndec, nra, nchan int) *Cube {
	return &Cube{
		NDec:  ndec,
		NRA:   nra,
		NChan: nchan,
		Data:  make([]float32, ndec*nra*nchan),
	}
}

// Index returns the offset of (dec, ra, ch) in Data.
func (c *Cube) Index(dec, ra, ch int) int {
	return (dec*c.NRA+ra)*c.NChan + ch
}

// At returns the value at (dec, ra, ch).
func (c *Cube) At(dec, ra, ch int) float32 { return c.Data[c.Index(dec, ra, ch)] }

// Spectrum returns the channel vector of one pixel. The slice aliases Data.
func (c *Cube) Spectrum(dec, ra int) []float32 {
	i := c.Index(dec, ra, 0)
	return c.Data[i : i+c.NChan : i+c.NChan]
}

// Axes returns the FITS axis lengths (NAXIS1, NAXIS2, NAXIS3) =
// (channels, RA, Dec).
func (c *Cube) Axes() []int { return []int{c.NChan, c.NRA, c.NDec} }

// PlaneLoader returns the image for channel ch.
type PlaneLoader func(ch int) (Plane, error)

// Assemble stacks nchan images into a cube. Channel ch of the cube holds the
// image returned by load(ch); every image must have the shape of the first.
// Pixels are converted to float32. A load error aborts assembly: channels
// are never skipped.
func Assemble(nchan int, load PlaneLoader) (*Cube, error) {
	if nchan <= 0 {
		return nil, ErrNoChannels
	}

	var c *Cube
	for ch := 0; ch < nchan; ch++ {
		p, err := load(ch)
		if err != nil {
			return nil, fmt.Errorf("cube: channel %d: %w", ch, err)
		}
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("cube: channel %d: %w", ch, err)
		}
		if c == nil {
			c = NewCube(p.NY, p.NX, nchan)
		} else if p.NX != c.NRA || p.NY != c.NDec {
			return nil, fmt.Errorf("%w: channel %d is %dx%d, want %dx%d", ErrShapeMismatch, ch, p.NX, p.NY, c.NRA, c.NDec)
		}

		for dec := 0; dec < c.NDec; dec++ {
			row := p.Data[dec*p.NX : (dec+1)*p.NX]
			for ra, v := range row {
				c.Data[c.Index(dec, ra, ch)] = float32(v)
			}
		}
	}
	return c, nil
}

// ImageReader reads one channel image and its header.
type ImageReader func(path string) (Plane, Header, error)

// AssembleFromCatalog assembles the pol images for freqsMHz, in the given
// order, reading each with read.
func AssembleFromCatalog(cat *Catalog, pol Stokes, freqsMHz []float64, read ImageReader) (*Cube, error) {
	return Assemble(len(freqsMHz), func(ch int) (Plane, error) {
		path, err := cat.Lookup(freqsMHz[ch], pol)
		if err != nil {
			return Plane{}, err
		}
		p, _, err := read(path)
		return p, err
	})
}
