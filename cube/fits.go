package cube

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"
)

var ErrNotImage = errors.New("cube: primary HDU is not an image")

// structural keys are generated by the FITS writer from the data shape.
func isStructural(key string) bool {
	switch key {
	case "SIMPLE", "BITPIX", "NAXIS", "EXTEND", "END", "XTENSION", "PCOUNT", "GCOUNT":
		return true
	}
	if strings.HasPrefix(key, "NAXIS") {
		_, err := strconv.Atoi(key[len("NAXIS"):])
		return err == nil
	}
	return false
}

// scaling keys describe stored integers; pixels are returned physical, so
// the keys are dropped on read and never written for float data.
func isScaling(key string) bool {
	return key == "BSCALE" || key == "BZERO" || key == "BLANK"
}

func isCommentary(key string) bool {
	return key == "COMMENT" || key == "HISTORY" || key == ""
}

func headerFromFITS(hdr *fitsio.Header) Header {
	var h Header
	for _, k := range hdr.Keys() {
		if isCommentary(k) || isScaling(k) || h.Has(k) {
			continue
		}
		c := hdr.Get(k)
		if c == nil {
			continue
		}
		h = h.SetCard(Card{Key: c.Name, Value: c.Value, Comment: c.Comment})
	}
	return h
}

func cardsForFITS(h Header) []fitsio.Card {
	cards := make([]fitsio.Card, 0, h.Len())
	for _, c := range h.cards {
		if isStructural(c.Key) || isCommentary(c.Key) || isScaling(c.Key) {
			continue
		}
		cards = append(cards, fitsio.Card{Name: c.Key, Value: c.Value, Comment: c.Comment})
	}
	return cards
}

func readPrimary(path string) (fitsio.Image, *fitsio.File, *os.File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cube: open %s: %w", path, err)
	}
	f, err := fitsio.Open(r)
	if err != nil {
		r.Close()
		return nil, nil, nil, fmt.Errorf("cube: read %s: %w", path, err)
	}
	img, ok := f.HDU(0).(fitsio.Image)
	if !ok {
		f.Close()
		r.Close()
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrNotImage, path)
	}
	return img, f, r, nil
}

func readPixels(img fitsio.Image) ([]float64, []int, error) {
	axes := img.Header().Axes()
	n := 1
	for _, a := range axes {
		n *= a
	}
	if len(axes) == 0 {
		n = 0
	}
	var (
		data []float64
		err  error
	)
	switch bitpix := img.Header().Bitpix(); bitpix {
	case 8:
		data, err = readAs[uint8](img, n)
	case 16:
		data, err = readAs[int16](img, n)
	case 32:
		data, err = readAs[int32](img, n)
	case 64:
		data, err = readAs[int64](img, n)
	case -32:
		data, err = readAs[float32](img, n)
	case -64:
		data, err = readAs[float64](img, n)
	default:
		err = fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
	if err != nil {
		return nil, nil, err
	}
	if err := applyScaling(img.Header(), data); err != nil {
		return nil, nil, err
	}
	return data, axes, nil
}

// applyScaling converts stored values to physical ones in place:
// BZERO + BSCALE*v, with integer BLANK pixels set to NaN.
func applyScaling(hdr *fitsio.Header, data []float64) error {
	scale, err := numericCard(hdr, "BSCALE", 1)
	if err != nil {
		return err
	}
	zero, err := numericCard(hdr, "BZERO", 0)
	if err != nil {
		return err
	}

	blank, hasBlank := math.NaN(), false
	if hdr.Bitpix() > 0 && hdr.Get("BLANK") != nil {
		if blank, err = numericCard(hdr, "BLANK", 0); err != nil {
			return err
		}
		hasBlank = true
	}

	if scale == 1 && zero == 0 && !hasBlank {
		return nil
	}
	for i, v := range data {
		if hasBlank && v == blank {
			data[i] = math.NaN()
			continue
		}
		data[i] = zero + scale*v
	}
	return nil
}

func numericCard(hdr *fitsio.Header, key string, def float64) (float64, error) {
	c := hdr.Get(key)
	if c == nil {
		return def, nil
	}
	switch v := c.Value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%s has non-numeric value %v", key, c.Value)
}

// readAs reads pixels in their stored type and widens them to float64.
func readAs[T uint8 | int16 | int32 | int64 | float32 | float64](img fitsio.Image, n int) ([]float64, error) {
	raw := make([]T, n)
	if err := img.Read(&raw); err != nil {
		return nil, err
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out, nil
}

// ReadImage reads the primary image of a FITS file as a 2-D plane. Extra
// axes (frequency, Stokes) must be degenerate; the first plane is returned.
func ReadImage(path string) (Plane, Header, error) {
	img, f, r, err := readPrimary(path)
	if err != nil {
		return Plane{}, Header{}, err
	}
	defer r.Close()
	defer f.Close()

	data, axes, err := readPixels(img)
	if err != nil {
		return Plane{}, Header{}, fmt.Errorf("cube: read pixels %s: %w", path, err)
	}
	if len(axes) < 2 || len(data) < axes[0]*axes[1] {
		return Plane{}, Header{}, fmt.Errorf("%w: %s has axes %v", ErrEmptyImage, path, axes)
	}
	for i, a := range axes[2:] {
		if a != 1 {
			return Plane{}, Header{}, fmt.Errorf("cube: %s: axis %d has length %d, want 1", path, i+3, a)
		}
	}

	p := Plane{NX: axes[0], NY: axes[1], Data: data[:axes[0]*axes[1]]}
	return p, headerFromFITS(img.Header()), nil
}

// ReadCube reads a cube written by WriteCube.
func ReadCube(path string) (*Cube, Header, error) {
	img, f, r, err := readPrimary(path)
	if err != nil {
		return nil, Header{}, err
	}
	defer r.Close()
	defer f.Close()

	data, axes, err := readPixels(img)
	if err != nil {
		return nil, Header{}, fmt.Errorf("cube: read pixels %s: %w", path, err)
	}
	if len(axes) != 3 || len(data) != axes[0]*axes[1]*axes[2] {
		return nil, Header{}, fmt.Errorf("cube: %s has axes %v, want 3", path, axes)
	}

	c := NewCube(axes[2], axes[1], axes[0])
	for i, v := range data {
		c.Data[i] = float32(v)
	}
	return c, headerFromFITS(img.Header()), nil
}

// WriteCube writes c as a 32-bit float FITS primary image with header h.
// Structural keys (SIMPLE, BITPIX, NAXISn) come from the cube shape.
func WriteCube(path string, c *Cube, h Header) error {
	return WriteFloat32(path, c.Axes(), c.Data, h)
}

// WriteFloat32 writes data as a 32-bit float FITS primary image. axes are
// FITS order (NAXIS1 first) and data is NAXIS1-fastest.
func WriteFloat32(path string, axes []int, data []float32, h Header) (err error) {
	n := 1
	for _, a := range axes {
		n *= a
	}
	if n != len(data) {
		return fmt.Errorf("%w: %d values for axes %v", ErrShapeMismatch, len(data), axes)
	}

	w, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("cube: create %s: %w", path, err)
	}
	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("cube: close %s: %w", path, cerr)
		}
	}()

	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("cube: create %s: %w", path, err)
	}
	defer f.Close()

	img := fitsio.NewImage(-32, axes)
	defer img.Close()

	if err := img.Header().Append(cardsForFITS(h)...); err != nil {
		return fmt.Errorf("cube: header %s: %w", path, err)
	}
	if err := img.Write(&data); err != nil {
		return fmt.Errorf("cube: pixels %s: %w", path, err)
	}
	if err := f.Write(img); err != nil {
		return fmt.Errorf("cube: write %s: %w", path, err)
	}
	return nil
}
