package cube

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrParseFrequency = errors.New("cube: cannot parse frequency from filename")
	ErrInvalidStokes  = errors.New("cube: invalid Stokes parameter")
	ErrImageNotFound  = errors.New("cube: no image for frequency and polarization")
	ErrDuplicateImage = errors.New("cube: more than one image for frequency and polarization")
)

// Stokes names a polarization product.
type Stokes string

const (
	StokesI Stokes = "I"
	StokesQ Stokes = "Q"
	StokesU Stokes = "U"
	StokesV Stokes = "V"
)

// ParseStokes accepts I, Q, U or V in either case.
func ParseStokes(s string) (Stokes, error) {
	switch p := Stokes(strings.ToUpper(strings.TrimSpace(s))); p {
	case StokesI, StokesQ, StokesU, StokesV:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStokes, s)
}

// ImageKey identifies one channel image.
type ImageKey struct {
	FreqMHz float64
	Pol     Stokes
}

func (k ImageKey) String() string {
	return strconv.FormatFloat(k.FreqMHz, 'f', -1, 64) + "MHz/" + string(k.Pol)
}

// channelName matches names that claim to be channel images; the frequency
// group is then parsed strictly.
var (
	channelName = regexp.MustCompile(`MHz_.*[IQUV]\.fits$`)
	freqPattern = regexp.MustCompile(`_(\d{0,3}\.\d{0,3})MHz_.*([IQUV])\.fits$`)
)

// IsChannelImage reports whether name looks like a channel image, i.e.
// whether ParseFilename should be applied to it.
func IsChannelImage(name string) bool {
	return channelName.MatchString(filepath.Base(name))
}

// ParseFilename extracts frequency and polarization from a channel image
// name of the form <prefix>_<freq>MHz_<suffix><POL>.fits.
func ParseFilename(name string) (ImageKey, error) {
	base := filepath.Base(name)
	m := freqPattern.FindStringSubmatch(base)
	if m == nil {
		return ImageKey{}, fmt.Errorf("%w: %s", ErrParseFrequency, base)
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil || !(f > 0) {
		return ImageKey{}, fmt.Errorf("%w: %s: %q", ErrParseFrequency, base, m[1])
	}
	return ImageKey{FreqMHz: f, Pol: Stokes(m[2])}, nil
}

// LookupError reports a missing channel image.
type LookupError struct {
	Key ImageKey
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%v: %s", ErrImageNotFound, e.Key)
}

func (e *LookupError) Unwrap() error { return ErrImageNotFound }

// Catalog maps (frequency, polarization) to image paths.
type Catalog struct {
	paths map[ImageKey]string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{paths: make(map[ImageKey]string)}
}

// ScanDir catalogs every channel image directly inside dir. Files that do
// not look like channel images are ignored; files that do but whose
// frequency cannot be parsed fail the scan.
func ScanDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cube: scan %s: %w", dir, err)
	}

	c := NewCatalog()
	for _, e := range entries {
		if !e.Type().IsRegular() || !IsChannelImage(e.Name()) {
			continue
		}
		key, err := ParseFilename(e.Name())
		if err != nil {
			return nil, err
		}
		if err := c.Add(key, filepath.Join(dir, e.Name())); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers path under key.
func (c *Catalog) Add(key ImageKey, path string) error {
	if prev, ok := c.paths[key]; ok {
		return fmt.Errorf("%w: %s: %s and %s", ErrDuplicateImage, key, prev, path)
	}
	c.paths[key] = path
	return nil
}

// Lookup returns the image path for a frequency in MHz and a polarization.
func (c *Catalog) Lookup(freqMHz float64, pol Stokes) (string, error) {
	key := ImageKey{FreqMHz: freqMHz, Pol: pol}
	p, ok := c.paths[key]
	if !ok {
		return "", &LookupError{Key: key}
	}
	return p, nil
}

// Frequencies returns the distinct frequencies in MHz that have an image
// for pol, ascending.
func (c *Catalog) Frequencies(pol Stokes) []float64 {
	var out []float64
	for k := range c.paths {
		if k.Pol == pol {
			out = append(out, k.FreqMHz)
		}
	}
	sort.Float64s(out)
	return out
}

// Len returns the number of cataloged images.
func (c *Catalog) Len() int { return len(c.paths) }
