package cube

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var ErrOutputExists = errors.New("cube: output file already exists")

// BuildConfig configures Build.
type BuildConfig struct {
	// FitsDir is scanned for channel images when Catalog is nil.
	FitsDir string
	// Catalog overrides the directory scan.
	Catalog *Catalog
	// OutDir receives cube_<POL>.fits and frequency.txt. It is created if
	// missing.
	OutDir string
	// Pol is the polarization stacked into the cube.
	Pol Stokes
	// FrequencyPol selects the images whose frequencies define the channel
	// list. Defaults to StokesI.
	FrequencyPol Stokes
	// FrequencyAxis populates the frequency-axis WCS of the cube header.
	FrequencyAxis bool
	// Overwrite replaces an existing cube file instead of failing.
	Overwrite bool
	// Reader reads channel images. Defaults to ReadImage.
	Reader ImageReader
}

// BuildResult describes a written cube.
type BuildResult struct {
	CubePath        string
	FreqListPath    string
	FreqListWritten bool
	FreqsHz         []float64
	Cube            *Cube
	Header          Header
}

// CubeFileName returns the cube file name for pol.
func CubeFileName(pol Stokes) string { return "cube_" + string(pol) + ".fits" }

// Build stacks the pol channel images into a cube and writes it with its
// frequency list. The channel list is the ascending set of FrequencyPol
// frequencies; every one of them must have a pol image. The header is
// derived from the lowest-frequency pol image.
func Build(ctx context.Context, cfg BuildConfig) (*BuildResult, error) {
	if cfg.FrequencyPol == "" {
		cfg.FrequencyPol = StokesI
	}
	if cfg.Reader == nil {
		cfg.Reader = ReadImage
	}
	if _, err := ParseStokes(string(cfg.Pol)); err != nil {
		return nil, err
	}

	cat := cfg.Catalog
	if cat == nil {
		var err error
		if cat, err = ScanDir(cfg.FitsDir); err != nil {
			return nil, err
		}
	}

	freqsMHz := cat.Frequencies(cfg.FrequencyPol)
	if len(freqsMHz) == 0 {
		return nil, fmt.Errorf("%w: no %s images", ErrNoChannels, cfg.FrequencyPol)
	}
	freqsHz := make([]float64, len(freqsMHz))
	for i, f := range freqsMHz {
		freqsHz[i] = f * 1e6
	}

	cubePath := filepath.Join(cfg.OutDir, CubeFileName(cfg.Pol))
	if !cfg.Overwrite {
		if _, err := os.Stat(cubePath); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, cubePath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("cube: stat %s: %w", cubePath, err)
		}
	}

	// The template image is also channel 0; read it once.
	var template Header
	c, err := Assemble(len(freqsMHz), func(ch int) (Plane, error) {
		if err := ctx.Err(); err != nil {
			return Plane{}, err
		}
		path, err := cat.Lookup(freqsMHz[ch], cfg.Pol)
		if err != nil {
			return Plane{}, err
		}
		p, h, err := cfg.Reader(path)
		if ch == 0 {
			template = h
		}
		return p, err
	})
	if err != nil {
		return nil, err
	}

	var opts []HeaderOption
	if cfg.FrequencyAxis {
		opts = append(opts, WithFrequencyAxis(freqsHz))
	}
	hdr, err := DeriveCubeHeader(template, len(freqsMHz), opts...)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("cube: create %s: %w", cfg.OutDir, err)
	}
	if err := WriteCube(cubePath, c, hdr); err != nil {
		return nil, err
	}

	listPath := filepath.Join(cfg.OutDir, FrequencyListName)
	written, err := WriteFrequencyList(listPath, freqsHz)
	if err != nil {
		return nil, err
	}

	return &BuildResult{
		CubePath:        cubePath,
		FreqListPath:    listPath,
		FreqListWritten: written,
		FreqsHz:         freqsHz,
		Cube:            c,
		Header:          hdr,
	}, nil
}
