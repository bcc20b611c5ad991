package cube

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-rmsynth/internal/testutil"
)

// fakeImages catalogs I/Q/U images for freqs in a shuffled order and returns
// a reader whose planes hold the channel frequency at pixel (0, 0).
func fakeImages(t *testing.T, freqs []float64, nx, ny int) (*Catalog, ImageReader) {
	t.Helper()
	cat := NewCatalog()
	planes := make(map[string]float64)
	for _, f := range testutil.Shuffled(7, freqs) {
		for _, pol := range []Stokes{StokesI, StokesQ, StokesU} {
			path := fmt.Sprintf("obs_%.3fMHz_%s.fits", f, pol)
			require.NoError(t, cat.Add(ImageKey{f, pol}, path))
			planes[path] = f
		}
	}
	read := func(path string) (Plane, Header, error) {
		f, ok := planes[path]
		if !ok {
			return Plane{}, Header{}, os.ErrNotExist
		}
		h := imageHeader(nx, ny).Set("FREQ", f*1e6)
		return constPlane(nx, ny, f), h, nil
	}
	return cat, read
}

func TestBuildWritesCubeAndFrequencyList(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	cat, read := fakeImages(t, []float64{200, 100, 150}, 4, 3)

	res, err := Build(context.Background(), BuildConfig{
		Catalog: cat,
		OutDir:  out,
		Pol:     StokesQ,
		Reader:  read,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "cube_Q.fits"), res.CubePath)
	assert.True(t, res.FreqListWritten)
	assert.Equal(t, []float64{100e6, 150e6, 200e6}, res.FreqsHz)
	assert.Equal(t, []float32{100, 150, 200}, res.Cube.Spectrum(0, 0))

	n, err := res.Header.Int("NAXIS2")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	n, err = res.Header.Int("NAXIS3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, res.Header.Has("FREQ"))

	c, _, err := ReadCube(res.CubePath)
	require.NoError(t, err)
	assert.Equal(t, res.Cube.Data, c.Data)

	freqs, err := ReadFrequencyList(res.FreqListPath)
	require.NoError(t, err)
	assert.Equal(t, res.FreqsHz, freqs)

	// A second polarization reuses the existing frequency list.
	res, err = Build(context.Background(), BuildConfig{
		Catalog: cat,
		OutDir:  out,
		Pol:     StokesU,
		Reader:  read,
	})
	require.NoError(t, err)
	assert.False(t, res.FreqListWritten)
}

func TestBuildRefusesExistingCube(t *testing.T) {
	out := t.TempDir()
	cat, read := fakeImages(t, []float64{100, 150}, 2, 2)
	cfg := BuildConfig{Catalog: cat, OutDir: out, Pol: StokesQ, Reader: read}

	_, err := Build(context.Background(), cfg)
	require.NoError(t, err)

	_, err = Build(context.Background(), cfg)
	assert.True(t, errors.Is(err, ErrOutputExists))

	cfg.Overwrite = true
	_, err = Build(context.Background(), cfg)
	assert.NoError(t, err)
}

func TestBuildMissingPolarizationImage(t *testing.T) {
	cat, read := fakeImages(t, []float64{100, 150}, 2, 2)
	require.NoError(t, cat.Add(ImageKey{175, StokesI}, "only_I"))

	_, err := Build(context.Background(), BuildConfig{
		Catalog: cat,
		OutDir:  t.TempDir(),
		Pol:     StokesQ,
		Reader:  read,
	})
	assert.True(t, errors.Is(err, ErrImageNotFound))
}

func TestBuildValidation(t *testing.T) {
	_, err := Build(context.Background(), BuildConfig{Catalog: NewCatalog(), Pol: "X"})
	assert.True(t, errors.Is(err, ErrInvalidStokes))

	_, err = Build(context.Background(), BuildConfig{Catalog: NewCatalog(), Pol: StokesQ})
	assert.True(t, errors.Is(err, ErrNoChannels))
}

func TestBuildCancelled(t *testing.T) {
	cat, read := fakeImages(t, []float64{100, 150}, 2, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, BuildConfig{Catalog: cat, OutDir: t.TempDir(), Pol: StokesQ, Reader: read})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBuildFrequencyAxis(t *testing.T) {
	cat, read := fakeImages(t, []float64{100, 150}, 2, 2)

	res, err := Build(context.Background(), BuildConfig{
		Catalog:       cat,
		OutDir:        t.TempDir(),
		Pol:           StokesU,
		FrequencyAxis: true,
		Reader:        read,
	})
	require.NoError(t, err)
	assert.Equal(t, "FREQ", res.Header.Value("CTYPE1"))
	assert.Equal(t, 100e6, res.Header.Value("CRVAL1"))
}
