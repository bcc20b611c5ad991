package cmd

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-rmsynth/cube"
)

const (
	testNRA   = 4
	testNDec  = 3
	testNChan = 32
	testRM    = 20.0
)

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// writeChannelImages writes I, Q and U images of a source with |P| = 1 at
// Faraday depth testRM, equal in every pixel.
func writeChannelImages(t *testing.T, dir string) {
	t.Helper()
	for k := range testNChan {
		mhz := 168.0 + 1.28*float64(k)
		lsq := math.Pow(299792458.0/(mhz*1e6), 2)
		values := map[string]float64{
			"I": 1,
			"Q": math.Cos(2 * testRM * lsq),
			"U": math.Sin(2 * testRM * lsq),
		}
		for pol, v := range values {
			data := make([]float32, testNRA*testNDec)
			for i := range data {
				data[i] = float32(v)
			}
			hdr := cube.NewHeader(
				cube.Card{Key: "CTYPE1", Value: "RA---SIN"},
				cube.Card{Key: "CTYPE2", Value: "DEC--SIN"},
				cube.Card{Key: "CRPIX1", Value: 2.0},
				cube.Card{Key: "CRPIX2", Value: 2.0},
				cube.Card{Key: "CRVAL1", Value: 0.0},
				cube.Card{Key: "CRVAL2", Value: -27.0},
				cube.Card{Key: "CDELT1", Value: -0.1},
				cube.Card{Key: "CDELT2", Value: 0.1},
				cube.Card{Key: "FREQ", Value: mhz * 1e6},
			)
			name := fmt.Sprintf("obs_%.3fMHz_%s.fits", mhz, pol)
			require.NoError(t, cube.WriteFloat32(filepath.Join(dir, name), []int{testNRA, testNDec, 1, 1}, data, hdr))
		}
	}
}

func buildCubes(t *testing.T) string {
	t.Helper()
	fitsDir, outDir := t.TempDir(), filepath.Join(t.TempDir(), "cubes")
	writeChannelImages(t, fitsDir)

	stdout, _, err := run(t, "cube", "--fits-dir", fitsDir, "--out-dir", outDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "cube_Q.fits")
	assert.Contains(t, stdout, "cube_U.fits")
	return outDir
}

func TestCubeCommand(t *testing.T) {
	outDir := buildCubes(t)

	q, hdr, err := cube.ReadCube(filepath.Join(outDir, "cube_Q.fits"))
	require.NoError(t, err)
	assert.Equal(t, testNChan, q.NChan)
	assert.Equal(t, testNRA, q.NRA)
	assert.Equal(t, testNDec, q.NDec)
	assert.Equal(t, "RA---SIN", hdr.Value("CTYPE2"))

	freqs, err := cube.ReadFrequencyList(filepath.Join(outDir, cube.FrequencyListName))
	require.NoError(t, err)
	require.Len(t, freqs, testNChan)
	assert.InDelta(t, 168e6, freqs[0], 1)

	_, _, err = run(t, "cube", "--fits-dir", t.TempDir(), "--out-dir", outDir)
	assert.Error(t, err)
}

func TestCubeCommandRefusesExistingCube(t *testing.T) {
	fitsDir, outDir := t.TempDir(), t.TempDir()
	writeChannelImages(t, fitsDir)

	_, _, err := run(t, "cube", "--fits-dir", fitsDir, "--out-dir", outDir, "--pol", "Q")
	require.NoError(t, err)

	_, _, err = run(t, "cube", "--fits-dir", fitsDir, "--out-dir", outDir, "--pol", "Q")
	require.Error(t, err)
	assert.ErrorIs(t, err, cube.ErrOutputExists)

	_, _, err = run(t, "cube", "--fits-dir", fitsDir, "--out-dir", outDir, "--pol", "Q", "--overwrite")
	assert.NoError(t, err)
}

func TestCubeCommandRejectsUnknownPol(t *testing.T) {
	fitsDir := t.TempDir()
	writeChannelImages(t, fitsDir)

	_, _, err := run(t, "cube", "--fits-dir", fitsDir, "--out-dir", t.TempDir(), "--pol", "X")
	assert.Error(t, err)
}

func TestFailedRunStillWritesMetrics(t *testing.T) {
	fitsDir := t.TempDir()
	writeChannelImages(t, fitsDir)
	metrics := filepath.Join(t.TempDir(), "rmsynth.prom")

	_, _, err := run(t, "--metrics-file", metrics, "cube",
		"--fits-dir", fitsDir, "--out-dir", t.TempDir(), "--pol", "Q,X")
	require.Error(t, err)

	raw, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `rmsynth_cubes_written_total{pol="Q"} 1`)
	assert.Contains(t, string(raw), "rmsynth_channels_stacked_total 32")
}

func TestSynthCommandFindsInjectedDepth(t *testing.T) {
	outDir := buildCubes(t)
	metrics := filepath.Join(t.TempDir(), "rmsynth.prom")

	stdout, _, err := run(t, "--metrics-file", metrics, "synth",
		"--freqs", filepath.Join(outDir, cube.FrequencyListName),
		"--q", filepath.Join(outDir, "cube_Q.fits"),
		"--u", filepath.Join(outDir, "cube_U.fits"),
		"--x", "1", "--y", "2")
	require.NoError(t, err)

	var rows int
	var peakLine string
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		switch {
		case strings.HasPrefix(line, "# peak"):
			peakLine = line
		case !strings.HasPrefix(line, "#"):
			rows++
		}
	}
	assert.Equal(t, 801, rows)
	require.NotEmpty(t, peakLine)

	fields := strings.Fields(peakLine)
	require.Len(t, fields, 5)
	phi, err := strconv.ParseFloat(strings.TrimPrefix(fields[2], "phi="), 64)
	require.NoError(t, err)
	amp, err := strconv.ParseFloat(strings.TrimPrefix(fields[3], "|F|="), 64)
	require.NoError(t, err)
	assert.InDelta(t, testRM, phi, 0.5)
	assert.InDelta(t, 1.0, amp, 0.05)

	raw, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "rmsynth_spectra_synthesized_total 1")
}

func TestSynthCommandPixelOutOfRange(t *testing.T) {
	outDir := buildCubes(t)

	_, _, err := run(t, "synth",
		"--freqs", filepath.Join(outDir, cube.FrequencyListName),
		"--q", filepath.Join(outDir, "cube_Q.fits"),
		"--u", filepath.Join(outDir, "cube_U.fits"),
		"--x", strconv.Itoa(testNRA), "--y", "0")
	assert.Error(t, err)
}

func TestRMSFCommand(t *testing.T) {
	outDir := buildCubes(t)

	stdout, _, err := run(t, "rmsf",
		"--freqs", filepath.Join(outDir, cube.FrequencyListName),
		"--phi-lim", "50", "--dphi", "1")
	require.NoError(t, err)

	assert.Contains(t, stdout, "\n0.0000 1.000000e+00 ")
	assert.Contains(t, stdout, "# fwhm ")
	assert.Contains(t, stdout, "# theoretical fwhm ")
	assert.Contains(t, stdout, "# channels 32 distinct 32")
}

func TestPeakmapCommand(t *testing.T) {
	outDir := buildCubes(t)
	out := filepath.Join(t.TempDir(), "peak.fits")

	_, _, err := run(t, "peakmap",
		"--freqs", filepath.Join(outDir, cube.FrequencyListName),
		"--q", filepath.Join(outDir, "cube_Q.fits"),
		"--u", filepath.Join(outDir, "cube_U.fits"),
		"--out", out, "--workers", "2")
	require.NoError(t, err)

	// ReadCube sees the two planes as the slowest axis.
	maps, hdr, err := cube.ReadCube(out)
	require.NoError(t, err)
	assert.Equal(t, "RA---SIN", hdr.Value("CTYPE1"))
	assert.Equal(t, "DEC--SIN", hdr.Value("CTYPE2"))

	n := testNRA * testNDec
	require.Len(t, maps.Data, 2*n)
	for i := range n {
		assert.InDelta(t, testRM, float64(maps.Data[i]), 0.5, "phi %d", i)
		assert.InDelta(t, 1.0, float64(maps.Data[n+i]), 0.05, "amplitude %d", i)
	}
}

func TestSrclistCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "pol_sky.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
obsid: 1086351512
point_center:
  ra: 0.0
  dec: -27.0
sim_freqs:
  low_freq: 169.0e6
  high_freq: 171.0e6
  bw: 1.0e6
sources:
  cal_a:
    type: calibrator
    del_ra: 15.0
    del_dec: 0.0
    rm: 20
    ref_I_Jy: 1.0
    ref_V_Jy: 0.0
    SI: 0.0
    frac_pol: 0.5
  sim_b:
    type: simulation
    del_ra: -1.5
    del_dec: 2.0
    rm: -35
    ref_I_Jy: 2.0
    ref_V_Jy: 0.0
    SI: -0.7
    frac_pol: 0.3
`), 0o644))

	outDir := filepath.Join(dir, "lists")
	stdout, _, err := run(t, "srclist", "--yaml-cfg", cfgPath, "--out-dir", outDir)
	require.NoError(t, err)

	calPath := filepath.Join(outDir, "1086351512_pol_sky_cal.txt")
	simPath := filepath.Join(outDir, "1086351512_pol_sky_sim.txt")
	assert.Contains(t, stdout, calPath)
	assert.Contains(t, stdout, simPath)

	cal, err := os.ReadFile(calPath)
	require.NoError(t, err)
	sim, err := os.ReadFile(simPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(cal), "SOURCE cal_a"))
	assert.NotContains(t, string(cal), "sim_b")
	assert.Equal(t, 2, strings.Count(string(sim), "ENDSOURCE"))
}

func TestSrclistCommandRequiresConfig(t *testing.T) {
	_, _, err := run(t, "srclist")
	assert.Error(t, err)
}

func TestGlobalFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("RMSYNTH_LOG_LEVEL", "bogus")

	_, _, err := run(t, "srclist", "--yaml-cfg", "missing.yaml")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "missing.yaml")

	_, stderr, err := run(t, "--log-level", "debug", "--log-format", "json", "srclist", "--yaml-cfg", "missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
	assert.Contains(t, stderr, `"msg":"tracing disabled; using noop tracer provider"`)
}
