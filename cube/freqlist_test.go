package cube

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrequencyListFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FrequencyListName)

	written, err := WriteFrequencyList(path, []float64{169.28e6, 170.56e6})
	require.NoError(t, err)
	assert.True(t, written)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "169280000.0\n170560000.0\n", string(raw))

	got, err := ReadFrequencyList(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{169.28e6, 170.56e6}, got)
}

func TestWriteFrequencyListKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), FrequencyListName)
	require.NoError(t, os.WriteFile(path, []byte("1.0\n"), 0o644))

	written, err := WriteFrequencyList(path, []float64{2, 3})
	require.NoError(t, err)
	assert.False(t, written)

	got, err := ReadFrequencyList(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, got)
}

func TestReadFrequencyListErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadFrequencyList(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("1.0\n\nabc\n"), 0o644))
	_, err = ReadFrequencyList(bad)
	assert.ErrorContains(t, err, ":3:")
}
