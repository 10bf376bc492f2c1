package commands

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/TrevorS/dmaps"
	"github.com/TrevorS/dmaps/internal/csvio"
	"github.com/TrevorS/dmaps/internal/dataset"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSteepest(t *testing.T) {
	grid := []float64{0.01, 0.1, 1, 10, 100}
	// Slopes: 0, 1, 2, 0.
	sums := []float64{10, 10, 100, 10000, 10000}
	assert.Equal(t, 3, steepest(grid, sums))
	assert.InDelta(t, 2.0, logSlope(grid, sums, 3), 1e-12)
}

func TestFormatError(t *testing.T) {
	err := errors.WithHint(errors.New("solver did not converge"), "raise the iteration cap")
	msg := FormatError(err)
	assert.Contains(t, msg, "solver did not converge")
	assert.Contains(t, msg, "raise the iteration cap")

	assert.Equal(t, "plain", FormatError(errors.New("plain")))
}

func TestEmbedCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "line.csv")
	f, err := os.Create(input)
	require.NoError(t, err)
	require.NoError(t, csvio.WritePoints(f, dataset.Line(40)))
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "out")
	EmbedCmd.SetArgs([]string{input, "-k", "3", "--out", out, "--write-data"})
	require.NoError(t, EmbedCmd.Execute())

	values := readColumn(t, filepath.Join(out, csvio.ValuesFile))
	require.Len(t, values, 3)
	assert.InDelta(t, 1.0, values[0], 1e-8)
	assert.GreaterOrEqual(t, values[0], values[1])
	assert.GreaterOrEqual(t, values[1], values[2])

	vectors, err := csvio.ReadPointsFile(filepath.Join(out, csvio.VectorsFile))
	require.NoError(t, err)
	assert.Len(t, vectors, 40)
	assert.Len(t, vectors[0], 3)

	data, err := csvio.ReadPointsFile(filepath.Join(out, csvio.DataFile))
	require.NoError(t, err)
	assert.Len(t, data, 40)
}

func TestVersionInfo(t *testing.T) {
	info := versionInfo()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func readColumn(t *testing.T, path string) []float64 {
	t.Helper()
	rows, err := csvio.ReadPointsFile(path)
	require.NoError(t, err)
	col := make([]float64, len(rows))
	for i, r := range rows {
		require.Len(t, r, 1)
		col[i] = r[0]
	}
	return col
}

func TestSwissRollKernelEmbedding(t *testing.T) {
	out := t.TempDir()
	SwissRollCmd.SetArgs([]string{"-n", "150", "--data-seed", "7", "--kernel-eps", "25", "-k", "3", "--out", out})
	require.NoError(t, SwissRollCmd.Execute())

	values := readColumn(t, filepath.Join(out, csvio.ValuesFile))
	require.Len(t, values, 3)
	for _, v := range values {
		assert.False(t, math.IsNaN(v))
		assert.LessOrEqual(t, math.Abs(v), 1+1e-8)
	}
	data, err := csvio.ReadPointsFile(filepath.Join(out, csvio.DataFile))
	require.NoError(t, err)
	assert.Len(t, data, 150)
}

func TestSwissRollRejectsNegativeKernelEps(t *testing.T) {
	SwissRollCmd.SetArgs([]string{"-n", "10", "--kernel-eps", "-1", "--out", t.TempDir()})
	err := SwissRollCmd.Execute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, dmaps.ErrInput))
}

func TestEmbedCommandNumbered(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "line.txt")
	f, err := os.Create(input)
	require.NoError(t, err)
	for _, p := range dataset.Line(20) {
		_, err := f.WriteString(strconv.FormatFloat(p[0], 'g', -1, 64) + "   0\n")
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "out")
	for range 2 {
		EmbedCmd.SetArgs([]string{input, "-k", "2", "--out", out, "--numbered"})
		require.NoError(t, EmbedCmd.Execute())
	}
	for _, run := range []string{"run0", "run1"} {
		values := readColumn(t, filepath.Join(out, run, csvio.ValuesFile))
		assert.Len(t, values, 2)
	}
}

func TestEmbedCommandCirclePairs(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "circle.csv")
	f, err := os.Create(input)
	require.NoError(t, err)
	require.NoError(t, csvio.WritePoints(f, dataset.Circle(60)))
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "out")
	EmbedCmd.SetArgs([]string{input, "-k", "5", "--bandwidth", "0.3", "--out", out, "--numbered=false"})
	require.NoError(t, EmbedCmd.Execute())

	// The Fourier modes of a circle come in equal pairs.
	values := readColumn(t, filepath.Join(out, csvio.ValuesFile))
	require.Len(t, values, 5)
	assert.InDelta(t, 1.0, values[0], 1e-8)
	assert.InDelta(t, values[1], values[2], 1e-8)
	assert.InDelta(t, values[3], values[4], 1e-8)
	assert.Greater(t, values[2], values[3])
}
