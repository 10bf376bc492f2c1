package csvio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TrevorS/dmaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestReadPoints(t *testing.T) {
	in := `# generated points
x,y
0,1
2.5, -3
1e-3,4
`
	points, err := ReadPoints(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 1}, {2.5, -3}, {1e-3, 4}}, points)
}

func TestReadPoints_NoHeader(t *testing.T) {
	points, err := ReadPoints(strings.NewReader("1,2\n3,4\n"))
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestReadPoints_Errors(t *testing.T) {
	_, err := ReadPoints(strings.NewReader("1,2\nx,y\n"))
	assert.Error(t, err, "a non-numeric row after the first is not a header")

	_, err = ReadPoints(strings.NewReader("1,2\n3\n"))
	assert.Error(t, err, "ragged rows")

	_, err = ReadPoints(strings.NewReader("a,b\nc,d\n"))
	assert.Error(t, err, "only the first row may be a header")
}

func TestReadPointsFile_Missing(t *testing.T) {
	_, err := ReadPointsFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestWriteMatrixRoundTrip(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, -2.5, 1e-17, 0.1, 3, 1.0 / 3})
	var buf bytes.Buffer
	require.NoError(t, WriteMatrix(&buf, m))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1.000000000000000000e+00,-2.500000000000000000e+00,1.000000000000000072e-17", lines[0])

	back, err := ReadPoints(&buf)
	require.NoError(t, err)
	assert.Equal(t, mat.Row(nil, 1, m), back[1])
}

func TestWriteVector(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteVector(&buf, []float64{1, 0.5}))
	assert.Equal(t, "1.000000000000000000e+00\n5.000000000000000000e-01\n", buf.String())
}

func TestWriteEmbedding(t *testing.T) {
	data := [][]float64{{0, 0}, {1, 0}, {0, 1}}
	res, err := dmaps.EmbedVectors(data, 2, dmaps.DefaultConfig())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "nested", "out")
	require.NoError(t, WriteEmbedding(dir, res, data))

	values, err := ReadPointsFile(filepath.Join(dir, ValuesFile))
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.InDelta(t, res.Values[0], values[0][0], 1e-15)

	vectors, err := ReadPointsFile(filepath.Join(dir, VectorsFile))
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Len(t, vectors[0], 2)
	assert.Equal(t, res.Vectors.At(2, 1), vectors[2][1])

	back, err := ReadPointsFile(filepath.Join(dir, DataFile))
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestWriteEmbedding_NoData(t *testing.T) {
	res, err := dmaps.EmbedVectors([][]float64{{0}, {1}, {3}}, 1, dmaps.DefaultConfig())
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, WriteEmbedding(dir, res, nil))
	_, err = os.Stat(filepath.Join(dir, DataFile))
	assert.True(t, os.IsNotExist(err))
}

func TestReadPointsDelim_Whitespace(t *testing.T) {
	in := "# x y\n  0 1\n2.5\t-3\n\n1e-3    4\n"
	points, err := ReadPointsDelim(strings.NewReader(in), Whitespace)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 1}, {2.5, -3}, {1e-3, 4}}, points)

	_, err = ReadPointsDelim(strings.NewReader("1 2\n3\n"), Whitespace)
	assert.Error(t, err, "ragged rows")
}

func TestReadPointsDelim_Semicolon(t *testing.T) {
	points, err := ReadPointsDelim(strings.NewReader("a;b\n1;2\n"), ';')
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}}, points)
}

func TestReadPointsFile_TxtIsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 2 3\n4 5 6\n"), 0o644))
	points, err := ReadPointsFile(path)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, points)
}

func TestHeader(t *testing.T) {
	data := [][]float64{{0, 0}, {1, 0}, {0, 1}}
	res, err := dmaps.EmbedVectors(data, 2, dmaps.DefaultConfig())
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, WriteEmbedding(dir, res, nil))
	raw, err := os.ReadFile(filepath.Join(dir, VectorsFile))
	require.NoError(t, err)
	first, _, _ := strings.Cut(string(raw), "\n")
	assert.True(t, strings.HasPrefix(first, "# "))

	params, err := ParseHeader(first)
	require.NoError(t, err)
	assert.Equal(t, 3.0, params["n"])
	assert.Equal(t, 2.0, params["k"])
	assert.Equal(t, res.Epsilon, params["epsilon"])
	assert.Equal(t, 1.0, params["components"])
}

func TestParseHeader_Errors(t *testing.T) {
	params, err := ParseHeader("#")
	require.NoError(t, err)
	assert.Empty(t, params)

	_, err = ParseHeader("# n=3,k")
	assert.Error(t, err)
	_, err = ParseHeader("# n=three")
	assert.Error(t, err)
}

func TestNextRunDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out", "run")
	first, err := NextRunDir(base)
	require.NoError(t, err)
	assert.Equal(t, base+"0", first)

	second, err := NextRunDir(base)
	require.NoError(t, err)
	assert.Equal(t, base+"1", second)

	info, err := os.Stat(second)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
