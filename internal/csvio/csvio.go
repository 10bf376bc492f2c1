// Package csvio reads point sets from and writes embeddings to delimited
// text, in the layout numpy.savetxt/loadtxt use: one row per line, values
// separated by commas (or runs of whitespace), '#' starting a comment line.
package csvio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TrevorS/dmaps"
	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

// File names written by WriteEmbedding.
const (
	ValuesFile  = "eigvals.csv"
	VectorsFile = "eigvects.csv"
	DataFile    = "data.csv"
)

// Whitespace selects whitespace-separated columns in ReadPointsDelim.
const Whitespace = ' '

// ReadPoints parses one comma-separated point per row. A first row in which
// no cell is a number is taken as a header and skipped. All rows must have
// the same number of columns.
func ReadPoints(r io.Reader) ([][]float64, error) {
	return ReadPointsDelim(r, ',')
}

// ReadPointsDelim is ReadPoints with columns separated by delim. With
// Whitespace any run of spaces or tabs separates columns.
func ReadPointsDelim(r io.Reader, delim rune) ([][]float64, error) {
	next := csvRecords(r, delim)
	if delim == Whitespace {
		next = fieldRecords(r)
	}

	var points [][]float64
	first := true
	for {
		record, line, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read points")
		}

		row, err := parseRow(record)
		if err != nil {
			if first && isHeader(record) {
				first = false
				continue
			}
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if len(points) > 0 && len(row) != len(points[0]) {
			return nil, errors.Newf("line %d: %d columns, want %d", line, len(row), len(points[0]))
		}
		first = false
		points = append(points, row)
	}
	return points, nil
}

type recordFunc func() (record []string, line int, err error)

func csvRecords(r io.Reader, delim rune) recordFunc {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1 // width is checked after the header
	return func() ([]string, int, error) {
		record, err := cr.Read()
		if err != nil {
			return nil, 0, err
		}
		line, _ := cr.FieldPos(0)
		return record, line, nil
	}
}

func fieldRecords(r io.Reader) recordFunc {
	sc := bufio.NewScanner(r)
	line := 0
	return func() ([]string, int, error) {
		for sc.Scan() {
			line++
			text := strings.TrimSpace(sc.Text())
			if text == "" || strings.HasPrefix(text, "#") {
				continue
			}
			return strings.Fields(text), line, nil
		}
		if err := sc.Err(); err != nil {
			return nil, line, err
		}
		return nil, line, io.EOF
	}
}

// ReadPointsFile is ReadPoints on the named file. Files ending in .txt or
// .dat are read as whitespace-separated.
func ReadPointsFile(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open points")
	}
	defer f.Close()

	delim := ','
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".dat":
		delim = Whitespace
	}
	points, err := ReadPointsDelim(f, delim)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return points, nil
}

func parseRow(record []string) ([]float64, error) {
	row := make([]float64, len(record))
	for i, cell := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "column %d", i+1)
		}
		row[i] = v
	}
	return row, nil
}

func isHeader(record []string) bool {
	for _, cell := range record {
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
			return false
		}
	}
	return true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'e', 18, 64)
}

// WriteMatrix writes m one row per line.
func WriteMatrix(w io.Writer, m mat.Matrix) error {
	r, c := m.Dims()
	cw := csv.NewWriter(w)
	record := make([]string, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			record[j] = formatFloat(m.At(i, j))
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write row %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush matrix")
}

// WriteVector writes v one value per line.
func WriteVector(w io.Writer, v []float64) error {
	return WriteMatrix(w, mat.NewVecDense(len(v), append([]float64(nil), v...)))
}

// WriteEmbedding writes res.Values to eigvals.csv and res.Vectors to
// eigvects.csv in dir, and data to data.csv when data is non-nil.
// Eigenvectors are written as columns: row j holds the embedding of point j.
// Both eigen files start with a comment line of run parameters, see Header.
func WriteEmbedding(dir string, res *dmaps.Result, data [][]float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	header := Header(res)
	if err := writeFile(filepath.Join(dir, ValuesFile), func(w io.Writer) error {
		if _, err := io.WriteString(w, header); err != nil {
			return err
		}
		return WriteVector(w, res.Values)
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, VectorsFile), func(w io.Writer) error {
		if _, err := io.WriteString(w, header); err != nil {
			return err
		}
		return WriteMatrix(w, res.Vectors)
	}); err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	return writeFile(filepath.Join(dir, DataFile), func(w io.Writer) error {
		return WritePoints(w, data)
	})
}

// WritePoints writes one point per line.
func WritePoints(w io.Writer, points [][]float64) error {
	cw := csv.NewWriter(w)
	for i, p := range points {
		record := make([]string, len(p))
		for j, v := range p {
			record[j] = formatFloat(v)
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write point %d", i)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush points")
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()
	if err := write(f); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// Header returns the comment line "# n=...,k=...,epsilon=...,iterations=..."
// describing res, terminated by a newline.
func Header(res *dmaps.Result) string {
	n, k := res.Vectors.Dims()
	return fmt.Sprintf("# n=%d,k=%d,epsilon=%s,iterations=%d,components=%d\n",
		n, k, strconv.FormatFloat(res.Epsilon, 'g', -1, 64), res.Iterations, res.Components)
}

// ParseHeader reads the key=value pairs of a Header line.
func ParseHeader(line string) (map[string]float64, error) {
	line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
	params := make(map[string]float64)
	if line == "" {
		return params, nil
	}
	for _, kv := range strings.Split(line, ",") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errors.Newf("header field %q is not key=value", kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "header field %q", key)
		}
		params[strings.TrimSpace(key)] = v
	}
	return params, nil
}

// NextRunDir creates and returns the first of base0, base1, ... that does
// not exist yet, so repeated runs never overwrite each other.
func NextRunDir(base string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return "", errors.Wrap(err, "create output directory")
	}
	for i := 0; ; i++ {
		dir := base + strconv.Itoa(i)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", errors.Wrapf(err, "create %s", dir)
		}
	}
}
