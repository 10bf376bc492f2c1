package dmaps

import (
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// PairwiseSymmetric builds the n×n matrix M[i][j] = f(points[i], points[j])
// for a symmetric evaluator. f is called once per unordered pair (i < j);
// the symmetric storage makes M[j][i] read the same cell, so the result is
// exactly symmetric. When diagonal is false the diagonal is 0 (distances),
// otherwise it is f(points[i], points[i]) (kernels).
func PairwiseSymmetric[T any](points []T, f func(a, b T) float64, diagonal bool) *mat.SymDense {
	n := len(points)
	m := mat.NewSymDense(n, nil)
	raw := m.RawSymmetric()
	for i := 0; i < n; i++ {
		fillSymmetricRow(raw, points, f, diagonal, i)
	}
	return m
}

// PairwiseGeneral builds the n×n matrix M[i][j] = f(points[i], points[j])
// evaluating every ordered pair, including the diagonal. Use it when f is
// not known to be symmetric.
func PairwiseGeneral[T any](points []T, f func(a, b T) float64) *mat.Dense {
	n := len(points)
	m := mat.NewDense(n, n, nil)
	raw := m.RawMatrix()
	for i := 0; i < n; i++ {
		fillGeneralRow(raw, points, f, i)
	}
	return m
}

// fillSymmetricRow writes the upper-triangle cells (i, j>=i) of row i.
func fillSymmetricRow[T any](raw blas64.Symmetric, points []T, f func(a, b T) float64, diagonal bool, i int) {
	row := raw.Data[i*raw.Stride:]
	if diagonal {
		row[i] = f(points[i], points[i])
	} else {
		row[i] = 0
	}
	for j := i + 1; j < len(points); j++ {
		row[j] = f(points[i], points[j])
	}
}

func fillGeneralRow[T any](raw blas64.General, points []T, f func(a, b T) float64, i int) {
	row := raw.Data[i*raw.Stride:]
	for j := range points {
		row[j] = f(points[i], points[j])
	}
}

// checkFinite returns an ErrInput naming the first non-finite entry of m.
func checkFinite(m mat.Matrix) error {
	r, c := m.Dims()
	_, sym := m.(mat.Symmetric)
	for i := 0; i < r; i++ {
		j0 := 0
		if sym {
			j0 = i
		}
		for j := j0; j < c; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return inputErrorf("non-finite pairwise value %v at (%d, %d)", v, i, j)
			}
		}
	}
	return nil
}
