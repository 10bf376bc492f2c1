package dmaps

import (
	"math"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

// Operator is the symmetric conjugate of a row-stochastic Markov matrix.
//
// With P = D⁻¹W the random walk on the affinity graph, S = D^(-1/2) W D^(-1/2)
// is similar to P: both have the same eigenvalues, and an eigenvector v of S
// maps to the eigenvector D^(-1/2) v of P.
type Operator struct {
	// S is the conjugated operator. It is a *mat.SymDense when W was
	// symmetric and a *mat.Dense otherwise.
	S mat.Matrix

	// Degrees are the row sums D of the affinity matrix S was built from
	// (the density-corrected one in Laplace–Beltrami mode).
	Degrees []float64

	// Symmetric reports whether S is symmetric by construction.
	Symmetric bool
}

// Normalize converts an affinity matrix into its symmetric Markov conjugate.
//
// With densityCorrect, W is first replaced by W' = D⁻¹ W D⁻¹, which removes
// the influence of the sampling density so the operator approximates the
// Laplace–Beltrami operator of the underlying manifold; the standard
// conjugation is then applied to W' with its own degrees.
//
// w is not modified. A row with a non-positive degree is an
// ErrDegenerateGeometry.
func Normalize(w mat.Matrix, densityCorrect bool) (*Operator, error) {
	r, c := w.Dims()
	if r != c {
		return nil, inputErrorf("affinity matrix must be square, got %d×%d", r, c)
	}

	d, err := rowSums(w)
	if err != nil {
		return nil, err
	}

	if densityCorrect {
		w = scaleByDegrees(w, d, func(di, dj float64) float64 { return 1 / (di * dj) })
		if d, err = rowSums(w); err != nil {
			return nil, errors.Wrap(err, "density-corrected affinity")
		}
	}

	inv := make([]float64, len(d))
	for i, di := range d {
		inv[i] = 1 / math.Sqrt(di)
	}
	s := scaleByDegrees(w, inv, func(a, b float64) float64 { return a * b })

	_, sym := s.(*mat.SymDense)
	return &Operator{S: s, Degrees: d, Symmetric: sym}, nil
}

// rowSums returns D[i] = Σ_j W[i][j], failing on any D[i] <= 0.
func rowSums(w mat.Matrix) ([]float64, error) {
	n, _ := w.Dims()
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += w.At(i, j)
		}
		if !(sum > 0) || math.IsInf(sum, 0) {
			return nil, errors.Wrapf(ErrDegenerateGeometry, "point %d has degree %v", i, sum)
		}
		d[i] = sum
	}
	return d, nil
}

// scaleByDegrees returns a new matrix with entries W[i][j]·f(v[i], v[j]).
// Symmetric input (and symmetric f) keeps symmetric storage.
func scaleByDegrees(w mat.Matrix, v []float64, f func(vi, vj float64) float64) mat.Matrix {
	n := len(v)
	if ws, ok := w.(mat.Symmetric); ok {
		out := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				out.SetSym(i, j, ws.At(i, j)*f(v[i], v[j]))
			}
		}
		return out
	}

	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, w.At(i, j)*f(v[i], v[j]))
		}
	}
	return out
}

// backTransform maps eigenvectors of S (rows indexed by point) to
// eigenvectors of P = D⁻¹W by scaling row i with D[i]^(-1/2). It must be
// applied exactly once, after the solve.
func backTransform(vectors *mat.Dense, degrees []float64) {
	rows, _ := vectors.Dims()
	for i := 0; i < rows; i++ {
		row := vectors.RawRowView(i)
		s := 1 / math.Sqrt(degrees[i])
		for j := range row {
			row[j] *= s
		}
	}
}

func backTransformComplex(vectors *mat.CDense, degrees []float64) {
	raw := vectors.RawCMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		s := complex(1/math.Sqrt(degrees[i]), 0)
		for j := range row {
			row[j] *= s
		}
	}
}
