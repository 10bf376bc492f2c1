package dmaps

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// canonicalize puts real eigenpairs in output form: sorted by
// non-increasing |λ| (stable, so exact ties keep solver order), every column
// rescaled to unit Euclidean norm, and every column oriented so its
// largest-magnitude entry is positive.
//
// The orientation makes repeated runs of the same solver agree exactly; it
// is a convention, not a property of the eigenproblem, so comparisons
// across solvers must stay sign-invariant.
func canonicalize(values []float64, vectors *mat.Dense) ([]float64, *mat.Dense) {
	mags := make([]float64, len(values))
	for i, v := range values {
		mags[i] = math.Abs(v)
	}
	order := byMagnitude(mags, len(values))

	n, _ := vectors.Dims()
	outValues := make([]float64, len(order))
	outVectors := mat.NewDense(n, len(order), nil)
	col := make([]float64, n)
	for c, i := range order {
		outValues[c] = values[i]
		mat.Col(col, i, vectors)
		normalizeColumn(col)
		outVectors.SetCol(c, col)
	}
	return outValues, outVectors
}

// normalizeColumn scales v to unit norm with its largest-magnitude entry
// positive. A zero vector is left unchanged.
func normalizeColumn(v []float64) {
	norm := floats.Norm(v, 2)
	if norm == 0 {
		return
	}
	if v[floats.MaxIdx(absInto(v))] < 0 {
		norm = -norm
	}
	floats.Scale(1/norm, v)
}

// absInto returns |v| in a scratch slice.
func absInto(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}

// canonicalizeComplex is canonicalize for complex eigenpairs: sorted by
// non-increasing |λ|, unit norm, and rotated so the largest-magnitude entry
// of each column is real and positive.
func canonicalizeComplex(values []complex128, vectors *mat.CDense) ([]complex128, *mat.CDense) {
	mags := make([]float64, len(values))
	for i, v := range values {
		mags[i] = cmplx.Abs(v)
	}
	order := byMagnitude(mags, len(values))

	n, _ := vectors.Dims()
	outValues := make([]complex128, len(order))
	outVectors := mat.NewCDense(n, len(order), nil)
	col := make([]complex128, n)
	for c, i := range order {
		outValues[c] = values[i]
		for r := range col {
			col[r] = vectors.At(r, i)
		}
		normalizeComplexColumn(col)
		for r, z := range col {
			outVectors.Set(r, c, z)
		}
	}
	return outValues, outVectors
}

func normalizeComplexColumn(v []complex128) {
	var norm float64
	pivot := 0
	for i, z := range v {
		a := sqAbs(z)
		norm += a
		if a > sqAbs(v[pivot]) {
			pivot = i
		}
	}
	if norm == 0 {
		return
	}
	// Dividing by |v|·phase(v[pivot]) makes v[pivot] real and positive.
	phase := v[pivot] / complex(cmplx.Abs(v[pivot]), 0)
	scale := complex(math.Sqrt(norm), 0) * phase
	for i := range v {
		v[i] /= scale
	}
}

// realParts splits a complex eigenpair set into real parts, renormalizing
// the real eigenvector columns, and reports whether any eigenvalue carried
// an imaginary part above tol·max(|λ|, 1).
func realParts(values []complex128, vectors *mat.CDense, tol float64) ([]float64, *mat.Dense, bool) {
	n, k := vectors.Dims()
	outValues := make([]float64, k)
	outVectors := mat.NewDense(n, k, nil)
	complexFound := false
	col := make([]float64, n)
	for c, v := range values {
		outValues[c] = real(v)
		if math.Abs(imag(v)) > tol*math.Max(cmplx.Abs(v), 1) {
			complexFound = true
		}
		for r := range col {
			col[r] = real(vectors.At(r, c))
		}
		normalizeColumn(col)
		outVectors.SetCol(c, col)
	}
	return outValues, outVectors, complexFound
}
