package dmaps

import (
	"math"
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCanonicalize_SortsNormalizesAndOrients(t *testing.T) {
	values := []float64{0.2, -0.9, 0.5}
	vectors := mat.NewDense(3, 3, []float64{
		1, 0, -3,
		1, 2, 0,
		1, 0, 4,
	})
	gotValues, gotVectors := canonicalize(values, vectors)

	wantValues := []float64{-0.9, 0.5, 0.2}
	for i := range wantValues {
		if gotValues[i] != wantValues[i] {
			t.Errorf("value %d = %v, want %v", i, gotValues[i], wantValues[i])
		}
	}
	want := mat.NewDense(3, 3, []float64{
		0, -0.6, 1 / math.Sqrt(3),
		1, 0, 1 / math.Sqrt(3),
		0, 0.8, 1 / math.Sqrt(3),
	})
	if !mat.EqualApprox(gotVectors, want, floatTol) {
		t.Errorf("vectors:\n%v\nwant:\n%v", mat.Formatted(gotVectors), mat.Formatted(want))
	}
	// The input is left alone.
	if vectors.At(0, 2) != -3 {
		t.Error("canonicalize modified its input")
	}
}

func TestCanonicalize_NegativeLargestEntryFlipped(t *testing.T) {
	_, v := canonicalize([]float64{1}, mat.NewDense(2, 1, []float64{0.5, -2}))
	if v.At(1, 0) <= 0 || v.At(0, 0) >= 0 {
		t.Errorf("expected orientation (-, +), got (%v, %v)", v.At(0, 0), v.At(1, 0))
	}
}

func TestCanonicalize_SignFlipInvariant(t *testing.T) {
	v := mat.NewDense(3, 1, []float64{0.3, -0.1, 0.7})
	flipped := mat.NewDense(3, 1, nil)
	flipped.Scale(-1, v)

	_, a := canonicalize([]float64{1}, v)
	_, b := canonicalize([]float64{1}, flipped)
	if !mat.Equal(a, b) {
		t.Error("a column and its negation canonicalize differently")
	}
}

func TestNormalizeComplexColumn(t *testing.T) {
	v := []complex128{1i, 2i, 0}
	normalizeComplexColumn(v)

	var norm float64
	for _, z := range v {
		norm += sqAbs(z)
	}
	if !almostEqual(norm, 1, floatTol) {
		t.Errorf("norm² = %v, want 1", norm)
	}
	// The largest entry becomes real and positive.
	if !almostEqual(real(v[1]), 2/math.Sqrt(5), floatTol) || !almostEqual(imag(v[1]), 0, floatTol) {
		t.Errorf("pivot = %v, want %v", v[1], 2/math.Sqrt(5))
	}
	if cmplx.Abs(v[0]-complex(1/math.Sqrt(5), 0)) > floatTol {
		t.Errorf("v[0] = %v", v[0])
	}
}

func TestRealParts(t *testing.T) {
	values := []complex128{1, complex(0.5, 0.2)}
	vectors := mat.NewCDense(2, 2, []complex128{
		3, 1 + 1i,
		4, 1 - 1i,
	})
	re, rv, complexFound := realParts(values, vectors, imagTol)
	if !complexFound {
		t.Error("expected the complex eigenvalue to be reported")
	}
	if re[0] != 1 || re[1] != 0.5 {
		t.Errorf("real parts = %v", re)
	}
	if !almostEqual(rv.At(0, 0), 0.6, floatTol) || !almostEqual(rv.At(1, 0), 0.8, floatTol) {
		t.Errorf("first column = (%v, %v), want (0.6, 0.8)", rv.At(0, 0), rv.At(1, 0))
	}
	if !almostEqual(rv.At(0, 1), 1/math.Sqrt2, floatTol) {
		t.Errorf("second column not renormalized: %v", rv.At(0, 1))
	}

	_, _, complexFound = realParts([]complex128{complex(1, 1e-14)}, mat.NewCDense(1, 1, []complex128{1}), imagTol)
	if complexFound {
		t.Error("round-off imaginary part reported as complex")
	}
}
