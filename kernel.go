package dmaps

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// KernelScale selects how ε enters the Gaussian kernel. The same ε is used
// whichever scale is chosen; the two are not equivalent unless ε = 1.
type KernelScale int

const (
	// ScaleSquared evaluates exp(-d²/ε²), so ε is a length.
	ScaleSquared KernelScale = iota
	// ScaleLinear evaluates exp(-d²/ε), so ε is a squared length.
	ScaleLinear
)

func (s KernelScale) String() string {
	switch s {
	case ScaleSquared:
		return "squared"
	case ScaleLinear:
		return "linear"
	default:
		return fmt.Sprintf("KernelScale(%d)", int(s))
	}
}

// ParseKernelScale accepts "squared" or "linear".
func ParseKernelScale(s string) (KernelScale, error) {
	switch s {
	case "", "squared":
		return ScaleSquared, nil
	case "linear":
		return ScaleLinear, nil
	default:
		return 0, inputErrorf("unknown kernel scale %q", s)
	}
}

func (s KernelScale) denominator(eps float64) float64 {
	if s == ScaleLinear {
		return eps
	}
	return eps * eps
}

// GaussianAffinity converts raw pairwise distances into Gaussian affinities
// W[i][j] = exp(-dist[i][j]² / denom), where denom is ε² or ε depending on
// scale. Entries lie in [0, 1] and the diagonal becomes 1. dist is not
// modified.
func GaussianAffinity(dist mat.Symmetric, eps float64, scale KernelScale) (*mat.SymDense, error) {
	if err := checkEpsilon(eps); err != nil {
		return nil, err
	}
	if scale != ScaleSquared && scale != ScaleLinear {
		return nil, inputErrorf("unknown kernel scale %v", scale)
	}

	denom := scale.denominator(eps)
	n := dist.SymmetricDim()
	w := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := dist.At(i, j)
			w.SetSym(i, j, math.Exp(-d*d/denom))
		}
	}
	return w, nil
}

// Sparsify returns a copy of w with every entry below threshold set to 0.
// Symmetric input keeps symmetric storage.
func Sparsify(w mat.Matrix, threshold float64) mat.Matrix {
	cut := func(v float64) float64 {
		if v < threshold {
			return 0
		}
		return v
	}
	if ws, ok := w.(mat.Symmetric); ok {
		n := ws.SymmetricDim()
		out := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				out.SetSym(i, j, cut(ws.At(i, j)))
			}
		}
		return out
	}
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return cut(v) }, w)
	return &out
}
