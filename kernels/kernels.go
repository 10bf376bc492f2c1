// Package kernels provides affinity kernels for dmaps.EmbedWithKernel.
//
// Each constructor closes over its parameters and returns a plain function
// of two points, so kernels compose without any shared state.
package kernels

import (
	"math"

	"github.com/TrevorS/dmaps"
	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"
)

// Gaussian returns exp(-‖x-y‖²/eps). Note eps is not squared here, unlike
// the default Embed kernel; it plays the role of a squared length.
// Panics if eps <= 0.
func Gaussian(eps float64) dmaps.Kernel[[]float64] {
	mustPositive(eps)
	return func(x, y []float64) float64 {
		return math.Exp(-dmaps.SquaredEuclidean(x, y) / eps)
	}
}

// ObjectiveFunction returns the kernel
//
//	exp(-‖x̂-ŷ‖²/eps - (f(x)-f(y))²/eps²)
//
// for points whose last coordinate holds an objective value f and whose
// other coordinates x̂ are the parameters. Points that are close in
// parameter space but differ in objective are pulled apart, so the
// embedding separates level sets of f. Panics if eps <= 0.
func ObjectiveFunction(eps float64) dmaps.Kernel[[]float64] {
	mustPositive(eps)
	return func(x, y []float64) float64 {
		last := len(x) - 1
		df := x[last] - y[last]
		return math.Exp(-dmaps.SquaredEuclidean(x[:last], y[:last])/eps - df*df/(eps*eps))
	}
}

// GradientFunc returns ∇f at x.
type GradientFunc func(x []float64) []float64

// Gradient returns the kernel
//
//	exp(-‖x-y‖/eps - ⟨∇f(x), x-y⟩²/eps²)
//
// which makes the embedding nearly constant along level sets of f. The
// gradient is taken at the first argument only, so the kernel is not
// symmetric: use it with Config.General = true. Panics if eps <= 0.
func Gradient(eps float64, grad GradientFunc) dmaps.Kernel[[]float64] {
	mustPositive(eps)
	if grad == nil {
		panic("kernels: nil gradient")
	}
	return func(x, y []float64) float64 {
		diff := make([]float64, len(x))
		floats.SubTo(diff, x, y)
		proj := floats.Dot(grad(x), diff)
		return math.Exp(-floats.Norm(diff, 2)/eps - proj*proj/(eps*eps))
	}
}

// EpsilonGrid returns n bandwidths spaced logarithmically from lo to hi
// inclusive, the usual input to dmaps.EpsilonSweep.
func EpsilonGrid(lo, hi float64, n int) ([]float64, error) {
	if !(lo > 0) || !(hi > lo) || math.IsInf(hi, 0) {
		return nil, errors.Wrapf(dmaps.ErrInput, "epsilon grid needs 0 < lo < hi, got [%v, %v]", lo, hi)
	}
	if n < 2 {
		return nil, errors.Wrapf(dmaps.ErrInput, "epsilon grid needs at least 2 values, got %d", n)
	}
	return floats.LogSpan(make([]float64, n), lo, hi), nil
}

func mustPositive(eps float64) {
	if !(eps > 0) || math.IsInf(eps, 0) {
		panic("kernels: eps must be finite and > 0")
	}
}
