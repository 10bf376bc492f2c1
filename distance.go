package dmaps

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Metric measures the distance between two points. It is evaluated once per
// unordered pair and is assumed symmetric: Metric(a, b) == Metric(b, a).
type Metric[T any] func(a, b T) float64

// Kernel measures the affinity between two points. A kernel already encodes
// its own bandwidth; it is not passed through the Gaussian transform.
// Kernels need not be symmetric, see Config.General.
type Kernel[T any] func(a, b T) float64

// Euclidean computes the Euclidean (L2) distance.
func Euclidean(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// Manhattan computes the Manhattan (L1 / city-block) distance.
func Manhattan(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// Chebyshev computes the Chebyshev (L-infinity) distance.
func Chebyshev(a, b []float64) float64 {
	return floats.Distance(a, b, math.Inf(1))
}

// Cosine computes the cosine distance: 1 - cosine_similarity.
// For two zero vectors, the result is NaN (0/0), which the embedding
// rejects as a non-finite affinity.
func Cosine(a, b []float64) float64 {
	return 1.0 - floats.Dot(a, b)/math.Sqrt(floats.Dot(a, a)*floats.Dot(b, b))
}

// Minkowski returns the Minkowski distance of order p.
// p must be >= 1. Panics if p < 1.
func Minkowski(p float64) Metric[[]float64] {
	if p < 1 || math.IsNaN(p) {
		panic("dmaps: Minkowski order must be >= 1")
	}
	return func(a, b []float64) float64 {
		return floats.Distance(a, b, p)
	}
}

// SquaredEuclidean computes the squared L2 distance. It is not a metric,
// but it is a convenient kernel input, see kernels.Gaussian.
func SquaredEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// ParseMetric resolves a metric by name: "euclidean", "manhattan",
// "chebyshev", "cosine" or "minkowski". p is the Minkowski order and is
// ignored for the other metrics.
func ParseMetric(name string, p float64) (Metric[[]float64], error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "euclidean":
		return Euclidean, nil
	case "manhattan":
		return Manhattan, nil
	case "chebyshev":
		return Chebyshev, nil
	case "cosine":
		return Cosine, nil
	case "minkowski":
		if p < 1 || math.IsNaN(p) {
			return nil, inputErrorf("minkowski order must be >= 1, got %v", p)
		}
		return Minkowski(p), nil
	default:
		return nil, inputErrorf("unknown metric %q", name)
	}
}
