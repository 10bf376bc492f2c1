package dmaps

import (
	"math"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

// EpsilonSweep returns Σ_ij W_ij for the Gaussian affinity of points at
// each bandwidth in epsilons, using cfg.KernelScale and cfg.Workers.
//
// Plotted on log-log axes against ε, the sum runs from N (every point
// isolated) to N² (every pair fully connected); a usable ε lies in the
// roughly linear region between the two plateaus. The sweep is a
// diagnostic: Embed never consults it.
func EpsilonSweep[T any](points []T, epsilons []float64, metric Metric[T], cfg Config) ([]float64, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if metric == nil {
		return nil, inputErrorf("metric is nil")
	}
	if len(points) < 2 {
		return nil, inputErrorf("need at least 2 points, got %d", len(points))
	}
	for i, eps := range epsilons {
		if err := checkEpsilon(eps); err != nil {
			return nil, errors.Wrapf(err, "epsilons[%d]", i)
		}
	}

	dist := PairwiseSymmetricParallel(points, metric, false, cfg.Workers)
	if err := checkFinite(dist); err != nil {
		return nil, errors.Wrap(err, "pairwise distances")
	}

	sums := make([]float64, len(epsilons))
	for i, eps := range epsilons {
		sums[i] = gaussianSum(dist, cfg.KernelScale.denominator(eps))
	}
	return sums, nil
}

// gaussianSum is the sum of every entry of exp(-dist²/denom), counting each
// off-diagonal pair twice, without materializing the matrix.
func gaussianSum(dist mat.Symmetric, denom float64) float64 {
	n := dist.SymmetricDim()
	var off float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := dist.At(i, j)
			off += math.Exp(-d * d / denom)
		}
	}
	// The diagonal distances are 0, so each diagonal entry is 1.
	return float64(n) + 2*off
}
