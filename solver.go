package dmaps

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// minKrylov is the smallest subspace examined before the first
	// convergence test, unless the whole space is smaller.
	minKrylov = 20

	// checkInterval is the number of Krylov steps between convergence tests.
	checkInterval = 5

	// breakdownTol is the relative residual norm below which the Krylov
	// space is treated as invariant.
	breakdownTol = 1e-12

	// restartAttempts bounds the retries for a fresh start vector after a
	// breakdown.
	restartAttempts = 3

	// lockTol is the relative norm below which a vector is taken to lie in
	// the span of the locked vectors already.
	lockTol = 1e-8
)

// eps23 is machine epsilon to the 2/3, the floor applied to |θ| in the
// relative convergence test so that near-zero Ritz values can converge.
var eps23 = math.Pow(0x1p-52, 2.0/3.0)

type solverOptions struct {
	tol     float64
	maxIter int
	seed    uint64
}

// krylovLimit returns the largest subspace the solver may build.
func (o solverOptions) krylovLimit(n int) int {
	if o.maxIter > 0 && o.maxIter < n {
		return o.maxIter
	}
	return n
}

// firstCheck returns the subspace size at which convergence is first tested.
func firstCheck(n, k int) int {
	return min(n, max(2*k+1, minKrylov))
}

func shouldCheck(m, k, first, limit int, exhausted bool) bool {
	if m < k {
		return false
	}
	if m == limit || exhausted {
		return true
	}
	return m >= first && (m-first)%checkInterval == 0
}

func converged(residual, theta, tol float64) bool {
	return residual <= tol*math.Max(theta, eps23)
}

// realPairs holds eigenpairs of a symmetric operator in solver order.
type realPairs struct {
	values     []float64
	vectors    *mat.Dense
	iterations int
}

// complexPairs holds eigenpairs of a general operator in solver order.
type complexPairs struct {
	values     []complex128
	vectors    *mat.CDense
	iterations int
}

func checkRank(n, k int) error {
	if k < 1 || k >= n {
		return inputErrorf("k must satisfy 1 <= k < N, got k=%d with N=%d", k, n)
	}
	return nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// orthogonalize removes from w its components along every basis vector.
// Two classical Gram–Schmidt passes keep the basis orthogonal to working
// precision.
func orthogonalize(w *mat.VecDense, basis []*mat.VecDense) {
	for pass := 0; pass < 2; pass++ {
		for _, q := range basis {
			w.AddScaledVec(w, -mat.Dot(q, w), q)
		}
	}
}

// randomUnit returns a random unit vector orthogonal to every vector in
// sets, or nil if they already span the space.
func randomUnit(n int, rng *rand.Rand, sets ...[]*mat.VecDense) *mat.VecDense {
	span := 0
	for _, set := range sets {
		span += len(set)
	}
	if span >= n {
		return nil
	}
	v := mat.NewVecDense(n, nil)
	for attempt := 0; attempt < restartAttempts; attempt++ {
		for i := 0; i < n; i++ {
			v.SetVec(i, rng.NormFloat64())
		}
		for _, set := range sets {
			orthogonalize(v, set)
		}
		if norm := v.Norm(2); norm > breakdownTol*math.Sqrt(float64(n)) {
			v.ScaleVec(1/norm, v)
			return v
		}
	}
	return nil
}

// lock appends to z the unit component of v orthogonal to z, unless v
// already lies in span(z).
func lock(z []*mat.VecDense, v []float64) []*mat.VecDense {
	u := mat.NewVecDense(len(v), v)
	norm := u.Norm(2)
	if norm == 0 {
		return z
	}
	orthogonalize(u, z)
	r := u.Norm(2)
	if r <= lockTol*norm {
		return z
	}
	u.ScaleVec(1/r, u)
	return append(z, u)
}

// exceeds reports whether a Ritz value of magnitude mu, found in the
// complement of the locked vectors, belongs above a current k-th
// magnitude kth.
func exceeds(mu, kth, tol float64) bool {
	return mu > kth+tol*math.Max(kth, eps23)
}

// byMagnitude returns the indices of the k largest entries of mags, in
// decreasing order. Ties keep their original relative order.
func byMagnitude(mags []float64, k int) []int {
	idx := make([]int, len(mags))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return mags[idx[a]] > mags[idx[b]] })
	return idx[:min(k, len(idx))]
}

// basisMatrix packs the first m basis vectors as the columns of an n×m
// matrix.
func basisMatrix(basis []*mat.VecDense, m int) *mat.Dense {
	n := basis[0].Len()
	q := mat.NewDense(n, m, nil)
	for j := 0; j < m; j++ {
		q.SetCol(j, basis[j].RawVector().Data)
	}
	return q
}

func convergenceError(m, k int, unconverged int) error {
	err := errors.Wrapf(ErrConvergence, "%d of %d eigenpairs unconverged after %d Krylov steps", unconverged, k, m)
	return errors.WithHint(err, "raise Config.MaxIterations or relax Config.Tolerance")
}
