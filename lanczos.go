package dmaps

import (
	"math"
	"math/rand/v2"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

// lanczos computes the k eigenpairs of the symmetric matrix a with the
// largest |λ|.
//
// A single start vector sees one direction per distinct eigenvalue, so a
// converged run can miss the second copy of a repeated eigenvalue. Each
// run's Ritz vectors are therefore locked, and the next run works in their
// orthogonal complement. The loop stops once a run finds nothing larger in
// magnitude than the current k-th value, or the space is exhausted. The
// answer is the Rayleigh–Ritz projection of a onto the locked vectors.
func lanczos(a mat.Symmetric, k int, opts solverOptions) (*realPairs, error) {
	n := a.SymmetricDim()
	if err := checkRank(n, k); err != nil {
		return nil, err
	}
	rng := newRand(opts.seed)

	var (
		locked []*mat.VecDense
		best   *realPairs
		steps  int
	)
	for pass := 0; pass <= k && len(locked) < n; pass++ {
		run, exhausted, err := lanczosRun(a, k, opts, locked, rng)
		if err != nil {
			return nil, err
		}
		steps += run.iterations
		if best != nil && len(best.values) == k &&
			!exceeds(math.Abs(run.values[0]), math.Abs(best.values[k-1]), opts.tol) {
			break
		}
		for c := range run.values {
			locked = lock(locked, mat.Col(nil, c, run.vectors))
		}
		if best, err = rayleighRitzSym(a, locked, k); err != nil {
			return nil, err
		}
		if exhausted {
			break
		}
	}
	best.iterations = steps
	return best, nil
}

// lanczosRun runs the Lanczos process with full reorthogonalization on a
// restricted to the orthogonal complement of locked, and returns its top
// Ritz pairs sorted by |θ|. exhausted reports that the Krylov space filled
// the complement, so the pairs include every eigenvalue left there.
//
// After m steps the basis Q_m satisfies A Q_m = Q_m T_m + β_m q_{m+1} e_mᵀ
// with T_m tridiagonal. A Ritz pair (θ, Q_m s) of T_m then has residual
// norm |β_m s_m|, which is the convergence test. When the Krylov space
// becomes invariant (β_m ≈ 0) the process continues from a fresh random
// vector orthogonal to Q_m.
func lanczosRun(a mat.Symmetric, k int, opts solverOptions, locked []*mat.VecDense, rng *rand.Rand) (*realPairs, bool, error) {
	n := a.SymmetricDim()
	dim := n - len(locked)
	k = min(k, dim)
	limit := min(opts.krylovLimit(n), dim)
	first := firstCheck(dim, k)

	basis := make([]*mat.VecDense, 0, limit+1)
	alpha := make([]float64, 0, limit)
	beta := make([]float64, 0, limit)

	basis = append(basis, randomUnit(n, rng, locked, basis))
	w := mat.NewVecDense(n, nil)

	for m := 1; ; m++ {
		j := m - 1
		w.MulVec(a, basis[j])
		aj := mat.Dot(basis[j], w)
		alpha = append(alpha, aj)

		w.AddScaledVec(w, -aj, basis[j])
		if j > 0 {
			w.AddScaledVec(w, -beta[j-1], basis[j-1])
		}
		orthogonalize(w, locked)
		orthogonalize(w, basis)

		bj := w.Norm(2)
		scale := math.Abs(aj)
		if j > 0 {
			scale = math.Max(scale, beta[j-1])
		}
		if scale == 0 {
			scale = 1
		}

		var next *mat.VecDense
		exhausted := m == dim
		if bj <= breakdownTol*scale {
			bj = 0
			if m < limit {
				next = randomUnit(n, rng, locked, basis)
				exhausted = exhausted || next == nil
			}
		} else if m < limit {
			next = mat.NewVecDense(n, nil)
			next.ScaleVec(1/bj, w)
		}
		beta = append(beta, bj)
		restarted := bj == 0 && next != nil

		// Right after a restart every Ritz residual is zero, which says
		// nothing about the part of the space not yet explored.
		if shouldCheck(m, k, first, limit, exhausted) && !restarted {
			pairs, unconverged, err := lanczosRitz(basis, alpha, beta, k, opts.tol)
			if err != nil {
				return nil, false, err
			}
			// A complete or invariant basis makes the Ritz pairs exact.
			if unconverged == 0 || exhausted {
				pairs.iterations = m
				return pairs, exhausted, nil
			}
			if m == limit {
				return nil, false, convergenceError(m, k, unconverged)
			}
		}
		if next == nil {
			return nil, false, convergenceError(m, k, k)
		}
		basis = append(basis, next)
	}
}

// rayleighRitzSym returns the top-k eigenpairs of a projected onto the
// orthonormal vectors z. When z spans an invariant subspace they are exact
// eigenpairs of a.
func rayleighRitzSym(a mat.Symmetric, z []*mat.VecDense, k int) (*realPairs, error) {
	p := len(z)
	v := basisMatrix(z, p)
	var av, h mat.Dense
	av.Mul(a, v)
	h.Mul(v.T(), &av)
	hs := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			hs.SetSym(i, j, (h.At(i, j)+h.At(j, i))/2)
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(hs, true); !ok {
		return nil, errors.Wrapf(ErrConvergence, "projected eigendecomposition of order %d failed", p)
	}
	theta := es.Values(nil)
	var s mat.Dense
	es.VectorsTo(&s)

	mags := make([]float64, p)
	for i, t := range theta {
		mags[i] = math.Abs(t)
	}
	idx := byMagnitude(mags, k)
	values := make([]float64, len(idx))
	coeffs := mat.NewDense(p, len(idx), nil)
	for c, i := range idx {
		values[c] = theta[i]
		for r := 0; r < p; r++ {
			coeffs.Set(r, c, s.At(r, i))
		}
	}
	var vectors mat.Dense
	vectors.Mul(v, coeffs)
	return &realPairs{values: values, vectors: &vectors}, nil
}

// lanczosRitz extracts the top-k Ritz pairs from the current tridiagonal
// projection and counts how many have not converged.
func lanczosRitz(basis []*mat.VecDense, alpha, beta []float64, k int, tol float64) (*realPairs, int, error) {
	m := len(alpha)
	t := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		t.SetSym(i, i, alpha[i])
		if i+1 < m {
			t.SetSym(i, i+1, beta[i])
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(t, true); !ok {
		return nil, 0, errors.Wrapf(ErrConvergence, "tridiagonal eigendecomposition of order %d failed", m)
	}
	theta := es.Values(nil)
	var s mat.Dense
	es.VectorsTo(&s)

	mags := make([]float64, m)
	for i, v := range theta {
		mags[i] = math.Abs(v)
	}
	idx := byMagnitude(mags, k)

	resid := beta[m-1]
	values := make([]float64, len(idx))
	coeffs := mat.NewDense(m, len(idx), nil)
	unconverged := 0
	for c, i := range idx {
		values[c] = theta[i]
		for r := 0; r < m; r++ {
			coeffs.Set(r, c, s.At(r, i))
		}
		if !converged(math.Abs(resid*s.At(m-1, i)), mags[i], tol) {
			unconverged++
		}
	}

	var vectors mat.Dense
	vectors.Mul(basisMatrix(basis, m), coeffs)
	return &realPairs{values: values, vectors: &vectors}, unconverged, nil
}
