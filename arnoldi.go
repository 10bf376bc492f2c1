package dmaps

import (
	"math"
	"math/cmplx"
	"math/rand/v2"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// arnoldi computes the k eigenpairs of a general square matrix a with the
// largest |λ|. Eigenvalues and eigenvectors may be complex.
//
// Repeated eigenvalues are recovered as in lanczos: each run locks an
// orthonormal basis of the real span of its Ritz vectors, which is an
// invariant subspace of a, and the next run works in its orthogonal
// complement. There a acts as the trailing block of a Schur form, whose
// eigenvalues are exactly those not yet locked. The answer is the
// Rayleigh–Ritz projection of a onto the locked basis.
func arnoldi(a mat.Matrix, k int, opts solverOptions) (*complexPairs, error) {
	n, c := a.Dims()
	if n != c {
		return nil, inputErrorf("operator must be square, got %d×%d", n, c)
	}
	if err := checkRank(n, k); err != nil {
		return nil, err
	}
	rng := newRand(opts.seed)

	var (
		locked []*mat.VecDense
		best   *complexPairs
		steps  int
	)
	for pass := 0; pass <= k && len(locked) < n; pass++ {
		run, exhausted, err := arnoldiRun(a, k, opts, locked, rng)
		if err != nil {
			return nil, err
		}
		steps += run.iterations
		if best != nil && len(best.values) == k &&
			!exceeds(cmplx.Abs(run.values[0]), cmplx.Abs(best.values[k-1]), opts.tol) {
			break
		}
		for j := range run.values {
			locked = lockComplex(locked, run.vectors, j)
		}
		if best, err = rayleighRitzGeneral(a, locked, k); err != nil {
			return nil, err
		}
		if exhausted {
			break
		}
	}
	best.iterations = steps
	return best, nil
}

// arnoldiRun runs the Arnoldi process with full reorthogonalization on a
// restricted to the orthogonal complement of locked, and returns its top
// Ritz pairs sorted by |θ|. exhausted reports that the Krylov space filled
// the complement.
//
// After m steps A Q_m = Q_m H_m + h_{m+1,m} q_{m+1} e_mᵀ with H_m upper
// Hessenberg; a Ritz pair (θ, Q_m s) with ‖s‖ = 1 has residual norm
// |h_{m+1,m} s_m|.
func arnoldiRun(a mat.Matrix, k int, opts solverOptions, locked []*mat.VecDense, rng *rand.Rand) (*complexPairs, bool, error) {
	n, _ := a.Dims()
	dim := n - len(locked)
	k = min(k, dim)
	limit := min(opts.krylovLimit(n), dim)
	first := firstCheck(dim, k)

	basis := make([]*mat.VecDense, 0, limit+1)
	// h[j] is column j of the Hessenberg matrix, of length j+2.
	h := make([][]float64, 0, limit)

	basis = append(basis, randomUnit(n, rng, locked, basis))
	w := mat.NewVecDense(n, nil)

	for m := 1; ; m++ {
		j := m - 1
		w.MulVec(a, basis[j])
		orthogonalize(w, locked)

		col := make([]float64, j+2)
		for pass := 0; pass < 2; pass++ {
			for i, q := range basis {
				coef := mat.Dot(q, w)
				col[i] += coef
				w.AddScaledVec(w, -coef, q)
			}
		}
		orthogonalize(w, locked)

		hj := w.Norm(2)
		scale := 0.0
		for _, v := range col[:j+1] {
			scale = math.Max(scale, math.Abs(v))
		}
		if scale == 0 {
			scale = 1
		}

		var next *mat.VecDense
		exhausted := m == dim
		if hj <= breakdownTol*scale {
			hj = 0
			if m < limit {
				next = randomUnit(n, rng, locked, basis)
				exhausted = exhausted || next == nil
			}
		} else if m < limit {
			next = mat.NewVecDense(n, nil)
			next.ScaleVec(1/hj, w)
		}
		col[j+1] = hj
		h = append(h, col)
		restarted := hj == 0 && next != nil

		if shouldCheck(m, k, first, limit, exhausted) && !restarted {
			pairs, unconverged, err := arnoldiRitz(basis, h, k, opts.tol)
			if err != nil {
				return nil, false, err
			}
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

// lockComplex locks the real and imaginary parts of column j of v. A part
// that is negligible next to the whole column is rounding noise, not a
// direction of the invariant subspace, and is skipped.
func lockComplex(z []*mat.VecDense, v *mat.CDense, j int) []*mat.VecDense {
	n, _ := v.Dims()
	re := make([]float64, n)
	im := make([]float64, n)
	for i := range re {
		e := v.At(i, j)
		re[i], im[i] = real(e), imag(e)
	}
	reNorm, imNorm := floats.Norm(re, 2), floats.Norm(im, 2)
	total := math.Hypot(reNorm, imNorm)
	if reNorm > lockTol*total {
		z = lock(z, re)
	}
	if imNorm > lockTol*total {
		z = lock(z, im)
	}
	return z
}

// rayleighRitzGeneral returns the top-k eigenpairs of a projected onto the
// orthonormal vectors z. When z spans an invariant subspace they are exact
// eigenpairs of a.
func rayleighRitzGeneral(a mat.Matrix, z []*mat.VecDense, k int) (*complexPairs, error) {
	p := len(z)
	v := basisMatrix(z, p)
	var av, h mat.Dense
	av.Mul(a, v)
	h.Mul(v.T(), &av)

	var eig mat.Eigen
	if ok := eig.Factorize(&h, mat.EigenRight); !ok {
		return nil, errors.Wrapf(ErrConvergence, "projected eigendecomposition of order %d failed", p)
	}
	theta := eig.Values(nil)
	var s mat.CDense
	eig.VectorsTo(&s)

	mags := make([]float64, p)
	for i, t := range theta {
		mags[i] = cmplx.Abs(t)
	}
	idx := byMagnitude(mags, k)
	values := make([]complex128, len(idx))
	vectors := mat.NewCDense(v.RawMatrix().Rows, len(idx), nil)
	for c, i := range idx {
		values[c] = theta[i]
		setRitzVector(vectors, c, v, &s, i)
	}
	return &complexPairs{values: values, vectors: vectors}, nil
}

// setRitzVector stores Q s_i as column c of dst.
func setRitzVector(dst *mat.CDense, c int, q *mat.Dense, s *mat.CDense, i int) {
	n, m := q.Dims()
	for r := 0; r < n; r++ {
		var sum complex128
		row := q.RawRowView(r)
		for j := 0; j < m; j++ {
			sum += complex(row[j], 0) * s.At(j, i)
		}
		dst.Set(r, c, sum)
	}
}

// arnoldiRitz extracts the top-k Ritz pairs from the current Hessenberg
// projection and counts how many have not converged.
func arnoldiRitz(basis []*mat.VecDense, h [][]float64, k int, tol float64) (*complexPairs, int, error) {
	m := len(h)
	hm := mat.NewDense(m, m, nil)
	for j, col := range h {
		for i := 0; i <= j+1 && i < m; i++ {
			hm.Set(i, j, col[i])
		}
	}

	var eig mat.Eigen
	if ok := eig.Factorize(hm, mat.EigenRight); !ok {
		return nil, 0, errors.Wrapf(ErrConvergence, "Hessenberg eigendecomposition of order %d failed", m)
	}
	theta := eig.Values(nil)
	var s mat.CDense
	eig.VectorsTo(&s)

	mags := make([]float64, m)
	for i, v := range theta {
		mags[i] = cmplx.Abs(v)
	}
	idx := byMagnitude(mags, k)

	resid := h[m-1][m]
	q := basisMatrix(basis, m)
	n, _ := q.Dims()
	values := make([]complex128, len(idx))
	vectors := mat.NewCDense(n, len(idx), nil)
	unconverged := 0
	for c, i := range idx {
		values[c] = theta[i]

		var norm float64
		for r := 0; r < m; r++ {
			norm += sqAbs(s.At(r, i))
		}
		norm = math.Sqrt(norm)
		if !converged(math.Abs(resid)*cmplx.Abs(s.At(m-1, i))/norm, mags[i], tol) {
			unconverged++
		}

		setRitzVector(vectors, c, q, &s, i)
	}
	return &complexPairs{values: values, vectors: vectors}, unconverged, nil
}

func sqAbs(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}
