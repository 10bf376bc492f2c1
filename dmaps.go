package dmaps

import (
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// imagTol is the relative imaginary part above which a general-solve
// eigenvalue counts as complex.
const imagTol = 1e-8

// Result contains the output of a diffusion maps embedding.
type Result struct {
	// Values are the k eigenvalues of the Markov operator P = D⁻¹W, sorted
	// by non-increasing magnitude. For a connected point set Values[0] is 1.
	// After a general solve these are the real parts of Spectrum.
	Values []float64

	// Vectors is the N×k matrix of eigenvectors of P: column i belongs to
	// Values[i], row j to point j. Columns have unit Euclidean norm and are
	// oriented so their largest-magnitude entry is positive; the sign is a
	// convention, not a guarantee. Persisting eigenvectors as rows requires
	// a transpose.
	Vectors *mat.Dense

	// Spectrum and ComplexVectors hold the full eigenpairs of a general
	// (Config.General) solve, in the same order as Values. They
	// are nil after a symmetric solve.
	Spectrum       []complex128
	ComplexVectors *mat.CDense

	// Epsilon is the Gaussian bandwidth that was used. It is 0 for
	// EmbedWithKernel.
	Epsilon float64

	// Degrees are the row sums used for the final normalization (after
	// density correction, if enabled).
	Degrees []float64

	// Components is the number of connected components of the affinity
	// graph. Values beyond the first Components eigenvalues equal to 1 are
	// meaningful only when Components == 1.
	Components int

	// Iterations is the number of Krylov steps taken, summed over the
	// solver runs that search for further copies of repeated eigenvalues.
	Iterations int

	// Warnings lists non-fatal conditions, such as ErrComplexSpectrum.
	Warnings []error
}

// Embed computes the k-dimensional diffusion maps embedding of points.
// metric gives the distance between two points; the affinity is the
// Gaussian kernel of that distance with the bandwidth selected by
// cfg.Bandwidth.
//
// Requires len(points) >= 2 and 1 <= k < len(points).
func Embed[T any](points []T, k int, metric Metric[T], cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if metric == nil {
		return nil, inputErrorf("metric is nil")
	}
	n := len(points)
	if err := validateShape(n, k); err != nil {
		return nil, err
	}

	log := cfg.Logger.With(zap.Int("n", n), zap.Int("k", k))
	start := time.Now()
	dist := PairwiseSymmetricParallel(points, metric, false, cfg.Workers)
	if err := checkFinite(dist); err != nil {
		return nil, errors.Wrap(err, "pairwise distances")
	}
	log.Debug("pairwise distances computed", zap.Duration("elapsed", time.Since(start)))

	eps, err := SelectBandwidth(dist, cfg.Bandwidth)
	if err != nil {
		return nil, err
	}
	w, err := GaussianAffinity(dist, eps, cfg.KernelScale)
	if err != nil {
		return nil, err
	}
	log.Debug("gaussian affinity built",
		zap.Stringer("bandwidth", cfg.Bandwidth),
		zap.Float64("epsilon", eps),
		zap.Stringer("scale", cfg.KernelScale))

	res, err := embedAffinity(w, k, &cfg, log)
	if err != nil {
		return nil, err
	}
	res.Epsilon = eps
	return res, nil
}

// EmbedVectors is Embed for coordinate vectors, using cfg.Metric.
// All vectors must have the same length.
func EmbedVectors(data [][]float64, k int, cfg Config) (*Result, error) {
	if err := validateVectors(data); err != nil {
		return nil, err
	}
	if cfg.Metric == nil {
		cfg.Metric = Euclidean
	}
	return Embed(data, k, cfg.Metric, cfg)
}

// EmbedWithKernel computes the k-dimensional diffusion maps embedding of
// points using kernel as the affinity directly. The bandwidth settings of
// cfg are ignored; the kernel encodes its own.
//
// Unless cfg.General is set the kernel is evaluated once per unordered pair
// and the Lanczos solver is used; with it every ordered pair is evaluated
// and the Arnoldi solver is used.
func EmbedWithKernel[T any](points []T, k int, kernel Kernel[T], cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if kernel == nil {
		return nil, inputErrorf("kernel is nil")
	}
	n := len(points)
	if err := validateShape(n, k); err != nil {
		return nil, err
	}

	log := cfg.Logger.With(zap.Int("n", n), zap.Int("k", k))
	start := time.Now()
	var w mat.Matrix
	if !cfg.General {
		w = PairwiseSymmetricParallel(points, kernel, true, cfg.Workers)
	} else {
		w = PairwiseGeneralParallel(points, kernel, cfg.Workers)
	}
	if err := checkFinite(w); err != nil {
		return nil, errors.Wrap(err, "kernel matrix")
	}
	log.Debug("kernel matrix computed",
		zap.Bool("general", cfg.General),
		zap.Duration("elapsed", time.Since(start)))

	return embedAffinity(w, k, &cfg, log)
}

// embedAffinity runs normalization, the eigensolver, the back-transform and
// canonicalization on an affinity matrix.
func embedAffinity(w mat.Matrix, k int, cfg *Config, log *zap.Logger) (*Result, error) {
	if cfg.Threshold > 0 {
		w = Sparsify(w, cfg.Threshold)
	}
	components := ConnectedComponents(w)
	if components > 1 {
		log.Debug("affinity graph is disconnected; eigenvalue 1 is repeated",
			zap.Int("components", components))
	}

	op, err := Normalize(w, cfg.DensityCorrect)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{Degrees: op.Degrees, Components: components}
	if !cfg.General {
		s, ok := op.S.(mat.Symmetric)
		if !ok || !op.Symmetric {
			return nil, inputErrorf("symmetric solver requested for a non-symmetric operator")
		}
		pairs, err := lanczos(s, k, cfg.solverOptions())
		if err != nil {
			return nil, err
		}
		backTransform(pairs.vectors, op.Degrees)
		res.Values, res.Vectors = canonicalize(pairs.values, pairs.vectors)
		res.Iterations = pairs.iterations
	} else {
		pairs, err := arnoldi(op.S, k, cfg.solverOptions())
		if err != nil {
			return nil, err
		}
		backTransformComplex(pairs.vectors, op.Degrees)
		res.Spectrum, res.ComplexVectors = canonicalizeComplex(pairs.values, pairs.vectors)
		var complexFound bool
		res.Values, res.Vectors, complexFound = realParts(res.Spectrum, res.ComplexVectors, imagTol)
		res.Iterations = pairs.iterations
		if complexFound {
			res.Warnings = append(res.Warnings, errors.Wrap(ErrComplexSpectrum,
				"Values and Vectors hold real parts; see Spectrum and ComplexVectors"))
			log.Warn("general solve returned complex eigenpairs",
				zap.Complex128s("spectrum", res.Spectrum))
		}
	}
	log.Debug("eigenpairs computed",
		zap.Bool("general", cfg.General),
		zap.Bool("density_correct", cfg.DensityCorrect),
		zap.Int("iterations", res.Iterations),
		zap.Float64s("values", res.Values),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func validateShape(n, k int) error {
	if n < 2 {
		return inputErrorf("need at least 2 points, got %d", n)
	}
	return checkRank(n, k)
}

func validateVectors(data [][]float64) error {
	if len(data) == 0 {
		return nil
	}
	dims := len(data[0])
	if dims == 0 {
		return inputErrorf("points must have at least one coordinate")
	}
	for i, row := range data {
		if len(row) != dims {
			return inputErrorf("point %d has %d coordinates, want %d", i, len(row), dims)
		}
	}
	return nil
}
