package dmaps

import (
	"math"
	"runtime"

	"go.uber.org/zap"
)

// Config controls the embedding.
// Start with [DefaultConfig] (or [DefaultKernelConfig]) and override the
// fields you need. The zero value is usable and selects the symmetric
// (Lanczos) solver.
type Config struct {
	// Metric is the distance used by EmbedVectors. Embed and
	// EmbedWithKernel take their evaluator as an argument and ignore it.
	// Default: Euclidean.
	Metric Metric[[]float64]

	// Bandwidth chooses ε for the Gaussian kernel: Mean(), Median() or
	// Fixed(v). Ignored by EmbedWithKernel. Default: Mean().
	Bandwidth Bandwidth

	// KernelScale chooses exp(-d²/ε²) (ScaleSquared) or exp(-d²/ε)
	// (ScaleLinear). Default: ScaleSquared.
	KernelScale KernelScale

	// DensityCorrect applies the anisotropic (Laplace–Beltrami)
	// normalization W' = D⁻¹WD⁻¹ before the Markov normalization, removing
	// the influence of nonuniform sampling density. Default: false.
	DensityCorrect bool

	// Threshold zeroes every affinity below it before normalization,
	// dropping negligible long-range weights. Must be >= 0. Default: 0.
	Threshold float64

	// General selects the Arnoldi solver, which accepts non-symmetric
	// kernels and may return complex eigenpairs. When false the Lanczos
	// solver for symmetric operators is used, and EmbedWithKernel evaluates
	// each unordered pair once. Default: false (DefaultKernelConfig: true).
	General bool

	// Tolerance is the relative residual at which a Ritz pair is accepted.
	// Must be > 0. Default: 1e-10.
	Tolerance float64

	// MaxIterations caps the Krylov subspace dimension. 0 means N, which
	// always suffices. Must be >= 0. Default: 0.
	MaxIterations int

	// Seed seeds the random start vector of the eigensolver. Identical
	// inputs and seeds give identical results. Default: 1.
	Seed uint64

	// Workers controls the number of goroutines used to evaluate the
	// pairwise matrix. 0 means runtime.NumCPU(). Default: 0 (auto).
	Workers int

	// Logger receives stage timings at Debug level and the complex
	// spectrum warning at Warn level. nil means no logging.
	Logger *zap.Logger
}

// DefaultConfig returns the configuration for metric-based embeddings.
func DefaultConfig() Config {
	return Config{
		Metric:      Euclidean,
		Bandwidth:   Mean(),
		KernelScale: ScaleSquared,
		Tolerance:   1e-10,
		Seed:        1,
	}
}

// DefaultKernelConfig returns the configuration for EmbedWithKernel, which
// does not assume the kernel is symmetric.
func DefaultKernelConfig() Config {
	cfg := DefaultConfig()
	cfg.General = true
	return cfg
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if err := cfg.Bandwidth.validate(); err != nil {
		return err
	}
	if cfg.KernelScale != ScaleSquared && cfg.KernelScale != ScaleLinear {
		return inputErrorf("unknown KernelScale %v", cfg.KernelScale)
	}
	if !(cfg.Threshold >= 0) || math.IsInf(cfg.Threshold, 0) {
		return inputErrorf("Threshold must be finite and >= 0, got %v", cfg.Threshold)
	}
	if !(cfg.Tolerance > 0) || math.IsInf(cfg.Tolerance, 0) {
		return inputErrorf("Tolerance must be finite and > 0, got %v", cfg.Tolerance)
	}
	if cfg.MaxIterations < 0 {
		return inputErrorf("MaxIterations must be >= 0 (0 means N), got %d", cfg.MaxIterations)
	}
	if cfg.Workers < 0 {
		return inputErrorf("Workers must be >= 0 (0 means NumCPU), got %d", cfg.Workers)
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Metric == nil {
		cfg.Metric = Euclidean
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = 1e-10
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
}

func (cfg *Config) solverOptions() solverOptions {
	return solverOptions{
		tol:     cfg.Tolerance,
		maxIter: cfg.MaxIterations,
		seed:    cfg.Seed,
	}
}
