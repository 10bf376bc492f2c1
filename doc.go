// Package dmaps implements Diffusion Maps (DMAPS), a nonlinear spectral
// embedding that recovers the intrinsic geometry of a point set.
//
// The affinity W between points is turned into the random walk
// P = D⁻¹W (D the row sums of W). The leading eigenvectors of P are the
// embedding coordinates; the first is constant with eigenvalue 1 for a
// connected point set. P is solved through its symmetric conjugate
// S = D^(-1/2) W D^(-1/2) so that a Lanczos solver can be used, and the
// eigenvectors are mapped back to P afterwards.
//
// Basic usage:
//
//	cfg := dmaps.DefaultConfig()
//	cfg.Bandwidth = dmaps.Median()
//	res, err := dmaps.EmbedVectors(data, 5, cfg)
//	// res.Values[i] is the i-th eigenvalue, by decreasing magnitude
//	// res.Vectors.At(j, i) is coordinate i of point j
//
// Any point type works with a metric:
//
//	res, err := dmaps.Embed(graphs, 3, editDistance, dmaps.DefaultConfig())
//
// or with a kernel that already encodes the affinity:
//
//	res, err := dmaps.EmbedWithKernel(points, 3, kernels.Gaussian(0.5), dmaps.DefaultKernelConfig())
//
// # Bandwidth
//
// Embed uses the Gaussian kernel exp(-d²/ε²) (or exp(-d²/ε) with
// ScaleLinear). ε is the mean or median of the unique pairwise distances,
// or a fixed value. EpsilonSweep helps choosing a fixed value.
//
// # Density correction
//
// With Config.DensityCorrect the affinity is first normalized as
// D⁻¹WD⁻¹, so that the embedding reflects the geometry of the manifold
// rather than how densely it was sampled.
//
// # Non-symmetric kernels
//
// With Config.General the Arnoldi solver is used instead of
// Lanczos. Its eigenpairs may be complex; Result.Values then carry the real
// parts, Result.Spectrum the full values, and Result.Warnings contains
// ErrComplexSpectrum.
package dmaps
