package dmaps

import (
	"math/rand/v2"
	"runtime"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func generateBenchData(n, dims int) [][]float64 {
	rng := rand.New(rand.NewPCG(42, 42))
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, dims)
		for j := range data[i] {
			data[i][j] = rng.Float64() * 100
		}
	}
	return data
}

// --- Pairwise Distances ---

func benchPairwise(b *testing.B, n, workers int) {
	b.Helper()
	data := generateBenchData(n, 3)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		PairwiseSymmetricParallel(data, Euclidean, false, workers)
	}
}

func BenchmarkPairwise_500(b *testing.B)          { benchPairwise(b, 500, 1) }
func BenchmarkPairwise_1000(b *testing.B)         { benchPairwise(b, 1000, 1) }
func BenchmarkPairwiseParallel_1000(b *testing.B) { benchPairwise(b, 1000, runtime.NumCPU()) }

// --- Eigensolvers ---

func benchSolver(b *testing.B, n int, symmetric bool) {
	b.Helper()
	dist := PairwiseSymmetric(generateBenchData(n, 3), Euclidean, false)
	eps, err := SelectBandwidth(dist, Mean())
	if err != nil {
		b.Fatal(err)
	}
	w, err := GaussianAffinity(dist, eps, ScaleSquared)
	if err != nil {
		b.Fatal(err)
	}
	op, err := Normalize(w, false)
	if err != nil {
		b.Fatal(err)
	}
	opts := solverOptions{tol: 1e-10, seed: 1}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if symmetric {
			_, err = lanczos(op.S.(mat.Symmetric), 5, opts)
		} else {
			_, err = arnoldi(op.S, 5, opts)
		}
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLanczos_200(b *testing.B) { benchSolver(b, 200, true) }
func BenchmarkLanczos_500(b *testing.B) { benchSolver(b, 500, true) }
func BenchmarkArnoldi_200(b *testing.B) { benchSolver(b, 200, false) }

// --- Full Pipeline ---

func benchEmbed(b *testing.B, n int) {
	b.Helper()
	data := generateBenchData(n, 3)
	cfg := DefaultConfig()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EmbedVectors(data, 5, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEmbed_100(b *testing.B)  { benchEmbed(b, 100) }
func BenchmarkEmbed_500(b *testing.B)  { benchEmbed(b, 500) }
func BenchmarkEmbed_1000(b *testing.B) { benchEmbed(b, 1000) }
