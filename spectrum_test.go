package dmaps

import (
	"fmt"
	"math"
	"sort"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// gridPoints returns an n×n grid with unit spacing. Its x and y modes share
// every eigenvalue.
func gridPoints(n int) [][]float64 {
	points := make([][]float64, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			points = append(points, []float64{float64(i), float64(j)})
		}
	}
	return points
}

// ringPoints returns n equally spaced points on the unit circle. Every
// non-constant Fourier mode comes as a sine/cosine pair.
func ringPoints(n int) [][]float64 {
	points := make([][]float64, n)
	for i := range points {
		theta := 2 * math.Pi * float64(i) / float64(n)
		points[i] = []float64{math.Cos(theta), math.Sin(theta)}
	}
	return points
}

// denseTop returns the k largest-magnitude eigenvalues of the normalized
// operator of points from a full dense solve, with the affinity and degrees.
func denseTop(t *testing.T, points [][]float64, eps float64, k int) ([]float64, *mat.SymDense) {
	t.Helper()
	w, err := GaussianAffinity(distances(points), eps, ScaleSquared)
	if err != nil {
		t.Fatal(err)
	}
	op, err := Normalize(w, false)
	if err != nil {
		t.Fatal(err)
	}
	var es mat.EigenSym
	if !es.Factorize(op.S.(mat.Symmetric), false) {
		t.Fatal("dense factorization failed")
	}
	values := es.Values(nil)
	sort.Slice(values, func(i, j int) bool { return math.Abs(values[i]) > math.Abs(values[j]) })
	return values[:k], w
}

// weightedGram returns the Gram matrix of the columns of D^(1/2) v scaled
// to unit norm. For eigenvectors of P = D⁻¹W these are eigenvectors of the
// symmetric conjugate.
func weightedGram(v *mat.Dense, degrees []float64) *mat.Dense {
	n, k := v.Dims()
	u := mat.NewDense(n, k, nil)
	for c := 0; c < k; c++ {
		var norm float64
		for i := 0; i < n; i++ {
			x := math.Sqrt(degrees[i]) * v.At(i, c)
			u.Set(i, c, x)
			norm += x * x
		}
		norm = math.Sqrt(norm)
		for i := 0; i < n; i++ {
			u.Set(i, c, u.At(i, c)/norm)
		}
	}
	g := mat.NewDense(k, k, nil)
	g.Mul(u.T(), u)
	return g
}

// --- Repeated eigenvalue tests ---

func TestEmbed_RepeatedEigenvaluesMatchDenseSolve(t *testing.T) {
	tests := []struct {
		name   string
		points [][]float64
		eps    float64
		k      int
	}{
		{"grid", gridPoints(12), 1.5, 3},
		{"ring", ringPoints(80), 0.3, 5},
	}
	for _, tc := range tests {
		want, w := denseTop(t, tc.points, tc.eps, tc.k)
		n := len(tc.points)

		for _, general := range []bool{false, true} {
			solver := "lanczos"
			if general {
				solver = "arnoldi"
			}
			t.Run(fmt.Sprintf("%s/%s", tc.name, solver), func(t *testing.T) {
				cfg := DefaultConfig()
				cfg.Bandwidth = Fixed(tc.eps)
				cfg.General = general
				res, err := EmbedVectors(tc.points, tc.k, cfg)
				if err != nil {
					t.Fatal(err)
				}
				if len(res.Warnings) != 0 {
					t.Errorf("unexpected warnings: %v", res.Warnings)
				}
				for i := range want {
					if !almostEqual(res.Values[i], want[i], 1e-8) {
						t.Errorf("λ[%d] = %v, want %v (dense %v)", i, res.Values[i], want[i], want)
					}
				}

				p := mat.NewDense(n, n, nil)
				for i := 0; i < n; i++ {
					for j := 0; j < n; j++ {
						p.Set(i, j, w.At(i, j)/res.Degrees[i])
					}
				}
				for c, lambda := range res.Values {
					if r := residualNorm(p, lambda, res.Vectors.ColView(c)); r > 1e-7 {
						t.Errorf("‖Pv - λv‖ = %v for pair %d", r, c)
					}
				}

				// Copies of a repeated eigenvalue must be distinct directions.
				g := weightedGram(res.Vectors, res.Degrees)
				if general {
					if d := mat.Det(g); d < 1e-3 {
						t.Errorf("eigenvectors are nearly dependent: det(Gram) = %v", d)
					}
					return
				}
				if !mat.EqualApprox(g, eye(tc.k), 1e-6) {
					t.Errorf("eigenvectors are not orthogonal in the D-weighted sense:\n%v",
						mat.Formatted(g))
				}
			})
		}
	}
}

func TestEmbed_TwoIdenticalClusters(t *testing.T) {
	// Two copies of the same cluster, far apart: every eigenvalue of one
	// copy is also an eigenvalue of the other.
	cluster := sinePoints(15, 2)
	points := make([][]float64, 0, 2*len(cluster))
	for _, p := range cluster {
		points = append(points, p)
	}
	for _, p := range cluster {
		points = append(points, []float64{p[0] + 100, p[1]})
	}
	want, _ := denseTop(t, points, 0.8, 4)

	for _, general := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.Bandwidth = Fixed(0.8)
		cfg.General = general
		res, err := EmbedVectors(points, 4, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if res.Components != 2 {
			t.Errorf("general=%v: Components = %d, want 2", general, res.Components)
		}
		for i := range want {
			if !almostEqual(res.Values[i], want[i], 1e-8) {
				t.Errorf("general=%v: λ[%d] = %v, want %v", general, i, res.Values[i], want[i])
			}
		}
	}
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
