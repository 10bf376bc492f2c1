// Package dataset generates synthetic point sets with known intrinsic
// geometry, for demos and tests of the embedding.
package dataset

import (
	"math"
	"math/rand/v2"
)

// SwissRoll samples n points uniformly from a square of side 64 and rolls
// the first axis into a spiral. Each point is (x, y, z); the intrinsic
// coordinates are the unrolled position and z.
func SwissRoll(n int, rng *rand.Rand) [][]float64 {
	const (
		size = 64.0
		r0   = 0.25
	)
	points := make([][]float64, n)
	for i := range points {
		u := size * rng.Float64()
		z := size * rng.Float64()
		t := math.Sqrt(2*u + r0*r0)
		points[i] = []float64{t * math.Cos(t), t * math.Sin(t), z}
	}
	return points
}

// SwissRollGrid places nxy points along an arc-length-spaced spiral of
// radius 1 to 3 over 1.5 turns, copies it at nz heights in [0, 3), and adds
// uniform noise in [0, deviation) to every coordinate.
func SwissRollGrid(nxy, nz int, deviation float64, rng *rand.Rand) [][]float64 {
	const (
		rStart     = 1.0
		rFinal     = 3.0
		thetaFinal = 3 * math.Pi
		zFinal     = 3.0
	)
	dr := (rFinal - rStart) / float64(nxy)
	ds := thetaFinal * rFinal / float64(nxy)

	xs := make([]float64, nxy)
	ys := make([]float64, nxy)
	r, theta := rStart, 0.0
	for i := 0; i < nxy; i++ {
		xs[i] = r * math.Cos(theta)
		ys[i] = r * math.Sin(theta)
		r += dr
		theta += ds / r
	}

	dz := zFinal / float64(nz)
	points := make([][]float64, 0, nxy*nz)
	for i := 0; i < nxy; i++ {
		for j := 0; j < nz; j++ {
			points = append(points, []float64{
				xs[i] + rng.Float64()*deviation,
				ys[i] + rng.Float64()*deviation,
				float64(j)*dz + rng.Float64()*deviation,
			})
		}
	}
	return points
}

// Circle places n points evenly on the unit circle. Its diffusion map is
// known in closed form: eigenvalues come in equal pairs after the leading 1,
// with cos/sin eigenvectors.
func Circle(n int) [][]float64 {
	points := make([][]float64, n)
	for i := range points {
		t := 2 * math.Pi * float64(i) / float64(n)
		points[i] = []float64{math.Cos(t), math.Sin(t)}
	}
	return points
}

// Line places n points evenly on [0, 1].
func Line(n int) [][]float64 {
	points := make([][]float64, n)
	for i := range points {
		points[i] = []float64{float64(i) / float64(n-1)}
	}
	return points
}
