package dataset

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwissRoll(t *testing.T) {
	points := SwissRoll(200, rand.New(rand.NewPCG(1, 2)))
	require.Len(t, points, 200)
	for _, p := range points {
		require.Len(t, p, 3)
		r := math.Hypot(p[0], p[1])
		// r = sqrt(2u + r0²) with u in [0, 64)
		assert.GreaterOrEqual(t, r, 0.25-1e-12)
		assert.Less(t, r, math.Sqrt(128+0.0625))
		assert.GreaterOrEqual(t, p[2], 0.0)
		assert.Less(t, p[2], 64.0)
	}
}

func TestSwissRoll_Deterministic(t *testing.T) {
	a := SwissRoll(20, rand.New(rand.NewPCG(9, 9)))
	b := SwissRoll(20, rand.New(rand.NewPCG(9, 9)))
	assert.Equal(t, a, b)
}

func TestSwissRollGrid(t *testing.T) {
	points := SwissRollGrid(50, 4, 0, rand.New(rand.NewPCG(1, 1)))
	require.Len(t, points, 200)

	// Without noise the layers sit at j·3/4 and radii grow from 1 toward 3.
	assert.Equal(t, []float64{1, 0, 0}, points[0])
	assert.InDelta(t, 0.75, points[1][2], 1e-15)
	last := points[len(points)-1]
	assert.InDelta(t, 2.25, last[2], 1e-15)
	r := math.Hypot(last[0], last[1])
	assert.Greater(t, r, 2.9)
	assert.Less(t, r, 3.0)
}

func TestSwissRollGrid_Noise(t *testing.T) {
	clean := SwissRollGrid(10, 2, 0, rand.New(rand.NewPCG(1, 1)))
	noisy := SwissRollGrid(10, 2, 0.01, rand.New(rand.NewPCG(1, 1)))
	for i := range clean {
		for j := range clean[i] {
			d := noisy[i][j] - clean[i][j]
			assert.GreaterOrEqual(t, d, 0.0)
			assert.Less(t, d, 0.01)
		}
	}
}

func TestCircle(t *testing.T) {
	points := Circle(8)
	require.Len(t, points, 8)
	for _, p := range points {
		assert.InDelta(t, 1.0, math.Hypot(p[0], p[1]), 1e-15)
	}
	assert.InDelta(t, 0.0, points[2][0], 1e-15)
	assert.InDelta(t, 1.0, points[2][1], 1e-15)
}

func TestLine(t *testing.T) {
	assert.Equal(t, [][]float64{{0}, {0.25}, {0.5}, {0.75}, {1}}, Line(5))
}
