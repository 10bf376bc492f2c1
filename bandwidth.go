package dmaps

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// BandwidthPolicy selects how the Gaussian bandwidth ε is derived.
type BandwidthPolicy int

const (
	// BandwidthMean uses the mean of all unique pairwise distances.
	BandwidthMean BandwidthPolicy = iota
	// BandwidthMedian uses the median of all unique pairwise distances.
	BandwidthMedian
	// BandwidthFixed uses Bandwidth.Value verbatim.
	BandwidthFixed
)

func (p BandwidthPolicy) String() string {
	switch p {
	case BandwidthMean:
		return "mean"
	case BandwidthMedian:
		return "median"
	case BandwidthFixed:
		return "fixed"
	default:
		return fmt.Sprintf("BandwidthPolicy(%d)", int(p))
	}
}

// Bandwidth is a bandwidth policy plus, for BandwidthFixed, its value.
// The zero value is the mean policy.
type Bandwidth struct {
	Policy BandwidthPolicy
	Value  float64
}

// Mean returns the mean-distance policy.
func Mean() Bandwidth { return Bandwidth{Policy: BandwidthMean} }

// Median returns the median-distance policy.
func Median() Bandwidth { return Bandwidth{Policy: BandwidthMedian} }

// Fixed returns a policy that always yields eps.
func Fixed(eps float64) Bandwidth { return Bandwidth{Policy: BandwidthFixed, Value: eps} }

func (b Bandwidth) String() string {
	if b.Policy == BandwidthFixed {
		return strconv.FormatFloat(b.Value, 'g', -1, 64)
	}
	return b.Policy.String()
}

// ParseBandwidth accepts "mean", "median" or a positive number.
func ParseBandwidth(s string) (Bandwidth, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mean":
		return Mean(), nil
	case "median":
		return Median(), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Bandwidth{}, errors.Wrapf(ErrInput, "bandwidth %q is neither mean, median nor a number", s)
	}
	b := Fixed(v)
	if err := b.validate(); err != nil {
		return Bandwidth{}, err
	}
	return b, nil
}

func (b Bandwidth) validate() error {
	switch b.Policy {
	case BandwidthMean, BandwidthMedian:
		return nil
	case BandwidthFixed:
		return checkEpsilon(b.Value)
	default:
		return inputErrorf("unknown bandwidth policy %v", b.Policy)
	}
}

func checkEpsilon(eps float64) error {
	if !(eps > 0) || math.IsInf(eps, 0) {
		return inputErrorf("bandwidth must be finite and > 0, got %v", eps)
	}
	return nil
}

// SelectBandwidth derives ε from a symmetric matrix of raw pairwise
// distances. Only the strictly upper triangle is read, so each unordered
// pair counts once; zero distances between coincident points are kept, as
// they are legitimate samples of the distance distribution.
func SelectBandwidth(dist mat.Symmetric, bw Bandwidth) (float64, error) {
	if err := bw.validate(); err != nil {
		return 0, err
	}
	if bw.Policy == BandwidthFixed {
		return bw.Value, nil
	}

	n := dist.SymmetricDim()
	if n < 2 {
		return 0, inputErrorf("%s bandwidth needs at least 2 points, got %d", bw.Policy, n)
	}

	pairs := upperTriangle(dist)
	var eps float64
	switch bw.Policy {
	case BandwidthMean:
		// len(pairs) is exactly n(n-1)/2.
		eps = stat.Mean(pairs, nil)
	case BandwidthMedian:
		eps = median(pairs)
	}
	if err := checkEpsilon(eps); err != nil {
		return 0, errors.Wrapf(err, "%s bandwidth", bw.Policy)
	}
	return eps, nil
}

// upperTriangle returns the n(n-1)/2 entries above the diagonal, row by row.
func upperTriangle(m mat.Symmetric) []float64 {
	n := m.SymmetricDim()
	out := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

// median sorts x in place and returns its median, averaging the two middle
// values when len(x) is even.
func median(x []float64) float64 {
	sort.Float64s(x)
	mid := len(x) / 2
	if len(x)%2 == 1 {
		return x[mid]
	}
	return (x[mid-1] + x[mid]) / 2
}
