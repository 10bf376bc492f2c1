package dmaps

import "github.com/cockroachdb/errors"

// Sentinel errors. Every error returned by this package matches exactly one
// of them under errors.Is; the message carries the details.
var (
	// ErrInput reports an invalid argument: too few points, k outside
	// [1, N), a non-positive bandwidth, a non-finite affinity, or a
	// symmetric solve requested on a non-symmetric operator.
	ErrInput = errors.New("dmaps: invalid input")

	// ErrDegenerateGeometry reports a row of the affinity matrix whose
	// degree is zero or negative, i.e. a point with no affinity to anything.
	ErrDegenerateGeometry = errors.New("dmaps: degenerate geometry")

	// ErrConvergence reports that the Krylov eigensolver exhausted its
	// iteration budget before the requested eigenpairs converged.
	ErrConvergence = errors.New("dmaps: eigensolver did not converge")

	// ErrComplexSpectrum is never returned as a failure. It is attached to
	// Result.Warnings when a general solve produced eigenvalues with a
	// non-negligible imaginary part.
	ErrComplexSpectrum = errors.New("dmaps: complex eigenpairs in general solve")
)

func inputErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInput, format, args...)
}
