package dmaps

import (
	"sync"

	"gonum.org/v1/gonum/mat"
)

// PairwiseSymmetricParallel is PairwiseSymmetric spread over numWorkers
// goroutines. If numWorkers <= 1, it falls back to the single-threaded
// PairwiseSymmetric.
//
// The result is bitwise identical to PairwiseSymmetric.
func PairwiseSymmetricParallel[T any](points []T, f func(a, b T) float64, diagonal bool, numWorkers int) *mat.SymDense {
	n := len(points)
	if numWorkers <= 1 || n <= 1 {
		return PairwiseSymmetric(points, f, diagonal)
	}

	m := mat.NewSymDense(n, nil)
	raw := m.RawSymmetric()
	// Row i of the upper triangle holds n-i cells, so rows are dealt
	// round-robin rather than in contiguous blocks to even out the work.
	forEachRow(n, numWorkers, true, func(i int) {
		fillSymmetricRow(raw, points, f, diagonal, i)
	})
	return m
}

// PairwiseGeneralParallel is PairwiseGeneral spread over numWorkers
// goroutines. If numWorkers <= 1, it falls back to the single-threaded
// PairwiseGeneral.
func PairwiseGeneralParallel[T any](points []T, f func(a, b T) float64, numWorkers int) *mat.Dense {
	n := len(points)
	if numWorkers <= 1 || n <= 1 {
		return PairwiseGeneral(points, f)
	}

	m := mat.NewDense(n, n, nil)
	raw := m.RawMatrix()
	forEachRow(n, numWorkers, false, func(i int) {
		fillGeneralRow(raw, points, f, i)
	})
	return m
}

// forEachRow calls fn(i) for every i in [0, n) across numWorkers goroutines.
// Each row is handled by exactly one worker, so fn may write its row without
// synchronization. With interleave, worker w takes rows w, w+numWorkers, ...;
// otherwise it takes one contiguous block.
//
// A panic in fn is re-raised on the calling goroutine once all workers have
// stopped.
func forEachRow(n, numWorkers int, interleave bool, fn func(i int)) {
	var (
		wg        sync.WaitGroup
		once      sync.Once
		recovered interface{}
	)

	rowsPerWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start, end, step := w, n, numWorkers
		if !interleave {
			start = w * rowsPerWorker
			end = min(start+rowsPerWorker, n)
			step = 1
		}
		if start >= n {
			break
		}

		wg.Add(1)
		go func(start, end, step int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() { recovered = r })
				}
			}()
			for i := start; i < end; i += step {
				fn(i)
			}
		}(start, end, step)
	}

	wg.Wait()
	if recovered != nil {
		panic(recovered)
	}
}
