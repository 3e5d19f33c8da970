package bot

import "math"

// ClosePolicy decides when an open position's spread has converged enough to
// unwind. The engine exposes the data; this policy belongs to the loop.
type ClosePolicy struct {
	// ConvergenceRatio closes when |current| has fallen below this fraction
	// of |entry|.
	ConvergenceRatio float64
}

// ShouldClose triggers on convergence below the ratio or on a sign flip of
// the spread relative to entry.
func (p ClosePolicy) ShouldClose(entrySpread, currentSpread float64) bool {
	if math.Abs(currentSpread) < math.Abs(entrySpread)*p.ConvergenceRatio {
		return true
	}
	return currentSpread*entrySpread < 0
}
