package dynamics

import (
	"errors"
	"fmt"
)

// Configuration errors, detected at problem construction. Never coerced.
var (
	// ErrUnknownSymbol indicates an override naming no declared symbol.
	ErrUnknownSymbol = errors.New("dynamics: unknown symbol")

	// ErrUnitMismatch indicates an override whose unit tag differs from
	// the symbol's declared unit.
	ErrUnitMismatch = errors.New("dynamics: unit mismatch")

	// ErrMissingUnit indicates an override without a unit tag.
	ErrMissingUnit = errors.New("dynamics: missing unit tag")

	// ErrBadTimeSpan indicates a time span with t1 <= t0.
	ErrBadTimeSpan = errors.New("dynamics: invalid time span")
)

// Numerical faults, detected during a solve. Reported on the Solution,
// not retried.
var (
	// ErrNonFinite indicates NaN or Inf appeared in the state.
	ErrNonFinite = errors.New("dynamics: non-finite state")

	// ErrStepTooSmall indicates the adaptive step fell below the minimum
	// without meeting the error tolerance.
	ErrStepTooSmall = errors.New("dynamics: adaptive step below minimum")

	// ErrMaxSteps indicates the step budget was exhausted before t1.
	ErrMaxSteps = errors.New("dynamics: step limit exceeded")
)

// SolveError wraps a numerical fault with the step context it arose in.
type SolveError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("step %d (t=%.4g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}
