package constraint

import (
	"fmt"
	"time"
)

// EvalError reports that a predicate could not be evaluated. It carries the
// identifiers a caller needs to log or exclude the pair. Use errors.Is to
// detect systemic causes such as visibility.ErrUnavailable through Unwrap.
type EvalError struct {
	OB         string
	SlotStart  time.Time
	Constraint string
	Err        error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("constraint %s: ob %s, slot %s: %v",
		e.Constraint, e.OB, e.SlotStart.Format(time.RFC3339), e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }
