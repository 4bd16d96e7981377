package sched

import (
	"fmt"
	"time"
)

// OracleError aborts a whole scheduling pass: the visibility oracle could not
// be reached, so no per-OB decision taken so far can be trusted. It wraps the
// underlying cause, so errors.Is(err, visibility.ErrUnavailable) holds.
type OracleError struct {
	Night string
	Slot  time.Time
	OB    string
	Err   error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("pass for night %s aborted at slot %s (ob %s): %v",
		e.Night, e.Slot.Format(time.RFC3339), e.OB, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }
