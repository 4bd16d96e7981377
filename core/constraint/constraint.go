package constraint

import (
	"context"
	"time"

	"github.com/peakobs/nightq/core/model"
)

// Result is the outcome of checking one OB against one slot.
type Result struct {
	OK bool
	// Name identifies the predicate that produced the result. For a failing
	// result it is the first predicate that rejected the pair.
	Name string
	// Reason is a short human-readable diagnostic for a failing result.
	Reason string
	// EarliestStart is the first instant the target satisfies the observing
	// constraints inside the slot. Zero when not applicable.
	EarliestStart time.Time
	// SetsAt is when the target leaves the observing constraints. Zero when
	// the oracle could not tell. It feeds urgency scoring.
	SetsAt time.Time
}

// Constraint is a single named feasibility predicate.
//
// Check returns a failing Result for an infeasible pair and reserves the
// error return for evaluation problems: a transient error excludes the OB
// from the current slot only, while an oracle outage aborts the whole pass.
type Constraint interface {
	Name() string
	Check(ctx context.Context, slot model.Slot, ob model.OB) (Result, error)
}

func infeasible(name, reason string) Result {
	return Result{OK: false, Name: name, Reason: reason}
}
