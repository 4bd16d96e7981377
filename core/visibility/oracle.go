package visibility

import (
	"context"
	"errors"
	"time"

	"github.com/peakobs/nightq/core/model"
)

// ErrUnavailable marks a systemic oracle outage. Callers must treat it as
// fatal for the whole scheduling pass, not as a per-target miss.
var ErrUnavailable = errors.New("visibility oracle unavailable")

// Request asks whether a target stays inside its observing constraints for
// Duration somewhere between Start and Stop.
type Request struct {
	Target   model.Target
	Start    time.Time
	Stop     time.Time
	MinEl    float64 // degrees
	MaxEl    float64 // degrees
	Airmass  float64 // maximum acceptable airmass, 0 means no limit
	Duration time.Duration
}

// Result is the oracle's answer for one request.
type Result struct {
	// OK reports whether the target is observable for the full duration.
	OK bool
	// EarliestStart is the first instant the constraints hold. Only
	// meaningful when OK is true.
	EarliestStart time.Time
	// SetsAt is when the target leaves the constraints for the rest of the
	// window. A zero value means the oracle could not tell.
	SetsAt time.Time
}

// Oracle answers visibility questions. Implementations must return
// ErrUnavailable (possibly wrapped) when the backing service cannot be
// reached, and plain per-request errors for malformed input.
type Oracle interface {
	Observable(ctx context.Context, req Request) (Result, error)
}

// MockOracle returns canned answers keyed by target name.
type MockOracle struct {
	Results map[string]Result
	Errs    map[string]error
	// Default is returned for targets with no configured entry.
	Default Result
	// Calls counts requests, useful to assert caching behaviour.
	Calls int
}

// Observable returns the configured result or error for the target.
func (m *MockOracle) Observable(_ context.Context, req Request) (Result, error) {
	m.Calls++
	if err, ok := m.Errs[req.Target.Name]; ok {
		return Result{}, err
	}
	if res, ok := m.Results[req.Target.Name]; ok {
		return res, nil
	}
	return m.Default, nil
}
