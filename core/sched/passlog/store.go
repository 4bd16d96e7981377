// Package passlog persists the outcome of every scheduling pass so operators
// can audit what the planner decided and why a slot stayed empty.
package passlog

import (
	"context"
	"time"

	"github.com/peakobs/nightq/core/model"
)

// PassRecord captures one scheduling pass and its commit outcome.
type PassRecord struct {
	Timestamp      time.Time         `json:"timestamp"`
	Night          string            `json:"night"`
	Strategy       string            `json:"strategy"`
	WeightsVersion uint64            `json:"weights_version"`
	SlotsTotal     int               `json:"slots_total"`
	SlotsAssigned  int               `json:"slots_assigned"`
	WasteMinutes   float64           `json:"waste_minutes"`
	Committed      bool              `json:"committed"`
	CommitAttempts int               `json:"commit_attempts,omitempty"`
	Assignments    []model.ExportRow `json:"assignments"`
	Report         string            `json:"report,omitempty"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start time.Time
	End   time.Time
	Night string
	// OBID matches passes that assigned the given OB.
	OBID string
}

// Store persists PassRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec PassRecord) error
	Query(ctx context.Context, q Query) ([]PassRecord, error)
	Close() error
}

// matches reports whether rec satisfies every filter in q.
func matches(rec PassRecord, q Query) bool {
	if !q.Start.IsZero() && rec.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && rec.Timestamp.After(q.End) {
		return false
	}
	if q.Night != "" && rec.Night != q.Night {
		return false
	}
	if q.OBID != "" {
		found := false
		for _, row := range rec.Assignments {
			if row.OB == q.OBID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
