// Package usedtime aggregates the execution ledger into per-program
// totals for allocation accounting.
package usedtime

import (
	"context"
	"time"

	"github.com/peakobs/nightq/core/model"
	"github.com/peakobs/nightq/qstore"
)

// Ledger is the slice of the store client this job reads from.
type Ledger interface {
	ListExecutions(ctx context.Context, program, night string) ([]qstore.ExecutionRecord, error)
}

// Recorder is the slice of the store client Backfill writes to.
type Recorder interface {
	RecordExecution(ctx context.Context, rec qstore.ExecutionRecord) error
}

// Sum returns the total executed time charged to each program.
func Sum(ctx context.Context, ledger Ledger) (map[string]time.Duration, error) {
	recs, err := ledger.ListExecutions(ctx, "", "")
	if err != nil {
		return nil, err
	}
	used := make(map[string]time.Duration, len(recs))
	for _, rec := range recs {
		used[rec.Program] += time.Duration(rec.Minutes * float64(time.Minute))
	}
	return used, nil
}

// Backfill seeds the ledger from OBs already marked executed, for queues
// that predate it. The OB's own total time is charged; at stamps every
// generated entry since the true execution time is unknown.
func Backfill(ctx context.Context, rec Recorder, obs []model.OB, at time.Time) error {
	for _, ob := range obs {
		if ob.Status != model.StatusExecuted {
			continue
		}
		entry := qstore.ExecutionRecord{
			OBID:    ob.ID,
			Program: ob.Program,
			Night:   at.Format("2006-01-02"),
			At:      at,
			Minutes: ob.TotalTime.Minutes(),
		}
		if err := rec.RecordExecution(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
