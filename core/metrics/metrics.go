package metrics

import (
	"time"
)

// PassResult summarizes one scheduling pass for observability sinks.
type PassResult struct {
	Night          string
	Strategy       string
	WeightsVersion uint64
	SlotsTotal     int
	SlotsAssigned  int
	OBsConsidered  int
	OBsScheduled   int
	WasteMinutes   float64
	Elapsed        time.Duration
	Time           time.Time
}

// MetricsSink records scheduling passes for observability purposes.
type MetricsSink interface {
	RecordPass(res PassResult) error
}

// RejectionEvent captures one OB being kept out of a slot.
type RejectionEvent struct {
	Night      string
	OB         string
	Slot       time.Time
	Constraint string
	Reason     string
	Time       time.Time
}

// RejectionRecorder records constraint rejections.
type RejectionRecorder interface {
	RecordRejections(evs []RejectionEvent) error
}

// WeightEvent captures an accepted weight table edit.
type WeightEvent struct {
	Key     string
	Value   float64
	Version uint64
	Time    time.Time
}

// WeightRecorder records weight table edits.
type WeightRecorder interface {
	RecordWeightUpdate(ev WeightEvent) error
}

// CommitEvent captures the outcome of writing a schedule to the queue store.
type CommitEvent struct {
	Night    string
	OBs      int
	Attempts int
	Conflict bool
	Time     time.Time
}

// CommitRecorder records store commit outcomes.
type CommitRecorder interface {
	RecordCommit(ev CommitEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPass(PassResult) error             { return nil }
func (NopSink) RecordRejections([]RejectionEvent) error { return nil }
func (NopSink) RecordWeightUpdate(WeightEvent) error    { return nil }
func (NopSink) RecordCommit(CommitEvent) error          { return nil }
