package metrics

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPass forwards the pass record to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordPass(res PassResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordPass(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordRejections forwards rejection events to sinks that support them.
func (m *MultiSink) RecordRejections(evs []RejectionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(RejectionRecorder); ok {
			if err := rec.RecordRejections(evs); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordWeightUpdate forwards weight edits to sinks that support them.
func (m *MultiSink) RecordWeightUpdate(ev WeightEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(WeightRecorder); ok {
			if err := rec.RecordWeightUpdate(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordCommit forwards commit outcomes to sinks that support them.
func (m *MultiSink) RecordCommit(ev CommitEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(CommitRecorder); ok {
			if err := rec.RecordCommit(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
