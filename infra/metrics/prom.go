package metrics

import (
	coremetrics "github.com/peakobs/nightq/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records scheduling events in Prometheus metrics.
type PromSink struct {
	passes     *prometheus.CounterVec
	assigned   prometheus.Gauge
	unassigned prometheus.Gauge
	waste      prometheus.Gauge
	weightsVer prometheus.Gauge
	elapsed    prometheus.Histogram
	rejections *prometheus.CounterVec
	edits      prometheus.Counter
	commits    *prometheus.CounterVec
}

// NewPromSink registers scheduling metrics on the default Prometheus
// registerer. The metrics HTTP server is started separately.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nightq_passes_total",
			Help: "Total number of scheduling passes recorded",
		}, []string{"strategy"}),
		assigned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nightq_last_pass_assigned_slots",
			Help: "Slots assigned in the most recent pass",
		}),
		unassigned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nightq_last_pass_unassigned_slots",
			Help: "Slots left empty in the most recent pass",
		}),
		waste: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nightq_last_pass_waste_minutes",
			Help: "Unassigned minutes in the most recent pass",
		}),
		weightsVer: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nightq_weights_version",
			Help: "Weight table version used by the most recent pass",
		}),
		elapsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nightq_pass_elapsed_seconds",
			Help:    "Wall time of recorded passes",
			Buckets: prometheus.DefBuckets,
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nightq_rejections_total",
			Help: "OB rejections recorded, by constraint",
		}, []string{"constraint"}),
		edits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nightq_weight_edits_total",
			Help: "Accepted weight table edits",
		}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nightq_commits_total",
			Help: "Schedule commits to the queue store, by outcome",
		}, []string{"outcome"}),
	}

	collectors := []prometheus.Collector{
		s.passes, s.assigned, s.unassigned, s.waste, s.weightsVer,
		s.elapsed, s.rejections, s.edits, s.commits,
	}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			switch i {
			case 0:
				s.passes = are.ExistingCollector.(*prometheus.CounterVec)
			case 1:
				s.assigned = are.ExistingCollector.(prometheus.Gauge)
			case 2:
				s.unassigned = are.ExistingCollector.(prometheus.Gauge)
			case 3:
				s.waste = are.ExistingCollector.(prometheus.Gauge)
			case 4:
				s.weightsVer = are.ExistingCollector.(prometheus.Gauge)
			case 5:
				s.elapsed = are.ExistingCollector.(prometheus.Histogram)
			case 6:
				s.rejections = are.ExistingCollector.(*prometheus.CounterVec)
			case 7:
				s.edits = are.ExistingCollector.(prometheus.Counter)
			case 8:
				s.commits = are.ExistingCollector.(*prometheus.CounterVec)
			}
		}
	}
	return s, nil
}

// RecordPass updates the per-pass gauges and counters.
func (s *PromSink) RecordPass(res coremetrics.PassResult) error {
	s.passes.WithLabelValues(res.Strategy).Inc()
	s.assigned.Set(float64(res.SlotsAssigned))
	s.unassigned.Set(float64(res.SlotsTotal - res.SlotsAssigned))
	s.waste.Set(res.WasteMinutes)
	s.weightsVer.Set(float64(res.WeightsVersion))
	s.elapsed.Observe(res.Elapsed.Seconds())
	return nil
}

// RecordRejections increments the rejection counter per constraint.
func (s *PromSink) RecordRejections(evs []coremetrics.RejectionEvent) error {
	for _, ev := range evs {
		s.rejections.WithLabelValues(ev.Constraint).Inc()
	}
	return nil
}

// RecordWeightUpdate counts accepted edits.
func (s *PromSink) RecordWeightUpdate(_ coremetrics.WeightEvent) error {
	s.edits.Inc()
	return nil
}

// RecordCommit counts commit outcomes.
func (s *PromSink) RecordCommit(ev coremetrics.CommitEvent) error {
	outcome := "ok"
	if ev.Conflict {
		outcome = "conflict"
	}
	s.commits.WithLabelValues(outcome).Inc()
	return nil
}
