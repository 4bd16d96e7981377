package sched

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	passesTotal     *prometheus.CounterVec
	passDuration    prometheus.Histogram
	slotsConsidered prometheus.Counter
	slotsUnassigned prometheus.Counter
	obsScheduled    prometheus.Counter
	obsRejected     *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Histogram, prometheus.Counter, prometheus.Counter, prometheus.Counter, *prometheus.CounterVec) {
	passes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sched_passes_total",
			Help: "Number of scheduling passes by outcome",
		},
		[]string{"status"},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sched_pass_duration_seconds",
			Help:    "Wall time of completed scheduling passes",
			Buckets: prometheus.DefBuckets,
		},
	)
	considered := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sched_slots_considered_total",
			Help: "Number of slots examined across passes",
		},
	)
	unassigned := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sched_slots_unassigned_total",
			Help: "Number of slots left without an OB",
		},
	)
	scheduled := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sched_obs_scheduled_total",
			Help: "Number of OBs placed into slots",
		},
	)
	rejected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sched_obs_rejected_total",
			Help: "Number of OB rejections by constraint name",
		},
		[]string{"constraint"},
	)
	return passes, dur, considered, unassigned, scheduled, rejected
}

func init() {
	passesTotal, passDuration, slotsConsidered, slotsUnassigned, obsScheduled, obsRejected = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers scheduling metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(passesTotal, passDuration, slotsConsidered, slotsUnassigned, obsScheduled, obsRejected)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	passesTotal, passDuration, slotsConsidered, slotsUnassigned, obsScheduled, obsRejected = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
