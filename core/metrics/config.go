package metrics

import "github.com/peakobs/nightq/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort, when non-zero, exposes /metrics on this port.
	PrometheusPort int `json:"prometheus_port"`
}
