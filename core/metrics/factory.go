package metrics

import (
	"fmt"

	"github.com/peakobs/nightq/core/factory"
)

var sinkRegistry = factory.NewRegistry[MetricsSink]()

// RegisterMetricsSink adds a sink constructor under the given type name.
// infra/metrics registers the built-ins from its init.
func RegisterMetricsSink(name string, f factory.Factory[MetricsSink]) error {
	return sinkRegistry.Register(name, f)
}

// NewMetricsSink resolves the configured sinks. With none configured pass
// outcomes are dropped; several fan out behind a MultiSink.
func NewMetricsSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	switch len(cfgs) {
	case 0:
		return NopSink{}, nil
	case 1:
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]MetricsSink, 0, len(cfgs))
	for _, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, fmt.Errorf("sink %q: %w", c.Type, err)
		}
		sinks = append(sinks, s)
	}
	return NewMultiSink(sinks...), nil
}
