// Package metrics defines interfaces and implementations for collecting
// scheduling metrics. Sinks like PromSink and InfluxSink record passes,
// rejections and weight edits and can be combined with NewMultiSink. The
// factory helpers return a MultiSink automatically when multiple sinks are
// configured.
package metrics
