// Package infra holds the technology-specific adapters behind the core
// interfaces: the zerolog logger, the Prometheus and InfluxDB sinks, the
// paho schedule notifier, the Sentry monitor and the horizon-model oracle.
// Core packages never import from here; wiring happens in app.
package infra
