// Package monitoring is the error-reporting seam of the service. Production
// wires a Sentry-backed Monitor at startup; everything else calls the
// package-level helpers, which fall back to a no-op when monitoring is
// disabled. Scheduling failures are expected operational events and are NOT
// reported here; this channel is for faults like an unreachable broker or a
// panicking pass loop.
package monitoring

import "time"

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor discards everything. It is the default until Init is called.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation. A nil monitor is ignored so
// callers can pass the result of a disabled setup unconditionally.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records the error with optional tags. Nil errors are
// dropped by the backends.
func CaptureException(err error, tags map[string]string) {
	current.CaptureException(err, tags)
}

// Recover captures panics in goroutines. Use as: defer monitoring.Recover().
func Recover() {
	current.Recover()
}

// Flush flushes buffered events. Call before process exit.
func Flush(d time.Duration) {
	current.Flush(d)
}
