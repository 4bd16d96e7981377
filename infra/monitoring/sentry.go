package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/peakobs/nightq/config"
	coremon "github.com/peakobs/nightq/core/monitoring"
)

// flushOnPanic bounds how long a crashing goroutine waits for its event to
// leave the process before the panic resumes.
const flushOnPanic = 2 * time.Second

// NewSentryMonitor initializes Sentry from the configuration and returns a
// Monitor. An empty DSN yields the no-op monitor so operators can omit the
// section entirely.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		ServerName:       cfg.ServerName,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
	}); err != nil {
		return nil, err
	}
	return &sentryMonitor{}, nil
}

type sentryMonitor struct{}

// CaptureException reports err on a cloned hub so per-call tags never leak
// into other goroutines' scopes.
func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
	})
	hub.CaptureException(err)
}

func (s *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(flushOnPanic)
		panic(r)
	}
}

func (s *sentryMonitor) Flush(timeout time.Duration) { sentry.Flush(timeout) }
