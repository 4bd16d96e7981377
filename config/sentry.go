package config

// SentryConfig defines settings for Sentry error reporting. An empty DSN
// leaves reporting disabled.
type SentryConfig struct {
	DSN         string `json:"dsn"`
	Environment string `json:"environment"`
	// ServerName tags events with the deployment, e.g. the site name.
	ServerName       string  `json:"server_name"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}
