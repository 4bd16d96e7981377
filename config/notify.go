package config

import "time"

// NotifyConfig controls the schedule-change announcements sent to the
// execution tooling over MQTT.
type NotifyConfig struct {
	// Enabled turns the MQTT notifier on. When false the service plans and
	// commits without announcing.
	Enabled bool `json:"enabled"`
	// AckTimeoutSeconds bounds the wait for the execution tool's ack after
	// each announcement.
	AckTimeoutSeconds int `json:"ack_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *NotifyConfig) SetDefaults() {
	if c.AckTimeoutSeconds == 0 {
		c.AckTimeoutSeconds = 10
	}
}

// AckTimeout returns the ack wait bound as a duration.
func (c NotifyConfig) AckTimeout() time.Duration {
	return time.Duration(c.AckTimeoutSeconds) * time.Second
}
