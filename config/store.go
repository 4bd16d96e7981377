package config

import "fmt"

// StoreConfig locates the persistent queue store.
type StoreConfig struct {
	// Addr is the TCP address of the queue store server.
	Addr string `json:"addr"`
	// Path is the sqlite database file. It is used by the store subcommand
	// and when Embedded is set.
	Path string `json:"path"`
	// Embedded starts an in-process store server on Addr instead of dialing
	// an external one.
	Embedded bool `json:"embedded"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:9123"
	}
	if c.Path == "" {
		c.Path = "nightq.db"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("store addr is required")
	}
	if c.Embedded && c.Path == "" {
		return fmt.Errorf("store path is required in embedded mode")
	}
	return nil
}
