package main

import (
	"fmt"
	"time"
)

// Config holds the simulator parameters, populated from flags.
type Config struct {
	Broker      string
	Count       int
	UpdateTopic string
	AckTopic    string
	AckLatency  time.Duration
	DropRate    float64
	Verbose     bool
}

// Validate rejects parameter combinations the simulator cannot run with.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	if c.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", c.Count)
	}
	if c.DropRate < 0 || c.DropRate > 1 {
		return fmt.Errorf("drop-rate must be within [0,1], got %g", c.DropRate)
	}
	if c.UpdateTopic == "" || c.AckTopic == "" {
		return fmt.Errorf("update and ack topics are required")
	}
	return nil
}
