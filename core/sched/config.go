package sched

import (
	"fmt"
	"time"
)

// Strategy names accepted by Config.
const (
	StrategyGreedy = "greedy"
	StrategyGlobal = "global"
)

// Tie-break dimensions accepted by Config. When two candidates score equally
// the configured dimension decides before the OB identifier does.
const (
	TieBreakUrgency = "urgency"
	TieBreakWeight  = "weight"
)

// Config defines scheduling behaviour.
type Config struct {
	// Strategy selects the fill algorithm: "greedy" or "global".
	Strategy string `json:"strategy"`
	// TieBreak decides equal scores: "urgency" prefers the candidate closer
	// to its visibility deadline, "weight" the heavier program.
	TieBreak string `json:"tie_break"`
	// UrgencyHorizonMinutes is the window over which urgency ramps up. A
	// target setting within the horizon scores progressively higher, one
	// setting beyond it is neutral.
	UrgencyHorizonMinutes int `json:"urgency_horizon_minutes"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyGreedy
	}
	if c.TieBreak == "" {
		c.TieBreak = TieBreakUrgency
	}
	if c.UrgencyHorizonMinutes == 0 {
		c.UrgencyHorizonMinutes = 240
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Strategy != StrategyGreedy && c.Strategy != StrategyGlobal {
		return fmt.Errorf("unknown strategy %s", c.Strategy)
	}
	if c.TieBreak != TieBreakUrgency && c.TieBreak != TieBreakWeight {
		return fmt.Errorf("unknown tie_break %s", c.TieBreak)
	}
	if c.UrgencyHorizonMinutes <= 0 {
		return fmt.Errorf("urgency_horizon_minutes must be positive")
	}
	return nil
}

// Horizon returns the urgency horizon as a duration.
func (c Config) Horizon() time.Duration {
	return time.Duration(c.UrgencyHorizonMinutes) * time.Minute
}
