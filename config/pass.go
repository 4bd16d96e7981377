package config

import (
	"fmt"
	"time"
)

// PassConfig shapes the nightly scheduling passes: when the night starts,
// how it is carved into slots and how often the pass loop re-plans.
type PassConfig struct {
	// NightStart is the local wall-clock time observing begins, "HH:MM".
	NightStart string `json:"night_start"`
	// NightHours is the length of the observing night.
	NightHours float64 `json:"night_hours"`
	// SlotMinutes is the length of one schedulable slot.
	SlotMinutes int `json:"slot_minutes"`
	// Filters lists the filters installed for the night. Empty means any
	// filter is available.
	Filters []string `json:"filters"`
	// IntervalMinutes is the cadence of re-planning passes. Zero runs a
	// single pass and then waits for shutdown.
	IntervalMinutes int `json:"interval_minutes"`
}

// SetDefaults applies sane defaults.
func (c *PassConfig) SetDefaults() {
	if c.NightStart == "" {
		c.NightStart = "19:00"
	}
	if c.NightHours == 0 {
		c.NightHours = 10
	}
	if c.SlotMinutes == 0 {
		c.SlotMinutes = 30
	}
}

// Validate checks mandatory fields.
func (c PassConfig) Validate() error {
	if _, err := time.Parse("15:04", c.NightStart); err != nil {
		return fmt.Errorf("night_start %q: want HH:MM", c.NightStart)
	}
	if c.NightHours <= 0 || c.NightHours > 24 {
		return fmt.Errorf("night_hours %v out of range (0, 24]", c.NightHours)
	}
	if c.SlotMinutes <= 0 {
		return fmt.Errorf("slot_minutes must be positive")
	}
	if float64(c.SlotMinutes) > c.NightHours*60 {
		return fmt.Errorf("slot_minutes %d longer than the night", c.SlotMinutes)
	}
	if c.IntervalMinutes < 0 {
		return fmt.Errorf("interval_minutes must not be negative")
	}
	return nil
}

// NightWindow anchors the night on the given local date and returns its
// start together with its length.
func (c PassConfig) NightWindow(date time.Time) (time.Time, time.Duration) {
	hm, _ := time.Parse("15:04", c.NightStart)
	start := time.Date(date.Year(), date.Month(), date.Day(),
		hm.Hour(), hm.Minute(), 0, 0, date.Location())
	return start, time.Duration(c.NightHours * float64(time.Hour))
}

// SlotLen returns the slot length as a duration.
func (c PassConfig) SlotLen() time.Duration {
	return time.Duration(c.SlotMinutes) * time.Minute
}

// Interval returns the re-planning cadence, zero for one-shot mode.
func (c PassConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}
