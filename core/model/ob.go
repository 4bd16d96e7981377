package model

import (
	"fmt"
	"time"
)

// OBStatus tracks an observing block through its queue lifecycle.
type OBStatus int

const (
	StatusPending OBStatus = iota
	StatusScheduled
	StatusExecuted
	StatusCancelled
)

// String returns a human-readable representation of the status.
func (s OBStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusScheduled:
		return "scheduled"
	case StatusExecuted:
		return "executed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// CanTransition reports whether a status change is legal. Forward moves are
// always allowed, a scheduled OB may return to pending when its slot is
// released, and cancellation is possible until the OB has been executed.
func (s OBStatus) CanTransition(to OBStatus) bool {
	if s == to {
		return true
	}
	switch {
	case s == StatusExecuted || s == StatusCancelled:
		return false
	case to == StatusCancelled:
		return true
	case s == StatusScheduled && to == StatusPending:
		return true
	default:
		return to > s
	}
}

// Target identifies a sky position with optional proper motion.
type Target struct {
	Name    string
	RA      float64 // right ascension in degrees
	Dec     float64 // declination in degrees
	Equinox float64 // coordinate equinox, e.g. 2000.0
	PMRA    float64 // proper motion in RA, mas/yr
	PMDec   float64 // proper motion in Dec, mas/yr
}

// Validate checks that the coordinates are within range.
func (t Target) Validate() error {
	if t.RA < 0 || t.RA >= 360 {
		return fmt.Errorf("target %s: RA %v out of range [0,360)", t.Name, t.RA)
	}
	if t.Dec < -90 || t.Dec > 90 {
		return fmt.Errorf("target %s: Dec %v out of range [-90,90]", t.Name, t.Dec)
	}
	return nil
}

// OB is an observing block: one self-contained unit of telescope work.
type OB struct {
	ID      string
	Program string // owning program identifier
	Target  Target
	Filter  string
	MinEl   float64 // minimum elevation in degrees
	MaxEl   float64 // maximum elevation in degrees
	Airmass float64 // maximum acceptable airmass, 0 means no limit

	// TotalTime covers acquisition and exposure. It must not change while
	// the OB is scheduled or executed.
	TotalTime time.Duration
	Status    OBStatus
}

// Validate checks that the observing block is internally consistent.
func (ob OB) Validate() error {
	if ob.ID == "" {
		return fmt.Errorf("ob id is required")
	}
	if ob.Program == "" {
		return fmt.Errorf("ob %s: program reference is required", ob.ID)
	}
	if err := ob.Target.Validate(); err != nil {
		return fmt.Errorf("ob %s: %w", ob.ID, err)
	}
	if ob.MinEl < 0 || ob.MaxEl > 90 || ob.MinEl > ob.MaxEl {
		return fmt.Errorf("ob %s: elevation range [%v,%v] is invalid", ob.ID, ob.MinEl, ob.MaxEl)
	}
	if ob.Airmass != 0 && ob.Airmass < 1 {
		return fmt.Errorf("ob %s: airmass limit %v must be >= 1", ob.ID, ob.Airmass)
	}
	if ob.TotalTime <= 0 {
		return fmt.Errorf("ob %s: total time must be positive", ob.ID)
	}
	return nil
}
