package model

import (
	"fmt"
	"time"
)

// Program represents an approved observing proposal that owns queue OBs.
type Program struct {
	ID        string
	Title     string
	Category  string        // proposal category, e.g. "open_use", "intensive"
	Rank      float64       // TAC scientific rank, used for report ordering
	TotalTime time.Duration // total time allocated to the program
	Skip      bool          // true if the program is excluded from scheduling
}

// Validate checks that the program record is sound.
// In particular the identifier must be set and the allocation non-negative.
func (p Program) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("program id is required")
	}
	if p.TotalTime < 0 {
		return fmt.Errorf("program %s: allocated time must not be negative", p.ID)
	}
	return nil
}
