package model

import "time"

// Assignment pairs a slot with the OB chosen for it. A nil OB marks an
// unassigned slot and Reason records why it stayed empty.
type Assignment struct {
	Slot   Slot
	OB     *OB
	Reason string
}

// Schedule is the ordered outcome of one scheduling pass over a night.
type Schedule struct {
	Night  string // observing date, e.g. "2026-03-14"
	Slots  []Assignment
	Report string // operator summary, cached at build time
	// WeightsVersion is the weight table version the pass was scored
	// against.
	WeightsVersion uint64
}

// Assigned counts slots that received an OB.
func (s *Schedule) Assigned() int {
	n := 0
	for _, a := range s.Slots {
		if a.OB != nil {
			n++
		}
	}
	return n
}

// Unassigned counts slots left empty.
func (s *Schedule) Unassigned() int {
	return len(s.Slots) - s.Assigned()
}

// WasteMinutes sums the length of unassigned slots in minutes.
func (s *Schedule) WasteMinutes() float64 {
	var waste time.Duration
	for _, a := range s.Slots {
		if a.OB == nil {
			waste += a.Slot.Dur()
		}
	}
	return waste.Minutes()
}

// ExportRow is the outward, transport-agnostic view of one assignment.
type ExportRow struct {
	Start   time.Time `json:"start"`
	Stop    time.Time `json:"stop"`
	OB      string    `json:"ob,omitempty"`
	Program string    `json:"program,omitempty"`
	Target  string    `json:"target,omitempty"`
	Filter  string    `json:"filter,omitempty"`
	Reason  string    `json:"reason,omitempty"`
}

// Export flattens the schedule into rows suitable for serialization.
func (s *Schedule) Export() []ExportRow {
	rows := make([]ExportRow, 0, len(s.Slots))
	for _, a := range s.Slots {
		row := ExportRow{Start: a.Slot.Start, Stop: a.Slot.Stop, Reason: a.Reason}
		if a.OB != nil {
			row.OB = a.OB.ID
			row.Program = a.OB.Program
			row.Target = a.OB.Target.Name
			row.Filter = a.OB.Filter
		}
		rows = append(rows, row)
	}
	return rows
}
