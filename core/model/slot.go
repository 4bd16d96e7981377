package model

import (
	"fmt"
	"sort"
	"time"
)

// Slot is a bounded span of telescope time that can hold at most one OB.
type Slot struct {
	Start   time.Time
	Stop    time.Time
	Filters []string // filters installed for the night, empty means unrestricted
}

// NewSlot builds a slot and rejects inverted or empty spans.
func NewSlot(start, stop time.Time, filters []string) (Slot, error) {
	if !stop.After(start) {
		return Slot{}, fmt.Errorf("slot stop %v must be after start %v", stop, start)
	}
	return Slot{Start: start, Stop: stop, Filters: filters}, nil
}

// Dur returns the slot length.
func (s Slot) Dur() time.Duration {
	return s.Stop.Sub(s.Start)
}

// Contains reports whether t falls within the slot, start inclusive.
func (s Slot) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.Stop)
}

// HasFilter reports whether the named filter is installed for this slot.
// An empty filter set means the slot carries no restriction.
func (s Slot) HasFilter(name string) bool {
	if len(s.Filters) == 0 {
		return true
	}
	for _, f := range s.Filters {
		if f == name {
			return true
		}
	}
	return false
}

// CarveNight cuts a night into consecutive fixed-length slots starting at
// start. A trailing remainder shorter than slotLen is dropped. The filter
// set is shared by every slot of the night.
func CarveNight(start time.Time, nightLen, slotLen time.Duration, filters []string) []Slot {
	if slotLen <= 0 || nightLen < slotLen {
		return nil
	}
	n := int(nightLen / slotLen)
	slots := make([]Slot, 0, n)
	for i := 0; i < n; i++ {
		b := start.Add(time.Duration(i) * slotLen)
		slots = append(slots, Slot{Start: b, Stop: b.Add(slotLen), Filters: filters})
	}
	return slots
}

// SortSlots orders slots chronologically in place.
func SortSlots(slots []Slot) {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
}

// ValidateSlots checks that a chronologically sorted slot list is well formed:
// every span is positive and no two slots overlap.
func ValidateSlots(slots []Slot) error {
	for i, s := range slots {
		if !s.Stop.After(s.Start) {
			return fmt.Errorf("slot %d: stop %v not after start %v", i, s.Stop, s.Start)
		}
		if i > 0 && slots[i-1].Stop.After(s.Start) {
			return fmt.Errorf("slot %d starting %v overlaps previous slot ending %v", i, s.Start, slots[i-1].Stop)
		}
	}
	return nil
}
