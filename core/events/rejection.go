package events

import "time"

// OBRejected is published for each OB a constraint or accounting rule kept
// out of a slot. Constraint names the rule, Reason carries its diagnostic.
type OBRejected struct {
	OB         string
	Slot       time.Time
	Constraint string
	Reason     string
}
