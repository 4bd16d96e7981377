// Package events defines the scheduling related events emitted on the event bus.
//
// Available event types:
//   - WeightsUpdated: a weight table entry changed
//   - OBRejected: an OB was rejected for a slot with a reason
package events
