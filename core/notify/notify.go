package notify

import "time"

// Notifier announces committed schedule changes to the night-operations
// tooling (sequencer console, operator dashboards) and tracks
// acknowledgments coming back from it.
type Notifier interface {
	// ScheduleUpdated announces that the schedule for the given night
	// changed and returns the command identifier used to track the
	// acknowledgment.
	ScheduleUpdated(night string, obIDs []string) (commandID string, err error)

	// WaitForAck waits for an acknowledgment for the provided command
	// identifier or until the timeout expires.
	WaitForAck(commandID string, timeout time.Duration) (bool, error)
}

// NopNotifier discards announcements. Used when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) ScheduleUpdated(string, []string) (string, error) { return "", nil }

func (NopNotifier) WaitForAck(string, time.Duration) (bool, error) { return true, nil }
