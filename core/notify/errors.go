package notify

import "errors"

// ErrAckTimeout marks an announcement the night-operations tooling never
// acknowledged within the wait window.
var ErrAckTimeout = errors.New("schedule update not acknowledged")
