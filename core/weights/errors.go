package weights

import "fmt"

// ValidationError reports a rejected weight edit. The stored value for Key
// is unchanged when this error is returned.
type ValidationError struct {
	Key string
	Raw string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("weight %s: invalid value %q: %v", e.Key, e.Raw, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
