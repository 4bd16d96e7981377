package qstore

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict marks a commit that lost an optimistic-concurrency race.
	ErrConflict = errors.New("commit conflict")
	// ErrNotFound marks a lookup of an object the store does not hold.
	ErrNotFound = errors.New("object not found")
	// ErrUnreachable marks a transport-level failure talking to the store.
	// It is fatal to the calling worker; there is no local fallback mode.
	ErrUnreachable = errors.New("queue store unreachable")
)

// ConflictError reports which object lost the revision check, so the
// caller can refresh its read and retry.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("commit conflict: %s", e.Detail)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ConnError wraps a network failure with the store address and the
// operation that hit it.
type ConnError struct {
	Addr string
	Op   string
	Err  error
}

func (e *ConnError) Error() string {
	return fmt.Sprintf("queue store %s: %s: %v", e.Addr, e.Op, e.Err)
}

func (e *ConnError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUnreachable) match any connection error.
func (e *ConnError) Is(target error) bool { return target == ErrUnreachable }
