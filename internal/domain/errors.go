package domain

import "fmt"

// ValidationError rejects bad input before any optimistic state change
// or remote call happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a failed remote store call. Operations defined
// as optimistic roll back their local change when they see one.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ClassificationError is non-fatal: the engine absorbs it into the
// deterministic domain fallback and never propagates it to callers.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// FeedError is a transport-level feed failure. Reconnect policy belongs
// to the feed client; the engine only processes events it receives.
type FeedError struct {
	Err error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed error: %v", e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }
