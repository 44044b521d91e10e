package store

import (
	"errors"
	"fmt"
)

// ErrVanished marks a write that targeted a document the store no longer
// has. This happens when a row is deleted while someone is still editing its
// stale entry; callers surface it and move on rather than retrying.
var ErrVanished = errors.New("document no longer exists")

// WriteError is a failed create/update/delete. Writes are never retried
// automatically; the user resubmits.
type WriteError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *WriteError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Vanished reports whether the failure was a write against a missing
// document.
func (e *WriteError) Vanished() bool {
	return errors.Is(e.Err, ErrVanished)
}

// StatusError is a non-2xx HTTP response that was not a 404.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}
