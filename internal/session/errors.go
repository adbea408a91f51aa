package session

import "errors"

var (
	// ErrBusy indicates a turn is already in flight for the session.
	// Callers should surface this as a retryable conflict, not queue.
	ErrBusy = errors.New("session busy")

	// ErrNotFound indicates the session does not exist.
	ErrNotFound = errors.New("session not found")
)
