package dashboard

import "errors"

var (
	// ErrConflict indicates the index changed between fetch and write and
	// the operation was abandoned without writing.
	ErrConflict = errors.New("index modified concurrently, nothing written")
	// ErrWriteFailed indicates one or more blob writes failed.
	ErrWriteFailed = errors.New("write sequence failed")
	// ErrSessionNotFound indicates the session revision object is missing.
	ErrSessionNotFound = errors.New("session not found")
)
