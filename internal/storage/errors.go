package storage

import "errors"

// ErrNotFound is returned when a requested object doesn't exist.
var ErrNotFound = errors.New("object not found")
