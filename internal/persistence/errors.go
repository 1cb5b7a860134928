package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrAlreadyExists is returned when a unique constraint would be violated.
	ErrAlreadyExists = errors.New("persistence: already exists")
	// ErrCorrupt is returned when a persisted payload cannot be decoded.
	ErrCorrupt = errors.New("persistence: corrupt payload")
)
