package blog

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("post not found")

// ErrNotExist is returned by a Storage when nothing has been persisted yet.
var ErrNotExist = errors.New("storage is empty")

// ErrCorrupt marks persisted data that does not decode into a valid collection.
var ErrCorrupt = errors.New("storage is corrupt")

// ErrPersist wraps any failure to write the collection back.
var ErrPersist = errors.New("failed to save posts")

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}
