package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a request failed field validation.
	ErrValidation = errors.New("validation failed")
	// ErrLocked indicates another request holds the lock for the resource.
	ErrLocked = errors.New("resource locked")
)
