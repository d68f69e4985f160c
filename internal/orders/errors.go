package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("orders: draft not found")
	ErrValidation     = errors.New("orders: validation failed")
	ErrEmptyOrder     = errors.New("orders: order has no items")
	ErrSubmitInFlight = errors.New("orders: submission already in progress")
	ErrLineIndex      = errors.New("orders: line index out of range")
	ErrNotSupported   = errors.New("orders: operation not supported for this order kind")
	ErrLineBlocked    = errors.New("orders: line has unresolved advisories")
	ErrInvalidState   = errors.New("orders: invalid state")
	ErrStaleDraft     = errors.New("orders: draft changed since it was loaded")
	ErrCollaborator   = errors.New("orders: collaborator failure")
)

// CollaboratorError is a failed call to a remote collaborator. Reason is the
// server's message, shown to the user unchanged.
type CollaboratorError struct {
	Op     string
	Reason string
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *CollaboratorError) Unwrap() error { return ErrCollaborator }
