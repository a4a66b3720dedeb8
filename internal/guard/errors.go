package guard

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when no principal is attached to the
// request context.
var ErrUnauthenticated = errors.New("guard: unauthenticated")

// ErrForbidden is the sentinel every denial unwraps to.
var ErrForbidden = errors.New("guard: forbidden")

// ForbiddenError carries the resource a principal was denied access to.
type ForbiddenError struct {
	Resource string
	Reason   string
}

// Error implements error.
func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("guard: forbidden: %s", e.Resource)
	}
	return fmt.Sprintf("guard: forbidden: %s: %s", e.Resource, e.Reason)
}

// Unwrap lets callers match with errors.Is(err, ErrForbidden).
func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

func forbidden(resource, reason string) error {
	return &ForbiddenError{Resource: resource, Reason: reason}
}
