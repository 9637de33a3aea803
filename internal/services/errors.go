package services

import (
	"errors"
	"fmt"
)

// ErrForbidden is matched by every AccessError
var ErrForbidden = errors.New("forbidden")

// AccessError is returned when the caller does not own the resource it acts on.
// Message is safe to show to the caller.
type AccessError struct {
	Message string
}

func (e *AccessError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrForbidden) hold
func (e *AccessError) Is(target error) bool {
	return target == ErrForbidden
}

// ForbiddenError creates an access error
func ForbiddenError(format string, args ...interface{}) error {
	return &AccessError{Message: fmt.Sprintf(format, args...)}
}

// IsForbidden checks if an error is a "forbidden" error
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}
