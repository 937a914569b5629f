// api/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// Infrastructure-level sentinels. Domain failures use the typed errors below
// so callers can recover the resource name or acting user.
var (
	ErrDatabaseOperation = errors.New("database operation failed")
	ErrInternalServer    = errors.New("internal server error")
	ErrUnauthenticated   = errors.New("no authenticated user")
	ErrInvalidResource   = errors.New("invalid resource argument")
)

// NotFoundError indicates the named resource does not exist, or is excluded
// by a required filter (soft-deleted, disabled).
type NotFoundError struct {
	Resource string
}

func NotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s could be found", e.Resource)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// UnauthorizedError indicates the acting user lacks the checked permission.
// Action is a human-readable description of what the user attempted, kept for
// the security log.
type UnauthorizedError struct {
	UserID string
	Action string
}

func Unauthorized(userID, action string) *UnauthorizedError {
	return &UnauthorizedError{UserID: userID, Action: action}
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("user %s is not authorized to %s", e.UserID, e.Action)
}

func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}

// AlreadyExistsError indicates a uniqueness invariant was violated, typically
// surfaced from a database unique-constraint error.
type AlreadyExistsError struct {
	Resource string
}

func AlreadyExists(resource string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource}
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists", e.Resource)
}

func IsAlreadyExists(err error) bool {
	var ae *AlreadyExistsError
	return errors.As(err, &ae)
}

// DisabledError indicates an update was attempted against a resource or role
// that is in a terminal disabled state.
type DisabledError struct {
	Resource string
}

func Disabled(resource string) *DisabledError {
	return &DisabledError{Resource: resource}
}

func (e *DisabledError) Error() string {
	return fmt.Sprintf("%s is disabled", e.Resource)
}

func IsDisabled(err error) bool {
	var de *DisabledError
	return errors.As(err, &de)
}
