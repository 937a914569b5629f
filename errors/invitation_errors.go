// api/errors/invitation_errors.go
package errors

import (
	"errors"
	"fmt"
)

// WrongUserError indicates the user accepting an invitation does not match
// the identity the invitation was issued for.
type WrongUserError struct {
	UserID       string
	InvitationID string
}

func WrongUser(userID, invitationID string) *WrongUserError {
	return &WrongUserError{UserID: userID, InvitationID: invitationID}
}

func (e *WrongUserError) Error() string {
	return fmt.Sprintf("user %s does not match the identity expected by invitation %s", e.UserID, e.InvitationID)
}

func IsWrongUser(err error) bool {
	var we *WrongUserError
	return errors.As(err, &we)
}

// ExpiredError indicates the invitation's expiration time has passed.
type ExpiredError struct {
	InvitationID string
}

func Expired(invitationID string) *ExpiredError {
	return &ExpiredError{InvitationID: invitationID}
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("invitation %s has expired", e.InvitationID)
}

func IsExpired(err error) bool {
	var ee *ExpiredError
	return errors.As(err, &ee)
}

// InvitationStatusError indicates an operation is not valid for the
// invitation's current status, e.g. accepting an invitation twice.
type InvitationStatusError struct {
	InvitationID string
	Status       string
}

func InvalidInvitationStatus(invitationID, status string) *InvitationStatusError {
	return &InvitationStatusError{InvitationID: invitationID, Status: status}
}

func (e *InvitationStatusError) Error() string {
	return fmt.Sprintf("invitation %s has a status of %s", e.InvitationID, e.Status)
}

func IsInvitationStatus(err error) bool {
	var ie *InvitationStatusError
	return errors.As(err, &ie)
}
