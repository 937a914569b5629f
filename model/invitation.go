package model

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// InvitationStatus is the lifecycle state of a membership invitation.
type InvitationStatus string

const (
	InvitationStatusPending           InvitationStatus = "pending"
	InvitationStatusAccepted          InvitationStatus = "accepted"
	InvitationStatusRevoked           InvitationStatus = "revoked"
	InvitationStatusRejectedWrongUser InvitationStatus = "rejected_wrong_user"
	InvitationStatusRejectedExpired   InvitationStatus = "rejected_expired"
)

// InvitationResourceType discriminates which kind of role edge an invitation
// binds to.
type InvitationResourceType string

const (
	InvitationResourcePortfolio   InvitationResourceType = "portfolio"
	InvitationResourceApplication InvitationResourceType = "application"
)

// Invitation is a single-use, time-limited offer of membership. The token is
// the only credential needed to look one up; possession plus a matching DoD ID
// is what accepting verifies.
type Invitation struct {
	ID           string                 `json:"id"`
	ResourceType InvitationResourceType `json:"resource_type"`
	// RoleID points at the pending PortfolioRole or ApplicationRole.
	RoleID      string `json:"role_id"`
	PortfolioID string `json:"portfolio_id"`
	// ApplicationID is set only for application invitations.
	ApplicationID string `json:"application_id,omitempty"`

	Token  string           `json:"-"`
	Status InvitationStatus `json:"status" audit:"status"`

	// Identity the inviter supplied; the accepting user must present the
	// same DoD ID.
	UserID    string `json:"user_id,omitempty"`
	DodID     string `json:"dod_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`

	InviterID string    `json:"inviter_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewInvitationToken returns a fresh URL-safe random token.
func NewInvitationToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func (i *Invitation) IsPending() bool  { return i.Status == InvitationStatusPending }
func (i *Invitation) IsAccepted() bool { return i.Status == InvitationStatusAccepted }
func (i *Invitation) IsRevoked() bool  { return i.Status == InvitationStatusRevoked }
func (i *Invitation) IsRejectedWrongUser() bool {
	return i.Status == InvitationStatusRejectedWrongUser
}
func (i *Invitation) IsRejectedExpired() bool {
	return i.Status == InvitationStatusRejectedExpired
}

// IsExpiredAt reports whether the expiry deadline has passed at the given
// instant. Callers inject the clock so tests stay deterministic.
func (i *Invitation) IsExpiredAt(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// IsExpired uses the wall clock.
func (i *Invitation) IsExpired() bool {
	return i.IsExpiredAt(time.Now().UTC())
}

// IsInactive reports whether the invitation can no longer be accepted.
func (i *Invitation) IsInactive() bool {
	return i.IsExpired() || !i.IsPending()
}

// CanResend reports whether a fresh invitation may replace this one. Pending,
// expired and revoked invitations may be resent; accepted ones may not.
func (i *Invitation) CanResend() bool {
	return i.IsPending() || i.IsExpired() || i.IsRevoked()
}

// UserName is the invitee's name as supplied by the inviter.
func (i *Invitation) UserName() string {
	if i.FirstName == "" {
		return i.LastName
	}
	if i.LastName == "" {
		return i.FirstName
	}
	return i.FirstName + " " + i.LastName
}

func (i *Invitation) AuditResourceType() string {
	if i.ResourceType == InvitationResourceApplication {
		return "application_invitation"
	}
	return "portfolio_invitation"
}
func (i *Invitation) AuditResourceID() string    { return i.ID }
func (i *Invitation) AuditPortfolioID() string   { return i.PortfolioID }
func (i *Invitation) AuditApplicationID() string { return i.ApplicationID }
func (i *Invitation) AuditDisplayName() string   { return i.UserName() }
func (i *Invitation) AuditEventDetails() map[string]any {
	return map[string]any{
		"email":     i.Email,
		"dod_id":    i.DodID,
		"user_name": i.UserName(),
	}
}
