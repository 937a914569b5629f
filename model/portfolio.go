package model

import "time"

// RoleStatus is the lifecycle state of a membership edge.
type RoleStatus string

const (
	RoleStatusPending  RoleStatus = "pending"
	RoleStatusActive   RoleStatus = "active"
	RoleStatusDisabled RoleStatus = "disabled"
)

// MemberStatus values shown to users; derived from the role status and the
// latest invitation.
const (
	MemberStatusActive   = "Active"
	MemberStatusRevoked  = "Invite revoked"
	MemberStatusExpired  = "Invite expired"
	MemberStatusError    = "Error on invite"
	MemberStatusPending  = "Pending"
	MemberStatusUnknown  = "Unknown errors"
	MemberStatusDisabled = "Disabled"
)

// Portfolio is the top-level resource container. The point of contact (PPoC)
// is the one active member whose role holds the portfolio_poc permission set.
type Portfolio struct {
	ID           string           `json:"id"`
	Name         string           `json:"name" audit:"name"`
	Description  string           `json:"description" audit:"description"`
	Applications []*Application   `json:"applications,omitempty"`
	Roles        []*PortfolioRole `json:"roles,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (p *Portfolio) AuditResourceType() string  { return "portfolio" }
func (p *Portfolio) AuditResourceID() string    { return p.ID }
func (p *Portfolio) AuditPortfolioID() string   { return p.ID }
func (p *Portfolio) AuditApplicationID() string { return "" }
func (p *Portfolio) AuditDisplayName() string   { return p.Name }
func (p *Portfolio) AuditEventDetails() map[string]any {
	return nil
}

// PortfolioRole is the membership edge between a User and a Portfolio.
// At most one non-deleted edge exists per (user, portfolio) pair.
type PortfolioRole struct {
	ID          string `json:"id"`
	PortfolioID string `json:"portfolio_id"`
	// UserID is empty while the edge belongs to a not-yet-registered invitee;
	// accepting the invitation binds it.
	UserID         string              `json:"user_id,omitempty"`
	Status         RoleStatus          `json:"status" audit:"status"`
	PermissionSets []PermissionSetName `json:"permission_sets"`

	// Read-side decoration, populated by joins; never persisted on this row.
	UserName         string      `json:"user_name,omitempty"`
	LatestInvitation *Invitation `json:"latest_invitation,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *PortfolioRole) IsActive() bool { return r.Status == RoleStatusActive }

// HasPermissionSet reports whether the edge carries the named set.
func (r *PortfolioRole) HasPermissionSet(name PermissionSetName) bool {
	for _, ps := range r.PermissionSets {
		if ps == name {
			return true
		}
	}
	return false
}

// DisplayStatus derives the member-facing status from the role state and the
// latest invitation.
func (r *PortfolioRole) DisplayStatus() string {
	switch {
	case r.Status == RoleStatusActive:
		return MemberStatusActive
	case r.Status == RoleStatusDisabled:
		return MemberStatusDisabled
	case r.LatestInvitation != nil:
		inv := r.LatestInvitation
		switch {
		case inv.IsRevoked():
			return MemberStatusRevoked
		case inv.IsRejectedWrongUser():
			return MemberStatusError
		case inv.IsRejectedExpired() || inv.IsExpired():
			return MemberStatusExpired
		default:
			return MemberStatusPending
		}
	default:
		return MemberStatusUnknown
	}
}

func (r *PortfolioRole) AuditResourceType() string  { return "portfolio_role" }
func (r *PortfolioRole) AuditResourceID() string    { return r.ID }
func (r *PortfolioRole) AuditPortfolioID() string   { return r.PortfolioID }
func (r *PortfolioRole) AuditApplicationID() string { return "" }
func (r *PortfolioRole) AuditDisplayName() string   { return r.UserName }
func (r *PortfolioRole) AuditEventDetails() map[string]any {
	return map[string]any{
		"updated_user_name": r.UserName,
		"updated_user_id":   r.UserID,
	}
}
