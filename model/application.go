package model

import "time"

// Application groups environments under a portfolio. Applications are
// soft-deleted; a non-nil DeletedAt hides the row from all queries.
type Application struct {
	ID           string             `json:"id"`
	PortfolioID  string             `json:"portfolio_id"`
	Name         string             `json:"name" audit:"name"`
	Description  string             `json:"description" audit:"description"`
	Environments []*Environment     `json:"environments,omitempty"`
	Roles        []*ApplicationRole `json:"roles,omitempty"`
	DeletedAt    *time.Time         `json:"deleted_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func (a *Application) IsDeleted() bool { return a.DeletedAt != nil }

func (a *Application) AuditResourceType() string  { return "application" }
func (a *Application) AuditResourceID() string    { return a.ID }
func (a *Application) AuditPortfolioID() string   { return a.PortfolioID }
func (a *Application) AuditApplicationID() string { return a.ID }
func (a *Application) AuditDisplayName() string   { return a.Name }
func (a *Application) AuditEventDetails() map[string]any {
	return nil
}

// ApplicationRole is the membership edge between a User and an Application.
// It is resolved only after the portfolio cascade fails to grant access.
type ApplicationRole struct {
	ID             string              `json:"id"`
	ApplicationID  string              `json:"application_id"`
	PortfolioID    string              `json:"portfolio_id"`
	UserID         string              `json:"user_id,omitempty"`
	Status         RoleStatus          `json:"status" audit:"status"`
	PermissionSets []PermissionSetName `json:"permission_sets"`

	UserName         string      `json:"user_name,omitempty"`
	LatestInvitation *Invitation `json:"latest_invitation,omitempty"`

	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (r *ApplicationRole) IsActive() bool  { return r.Status == RoleStatusActive }
func (r *ApplicationRole) IsDeleted() bool { return r.DeletedAt != nil }

func (r *ApplicationRole) HasPermissionSet(name PermissionSetName) bool {
	for _, ps := range r.PermissionSets {
		if ps == name {
			return true
		}
	}
	return false
}

// DisplayStatus mirrors PortfolioRole.DisplayStatus for application members.
func (r *ApplicationRole) DisplayStatus() string {
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

func (r *ApplicationRole) AuditResourceType() string  { return "application_role" }
func (r *ApplicationRole) AuditResourceID() string    { return r.ID }
func (r *ApplicationRole) AuditPortfolioID() string   { return r.PortfolioID }
func (r *ApplicationRole) AuditApplicationID() string { return r.ApplicationID }
func (r *ApplicationRole) AuditDisplayName() string   { return r.UserName }
func (r *ApplicationRole) AuditEventDetails() map[string]any {
	return map[string]any{
		"updated_user_name": r.UserName,
		"updated_user_id":   r.UserID,
	}
}
