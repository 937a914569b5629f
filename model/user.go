package model

import "time"

// User is an authenticated principal, created on first successful login and
// never hard-deleted so that audit events keep a valid actor reference.
//
// PermissionSets holds the user's global (platform-wide) grants; portfolio
// and application access flows through role edges instead.
type User struct {
	ID             string              `json:"id"`
	DodID          string              `json:"dod_id"`
	FirstName      string              `json:"first_name" audit:"first_name"`
	LastName       string              `json:"last_name" audit:"last_name"`
	Email          string              `json:"email" audit:"email"`
	PhoneNumber    string              `json:"phone_number" audit:"phone_number"`
	PermissionSets []PermissionSetName `json:"permission_sets"`
	// Bookkeeping only; changes here never produce audit events.
	LastLoginAt time.Time `json:"last_login_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) AuditResourceType() string { return "user" }
func (u *User) AuditResourceID() string   { return u.ID }
func (u *User) AuditPortfolioID() string  { return "" }
func (u *User) AuditApplicationID() string {
	return ""
}
func (u *User) AuditDisplayName() string { return u.FullName() }
func (u *User) AuditEventDetails() map[string]any {
	return nil
}
