package model

import "time"

// CSPRole is a cloud service provider role a user can hold inside a single
// environment. These map to provider-side IAM bindings, so the list is closed.
type CSPRole string

const (
	CSPRoleAdmin           CSPRole = "admin"
	CSPRoleBillingReadOnly CSPRole = "billing_read_only"
	CSPRoleContributor     CSPRole = "contributor"
	CSPRoleNetworkAdmin    CSPRole = "network_admin"
)

// ValidCSPRole reports whether the value names a known provider role.
func ValidCSPRole(r CSPRole) bool {
	switch r {
	case CSPRoleAdmin, CSPRoleBillingReadOnly, CSPRoleContributor, CSPRoleNetworkAdmin:
		return true
	}
	return false
}

// EnvRoleSyncStatus tracks propagation of an environment grant to the cloud
// provider.
type EnvRoleSyncStatus string

const (
	EnvRoleSyncPending   EnvRoleSyncStatus = "pending"
	EnvRoleSyncCompleted EnvRoleSyncStatus = "completed"
	EnvRoleSyncDisabled  EnvRoleSyncStatus = "disabled"
)

// Environment is a deployable cloud workspace (e.g. dev, staging, prod)
// belonging to an application.
type Environment struct {
	ID            string     `json:"id"`
	ApplicationID string     `json:"application_id"`
	PortfolioID   string     `json:"portfolio_id"`
	Name          string     `json:"name" audit:"name"`
	CloudID       string     `json:"cloud_id,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (e *Environment) IsDeleted() bool { return e.DeletedAt != nil }

func (e *Environment) AuditResourceType() string  { return "environment" }
func (e *Environment) AuditResourceID() string    { return e.ID }
func (e *Environment) AuditPortfolioID() string   { return e.PortfolioID }
func (e *Environment) AuditApplicationID() string { return e.ApplicationID }
func (e *Environment) AuditDisplayName() string   { return e.Name }
func (e *Environment) AuditEventDetails() map[string]any {
	return nil
}

// EnvironmentRole grants one CSP role to one application member in one
// environment. The edge hangs off the ApplicationRole, not the User, so that
// disabling the member disables every environment grant with it.
type EnvironmentRole struct {
	ID                string            `json:"id"`
	EnvironmentID     string            `json:"environment_id"`
	ApplicationRoleID string            `json:"application_role_id"`
	Role              CSPRole           `json:"role" audit:"role"`
	SyncStatus        EnvRoleSyncStatus `json:"sync_status"`

	// Decoration for audit display, populated by joins.
	EnvironmentName string `json:"environment_name,omitempty"`
	PortfolioID     string `json:"portfolio_id,omitempty"`
	ApplicationID   string `json:"application_id,omitempty"`
	UserName        string `json:"user_name,omitempty"`

	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (r *EnvironmentRole) IsDeleted() bool { return r.DeletedAt != nil }

func (r *EnvironmentRole) AuditResourceType() string  { return "environment_role" }
func (r *EnvironmentRole) AuditResourceID() string    { return r.ID }
func (r *EnvironmentRole) AuditPortfolioID() string   { return r.PortfolioID }
func (r *EnvironmentRole) AuditApplicationID() string { return r.ApplicationID }
func (r *EnvironmentRole) AuditDisplayName() string   { return r.UserName }
func (r *EnvironmentRole) AuditEventDetails() map[string]any {
	return map[string]any{
		"environment_name": r.EnvironmentName,
		"role":             string(r.Role),
	}
}
