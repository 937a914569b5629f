// api/audit/model.go
package audit

import (
	"time"
)

// Action is the verb recorded on an event.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Auditable is implemented by every domain entity whose writes are recorded.
// The accessors denormalize enough context onto the event that it stays
// readable after the entity itself is gone.
type Auditable interface {
	AuditResourceType() string
	AuditResourceID() string
	AuditPortfolioID() string
	AuditApplicationID() string
	AuditDisplayName() string
	AuditEventDetails() map[string]any
}

// Actor identifies who performed the change. A zero Actor records a system
// action (startup seeding, background jobs).
type Actor struct {
	UserID   string
	UserName string
}

// Event is one recorded write. ChangedState maps a field name to a two-element
// [old, new] pair; it is nil for creates and deletes.
type Event struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id,omitempty"`
	UserName      string           `json:"user_name,omitempty"`
	PortfolioID   string           `json:"portfolio_id,omitempty"`
	ApplicationID string           `json:"application_id,omitempty"`
	ResourceType  string           `json:"resource_type"`
	ResourceID    string           `json:"resource_id"`
	DisplayName   string           `json:"display_name,omitempty"`
	Action        Action           `json:"action"`
	ChangedState  map[string][]any `json:"changed_state,omitempty"`
	EventDetails  map[string]any   `json:"event_details,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}
