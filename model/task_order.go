package model

import "time"

// TaskOrder is the funding vehicle attached to a portfolio. Each one names
// three contract officers by user ID; officer checks are identity checks
// against these fields, not permission lookups.
type TaskOrder struct {
	ID          string `json:"id"`
	PortfolioID string `json:"portfolio_id"`
	Number      string `json:"number" audit:"number"`

	// Contracting Officer, Contracting Officer Representative and
	// Security Officer.
	ContractingOfficerID    string `json:"contracting_officer_id,omitempty"`
	ContractingOfficerRepID string `json:"contracting_officer_representative_id,omitempty"`
	SecurityOfficerID       string `json:"security_officer_id,omitempty"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	SignedAt  *time.Time `json:"signed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *TaskOrder) IsSigned() bool { return t.SignedAt != nil }

// IsContractingOfficer reports whether the user is this order's KO.
func (t *TaskOrder) IsContractingOfficer(userID string) bool {
	return userID != "" && t.ContractingOfficerID == userID
}

// IsContractingOfficerRep reports whether the user is this order's COR.
func (t *TaskOrder) IsContractingOfficerRep(userID string) bool {
	return userID != "" && t.ContractingOfficerRepID == userID
}

// IsSecurityOfficer reports whether the user is this order's SO.
func (t *TaskOrder) IsSecurityOfficer(userID string) bool {
	return userID != "" && t.SecurityOfficerID == userID
}

// IsOfficer reports whether the user holds any officer position on the order.
func (t *TaskOrder) IsOfficer(userID string) bool {
	return t.IsContractingOfficer(userID) ||
		t.IsContractingOfficerRep(userID) ||
		t.IsSecurityOfficer(userID)
}

func (t *TaskOrder) AuditResourceType() string  { return "task_order" }
func (t *TaskOrder) AuditResourceID() string    { return t.ID }
func (t *TaskOrder) AuditPortfolioID() string   { return t.PortfolioID }
func (t *TaskOrder) AuditApplicationID() string { return "" }
func (t *TaskOrder) AuditDisplayName() string   { return t.Number }
func (t *TaskOrder) AuditEventDetails() map[string]any {
	return nil
}
