package model

// PermissionSetName identifies a named permission bundle in the catalog.
type PermissionSetName string

const (
	// global (ATAT-wide) sets
	PermSetCCPO    PermissionSetName = "ccpo"
	PermSetDefault PermissionSetName = "default"

	// portfolio-level view sets
	PermSetViewPortfolio                      PermissionSetName = "view_portfolio"
	PermSetViewPortfolioApplicationManagement PermissionSetName = "view_portfolio_application_management"
	PermSetViewPortfolioFunding               PermissionSetName = "view_portfolio_funding"
	PermSetViewPortfolioReports               PermissionSetName = "view_portfolio_reports"
	PermSetViewPortfolioAdmin                 PermissionSetName = "view_portfolio_admin"

	// portfolio-level edit sets
	PermSetEditPortfolioApplicationManagement PermissionSetName = "edit_portfolio_application_management"
	PermSetEditPortfolioFunding               PermissionSetName = "edit_portfolio_funding"
	PermSetEditPortfolioReports               PermissionSetName = "edit_portfolio_reports"
	PermSetEditPortfolioAdmin                 PermissionSetName = "edit_portfolio_admin"

	// the distinguished owner set
	PermSetPortfolioPOC PermissionSetName = "portfolio_poc"

	// application-level sets
	PermSetViewApplication PermissionSetName = "view_application"
	PermSetEditApplication PermissionSetName = "edit_application"
)

// PermissionSet is a named, reusable bundle of permissions. Sets are seeded
// into the catalog at startup and are immutable afterwards.
type PermissionSet struct {
	Name        PermissionSetName `json:"name"`
	DisplayName string            `json:"display_name"`
	Description string            `json:"description"`
	Permissions []Permission      `json:"permissions"`
}

// Contains reports whether the set grants the given permission.
func (ps PermissionSet) Contains(perm Permission) bool {
	for _, p := range ps.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
