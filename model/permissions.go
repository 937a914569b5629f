package model

// Permission is a primitive capability string checked by the authorization
// resolver. The set of permissions is closed; new ones are added here, never
// at runtime.
type Permission string

const (
	// CCPO / global permissions
	PermViewAuditLog   Permission = "view_audit_log"
	PermViewCCPOUser   Permission = "view_ccpo_user"
	PermCreateCCPOUser Permission = "create_ccpo_user"
	PermEditCCPOUser   Permission = "edit_ccpo_user"
	PermDeleteCCPOUser Permission = "delete_ccpo_user"

	// base portfolio permission
	PermViewPortfolio Permission = "view_portfolio"

	// application management
	PermViewApplication            Permission = "view_application"
	PermEditApplication            Permission = "edit_application"
	PermCreateApplication          Permission = "create_application"
	PermDeleteApplication          Permission = "delete_application"
	PermViewApplicationMember      Permission = "view_application_member"
	PermEditApplicationMember      Permission = "edit_application_member"
	PermCreateApplicationMember    Permission = "create_application_member"
	PermDeleteApplicationMember    Permission = "delete_application_member"
	PermViewEnvironment            Permission = "view_environment"
	PermEditEnvironment            Permission = "edit_environment"
	PermCreateEnvironment          Permission = "create_environment"
	PermDeleteEnvironment          Permission = "delete_environment"
	PermAssignEnvironmentMember    Permission = "assign_environment_member"
	PermViewApplicationActivityLog Permission = "view_application_activity_log"

	// funding
	PermViewPortfolioFunding  Permission = "view_portfolio_funding"
	PermCreateTaskOrder       Permission = "create_task_order"
	PermViewTaskOrderDetails  Permission = "view_task_order_details"
	PermEditTaskOrderDetails  Permission = "edit_task_order_details"

	// reporting
	PermViewPortfolioReports Permission = "view_portfolio_reports"

	// portfolio admin
	PermViewPortfolioAdmin       Permission = "view_portfolio_admin"
	PermViewPortfolioName        Permission = "view_portfolio_name"
	PermEditPortfolioName        Permission = "edit_portfolio_name"
	PermViewPortfolioUsers       Permission = "view_portfolio_users"
	PermEditPortfolioUsers       Permission = "edit_portfolio_users"
	PermCreatePortfolioUsers     Permission = "create_portfolio_users"
	PermViewPortfolioActivityLog Permission = "view_portfolio_activity_log"
	PermViewPortfolioPOC         Permission = "view_portfolio_poc"

	// portfolio point of contact
	PermEditPortfolioPOC   Permission = "edit_portfolio_poc"
	PermArchivePortfolio   Permission = "archive_portfolio"
)
