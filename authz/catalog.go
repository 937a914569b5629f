// api/authz/catalog.go
package authz

import (
	"github.com/ccpo-cloud/atat/errors"
	"github.com/ccpo-cloud/atat/model"
)

// Catalog is the closed, in-memory table of permission sets. It is built once
// at startup and never mutated afterwards, so lookups need no locking.
type Catalog struct {
	sets map[model.PermissionSetName]model.PermissionSet
}

// defaultPortfolioSets are unioned into every portfolio role assignment so
// that each active member can at minimum see the modules they belong to.
var defaultPortfolioSets = []model.PermissionSetName{
	model.PermSetViewPortfolioApplicationManagement,
	model.PermSetViewPortfolioFunding,
	model.PermSetViewPortfolioReports,
	model.PermSetViewPortfolioAdmin,
	model.PermSetViewPortfolio,
}

// defaultApplicationSets play the same part for application roles.
var defaultApplicationSets = []model.PermissionSetName{
	model.PermSetViewApplication,
}

// NewCatalog builds the catalog from the built-in definitions.
func NewCatalog() *Catalog {
	c := &Catalog{sets: make(map[model.PermissionSetName]model.PermissionSet)}
	for _, ps := range builtinSets {
		c.sets[ps.Name] = ps
	}
	return c
}

// Get returns the named set, or NotFoundError if it is unknown.
func (c *Catalog) Get(name model.PermissionSetName) (model.PermissionSet, error) {
	ps, ok := c.sets[name]
	if !ok {
		return model.PermissionSet{}, errors.NotFound("permission_set")
	}
	return ps, nil
}

// GetMany resolves every name or fails. Unknown names error rather than being
// dropped so that typos surface immediately.
func (c *Catalog) GetMany(names []model.PermissionSetName) ([]model.PermissionSet, error) {
	sets := make([]model.PermissionSet, 0, len(names))
	for _, name := range names {
		ps, err := c.Get(name)
		if err != nil {
			return nil, err
		}
		sets = append(sets, ps)
	}
	return sets, nil
}

// GetAll returns every catalog entry.
func (c *Catalog) GetAll() []model.PermissionSet {
	all := make([]model.PermissionSet, 0, len(c.sets))
	for _, ps := range c.sets {
		all = append(all, ps)
	}
	return all
}

// WithPortfolioDefaults unions the default portfolio sets into the given
// names, validating every name against the catalog.
func (c *Catalog) WithPortfolioDefaults(names []model.PermissionSetName) ([]model.PermissionSetName, error) {
	return c.withDefaults(names, defaultPortfolioSets)
}

// WithApplicationDefaults unions the default application sets into the given
// names.
func (c *Catalog) WithApplicationDefaults(names []model.PermissionSetName) ([]model.PermissionSetName, error) {
	return c.withDefaults(names, defaultApplicationSets)
}

func (c *Catalog) withDefaults(names, defaults []model.PermissionSetName) ([]model.PermissionSetName, error) {
	seen := make(map[model.PermissionSetName]bool, len(names)+len(defaults))
	merged := make([]model.PermissionSetName, 0, len(names)+len(defaults))
	for _, name := range defaults {
		if !seen[name] {
			seen[name] = true
			merged = append(merged, name)
		}
	}
	for _, name := range names {
		if _, err := c.Get(name); err != nil {
			return nil, err
		}
		if !seen[name] {
			seen[name] = true
			merged = append(merged, name)
		}
	}
	return merged, nil
}

// PermissionsOf returns the union of permissions across the named sets.
// Unknown names are a programming error and fail the whole resolution.
func (c *Catalog) PermissionsOf(names []model.PermissionSetName) (map[model.Permission]bool, error) {
	perms := map[model.Permission]bool{}
	for _, name := range names {
		ps, err := c.Get(name)
		if err != nil {
			return nil, err
		}
		for _, p := range ps.Permissions {
			perms[p] = true
		}
	}
	return perms, nil
}

// Grants reports whether the union of the named sets contains the permission.
func (c *Catalog) Grants(names []model.PermissionSetName, perm model.Permission) (bool, error) {
	for _, name := range names {
		ps, err := c.Get(name)
		if err != nil {
			return false, err
		}
		if ps.Contains(perm) {
			return true, nil
		}
	}
	return false, nil
}

var builtinSets = []model.PermissionSet{
	{
		Name:        model.PermSetCCPO,
		DisplayName: "CCPO",
		Description: "Platform-wide administration",
		Permissions: []model.Permission{
			model.PermViewAuditLog,
			model.PermViewCCPOUser,
			model.PermCreateCCPOUser,
			model.PermEditCCPOUser,
			model.PermDeleteCCPOUser,
			model.PermViewPortfolio,
		},
	},
	{
		Name:        model.PermSetDefault,
		DisplayName: "Default",
		Description: "Baseline set for every registered user",
		Permissions: []model.Permission{},
	},
	{
		Name:        model.PermSetViewPortfolio,
		DisplayName: "View Portfolio",
		Description: "View basic portfolio info",
		Permissions: []model.Permission{model.PermViewPortfolio},
	},
	{
		Name:        model.PermSetViewPortfolioApplicationManagement,
		DisplayName: "Application Management",
		Description: "View applications and related resources",
		Permissions: []model.Permission{
			model.PermViewApplication,
			model.PermViewApplicationMember,
			model.PermViewEnvironment,
		},
	},
	{
		Name:        model.PermSetViewPortfolioFunding,
		DisplayName: "Funding",
		Description: "View a portfolio's task orders",
		Permissions: []model.Permission{
			model.PermViewPortfolioFunding,
			model.PermViewTaskOrderDetails,
		},
	},
	{
		Name:        model.PermSetViewPortfolioReports,
		DisplayName: "Reporting",
		Description: "View a portfolio's reports",
		Permissions: []model.Permission{model.PermViewPortfolioReports},
	},
	{
		Name:        model.PermSetViewPortfolioAdmin,
		DisplayName: "Portfolio Administration",
		Description: "View a portfolio's admin options",
		Permissions: []model.Permission{
			model.PermViewPortfolioAdmin,
			model.PermViewPortfolioName,
			model.PermViewPortfolioUsers,
			model.PermViewPortfolioActivityLog,
			model.PermViewPortfolioPOC,
		},
	},
	{
		Name:        model.PermSetEditPortfolioApplicationManagement,
		DisplayName: "Application Management",
		Description: "Edit applications and related resources",
		Permissions: []model.Permission{
			model.PermEditApplication,
			model.PermCreateApplication,
			model.PermEditApplicationMember,
			model.PermCreateApplicationMember,
			model.PermEditEnvironment,
			model.PermCreateEnvironment,
		},
	},
	{
		Name:        model.PermSetEditPortfolioFunding,
		DisplayName: "Funding",
		Description: "Edit a portfolio's task orders and add new ones",
		Permissions: []model.Permission{
			model.PermCreateTaskOrder,
			model.PermEditTaskOrderDetails,
		},
	},
	{
		Name:        model.PermSetEditPortfolioReports,
		DisplayName: "Reporting",
		Description: "Edit a portfolio's reports (no-op)",
		Permissions: []model.Permission{},
	},
	{
		Name:        model.PermSetEditPortfolioAdmin,
		DisplayName: "Portfolio Administration",
		Description: "Edit a portfolio's admin options",
		Permissions: []model.Permission{
			model.PermEditPortfolioName,
			model.PermEditPortfolioUsers,
			model.PermCreatePortfolioUsers,
		},
	},
	{
		Name:        model.PermSetPortfolioPOC,
		DisplayName: "Portfolio Point of Contact",
		Description: "Permissions belonging to the Portfolio POC",
		Permissions: []model.Permission{
			model.PermEditPortfolioPOC,
			model.PermArchivePortfolio,
		},
	},
	{
		Name:        model.PermSetViewApplication,
		DisplayName: "View Application",
		Description: "View an application and its environments",
		Permissions: []model.Permission{
			model.PermViewApplication,
			model.PermViewApplicationMember,
			model.PermViewEnvironment,
			model.PermViewApplicationActivityLog,
		},
	},
	{
		Name:        model.PermSetEditApplication,
		DisplayName: "Edit Application",
		Description: "Manage an application, its environments and members",
		Permissions: []model.Permission{
			model.PermEditApplication,
			model.PermDeleteApplication,
			model.PermEditApplicationMember,
			model.PermCreateApplicationMember,
			model.PermDeleteApplicationMember,
			model.PermEditEnvironment,
			model.PermCreateEnvironment,
			model.PermDeleteEnvironment,
			model.PermAssignEnvironmentMember,
		},
	},
}
