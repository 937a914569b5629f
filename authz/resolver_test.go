// api/authz/resolver_test.go
package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	atat_errors "github.com/ccpo-cloud/atat/errors"
	"github.com/ccpo-cloud/atat/model"
)

// fakeRoleReader serves role edges from in-memory maps, keyed by
// userID+"/"+resourceID.
type fakeRoleReader struct {
	portfolioRoles   map[string]*model.PortfolioRole
	applicationRoles map[string]*model.ApplicationRole
	appPortfolios    map[string]string
}

func (f *fakeRoleReader) PortfolioRoleFor(_ context.Context, userID, portfolioID string) (*model.PortfolioRole, error) {
	return f.portfolioRoles[userID+"/"+portfolioID], nil
}

func (f *fakeRoleReader) ApplicationRoleFor(_ context.Context, userID, applicationID string) (*model.ApplicationRole, error) {
	return f.applicationRoles[userID+"/"+applicationID], nil
}

func (f *fakeRoleReader) PortfolioIDForApplication(_ context.Context, applicationID string) (string, error) {
	return f.appPortfolios[applicationID], nil
}

func newTestResolver(roles *fakeRoleReader) *Resolver {
	if roles.portfolioRoles == nil {
		roles.portfolioRoles = map[string]*model.PortfolioRole{}
	}
	if roles.applicationRoles == nil {
		roles.applicationRoles = map[string]*model.ApplicationRole{}
	}
	if roles.appPortfolios == nil {
		roles.appPortfolios = map[string]string{}
	}
	return NewResolver(NewCatalog(), roles)
}

func TestCanAccessNilUser(t *testing.T) {
	resolver := newTestResolver(&fakeRoleReader{})

	_, err := resolver.CanAccess(context.Background(), nil, model.PermViewPortfolio, PortfolioTarget("p1"))
	assert.ErrorIs(t, err, atat_errors.ErrUnauthenticated)
}

func TestGlobalGrantOverridesMembership(t *testing.T) {
	resolver := newTestResolver(&fakeRoleReader{})
	ccpo := &model.User{ID: "u1", PermissionSets: []model.PermissionSetName{model.PermSetCCPO}}

	// No role edge in the portfolio at all, yet the global grant wins.
	ok, err := resolver.CanAccess(context.Background(), ccpo, model.PermViewPortfolio, PortfolioTarget("p1"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.CanAccess(context.Background(), ccpo, model.PermViewAuditLog, GlobalTarget())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPortfolioRoleResolution(t *testing.T) {
	roles := &fakeRoleReader{
		portfolioRoles: map[string]*model.PortfolioRole{
			"u1/p1": {
				Status:         model.RoleStatusActive,
				PermissionSets: []model.PermissionSetName{model.PermSetViewPortfolio, model.PermSetViewPortfolioFunding},
			},
		},
	}
	resolver := newTestResolver(roles)
	user := &model.User{ID: "u1"}

	ok, err := resolver.CanAccess(context.Background(), user, model.PermViewPortfolioFunding, PortfolioTarget("p1"))
	require.NoError(t, err)
	assert.True(t, ok)

	// Permission outside the role's sets.
	ok, err = resolver.CanAccess(context.Background(), user, model.PermEditPortfolioName, PortfolioTarget("p1"))
	require.NoError(t, err)
	assert.False(t, ok)

	// No role edge in another portfolio.
	ok, err = resolver.CanAccess(context.Background(), user, model.PermViewPortfolio, PortfolioTarget("p2"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDisabledRoleGrantsNothing(t *testing.T) {
	roles := &fakeRoleReader{
		portfolioRoles: map[string]*model.PortfolioRole{
			"u1/p1": {
				Status:         model.RoleStatusDisabled,
				PermissionSets: []model.PermissionSetName{model.PermSetViewPortfolio, model.PermSetEditPortfolioAdmin},
			},
		},
	}
	resolver := newTestResolver(roles)
	user := &model.User{ID: "u1"}

	ok, err := resolver.CanAccess(context.Background(), user, model.PermViewPortfolio, PortfolioTarget("p1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPendingRoleGrantsNothing(t *testing.T) {
	roles := &fakeRoleReader{
		portfolioRoles: map[string]*model.PortfolioRole{
			"u1/p1": {
				Status:         model.RoleStatusPending,
				PermissionSets: []model.PermissionSetName{model.PermSetViewPortfolio},
			},
		},
	}
	resolver := newTestResolver(roles)
	user := &model.User{ID: "u1"}

	ok, err := resolver.CanAccess(context.Background(), user, model.PermViewPortfolio, PortfolioTarget("p1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplicationTargetCascadesThroughPortfolio(t *testing.T) {
	roles := &fakeRoleReader{
		portfolioRoles: map[string]*model.PortfolioRole{
			"u1/p1": {
				Status:         model.RoleStatusActive,
				PermissionSets: []model.PermissionSetName{model.PermSetViewPortfolioApplicationManagement},
			},
		},
		appPortfolios: map[string]string{"a1": "p1"},
	}
	resolver := newTestResolver(roles)
	user := &model.User{ID: "u1"}

	// No application role at all: the portfolio grant cascades down.
	ok, err := resolver.CanAccess(context.Background(), user, model.PermViewApplication, ApplicationTarget("p1", "a1"))
	require.NoError(t, err)
	assert.True(t, ok)

	// The portfolio ID is resolved when the caller only knows the application.
	ok, err = resolver.CanAccess(context.Background(), user, model.PermViewApplication, ApplicationTarget("", "a1"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestApplicationRoleUnionsWithPortfolioRole(t *testing.T) {
	roles := &fakeRoleReader{
		portfolioRoles: map[string]*model.PortfolioRole{
			// Member of the portfolio, but with view-only sets.
			"u1/p1": {
				Status:         model.RoleStatusActive,
				PermissionSets: []model.PermissionSetName{model.PermSetViewPortfolio},
			},
		},
		applicationRoles: map[string]*model.ApplicationRole{
			"u1/a1": {
				Status:         model.RoleStatusActive,
				PermissionSets: []model.PermissionSetName{model.PermSetEditApplication},
			},
		},
		appPortfolios: map[string]string{"a1": "p1"},
	}
	resolver := newTestResolver(roles)
	user := &model.User{ID: "u1"}

	// The portfolio role denies edit, but resolution keeps going and the
	// application role grants it.
	ok, err := resolver.CanAccess(context.Background(), user, model.PermEditApplication, ApplicationTarget("p1", "a1"))
	require.NoError(t, err)
	assert.True(t, ok)

	// A disabled application role falls back to nothing.
	roles.applicationRoles["u1/a1"].Status = model.RoleStatusDisabled
	ok, err = resolver.CanAccess(context.Background(), user, model.PermEditApplication, ApplicationTarget("p1", "a1"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckAccessReturnsUnauthorized(t *testing.T) {
	resolver := newTestResolver(&fakeRoleReader{})
	user := &model.User{ID: "u1"}

	err := resolver.CheckPortfolioAccess(context.Background(), user, model.PermViewPortfolio, "p1", "view portfolio")
	require.Error(t, err)
	assert.True(t, atat_errors.IsUnauthorized(err))
}

func TestResolverReadsFreshStatePerCheck(t *testing.T) {
	roles := &fakeRoleReader{
		portfolioRoles: map[string]*model.PortfolioRole{
			"u1/p1": {
				Status:         model.RoleStatusActive,
				PermissionSets: []model.PermissionSetName{model.PermSetViewPortfolio},
			},
		},
	}
	resolver := newTestResolver(roles)
	user := &model.User{ID: "u1"}

	ok, err := resolver.CanAccess(context.Background(), user, model.PermViewPortfolio, PortfolioTarget("p1"))
	require.NoError(t, err)
	assert.True(t, ok)

	// A concurrent disable takes effect on the very next check.
	roles.portfolioRoles["u1/p1"].Status = model.RoleStatusDisabled
	ok, err = resolver.CanAccess(context.Background(), user, model.PermViewPortfolio, PortfolioTarget("p1"))
	require.NoError(t, err)
	assert.False(t, ok)
}
