// api/authz/scope_test.go
package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccpo-cloud/atat/model"
)

// fakeScopeReader records which query path the scoped view took.
type fakeScopeReader struct {
	full   []*model.Application
	member []*model.Application

	fullEnvs   []*model.Environment
	memberEnvs []*model.Environment

	usedFullQuery   bool
	usedMemberQuery bool
}

func (f *fakeScopeReader) ApplicationsForPortfolio(_ context.Context, _ string) ([]*model.Application, error) {
	f.usedFullQuery = true
	return f.full, nil
}

func (f *fakeScopeReader) ApplicationsForMember(_ context.Context, _, _ string) ([]*model.Application, error) {
	f.usedMemberQuery = true
	return f.member, nil
}

func (f *fakeScopeReader) EnvironmentsForApplication(_ context.Context, _ string) ([]*model.Environment, error) {
	f.usedFullQuery = true
	return f.fullEnvs, nil
}

func (f *fakeScopeReader) EnvironmentsForMember(_ context.Context, _, _ string) ([]*model.Environment, error) {
	f.usedMemberQuery = true
	return f.memberEnvs, nil
}

func TestScopedPortfolioBlanketGrantUsesFullQuery(t *testing.T) {
	roles := &fakeRoleReader{
		portfolioRoles: map[string]*model.PortfolioRole{
			"u1/p1": {
				Status:         model.RoleStatusActive,
				PermissionSets: []model.PermissionSetName{model.PermSetViewPortfolioApplicationManagement},
			},
		},
	}
	resolver := newTestResolver(roles)
	reader := &fakeScopeReader{
		full:   []*model.Application{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}},
		member: []*model.Application{{ID: "a1"}},
	}
	user := &model.User{ID: "u1"}
	scoped := NewScopedPortfolio(&model.Portfolio{ID: "p1"}, user, resolver, reader)

	apps, err := scoped.Applications(context.Background())
	require.NoError(t, err)
	assert.Len(t, apps, 3)
	assert.True(t, reader.usedFullQuery)
	assert.False(t, reader.usedMemberQuery)
}

func TestScopedPortfolioMemberOnlyUsesMembershipQuery(t *testing.T) {
	roles := &fakeRoleReader{
		portfolioRoles: map[string]*model.PortfolioRole{
			// Member of the portfolio, but no blanket application view.
			"u1/p1": {
				Status:         model.RoleStatusActive,
				PermissionSets: []model.PermissionSetName{model.PermSetViewPortfolio},
			},
		},
	}
	resolver := newTestResolver(roles)
	reader := &fakeScopeReader{
		full:   []*model.Application{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}},
		member: []*model.Application{{ID: "a2"}},
	}
	user := &model.User{ID: "u1"}
	scoped := NewScopedPortfolio(&model.Portfolio{ID: "p1"}, user, resolver, reader)

	apps, err := scoped.Applications(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "a2", apps[0].ID)
	assert.True(t, reader.usedMemberQuery)
	assert.False(t, reader.usedFullQuery)
}

func TestScopedPortfolioEqualDelegatesToWrapped(t *testing.T) {
	resolver := newTestResolver(&fakeRoleReader{})
	portfolio := &model.Portfolio{ID: "p1"}
	a := NewScopedPortfolio(portfolio, &model.User{ID: "u1"}, resolver, &fakeScopeReader{})
	b := NewScopedPortfolio(&model.Portfolio{ID: "p1"}, &model.User{ID: "u2"}, resolver, &fakeScopeReader{})
	c := NewScopedPortfolio(&model.Portfolio{ID: "p2"}, &model.User{ID: "u1"}, resolver, &fakeScopeReader{})

	// Same entity through different viewers is still the same portfolio.
	assert.True(t, a.Equal(b))
	assert.True(t, a.Equal(portfolio))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
	assert.False(t, a.Equal("p1"))
}

func TestScopedApplicationEnvironments(t *testing.T) {
	roles := &fakeRoleReader{
		applicationRoles: map[string]*model.ApplicationRole{
			"u1/a1": {
				Status:         model.RoleStatusActive,
				PermissionSets: []model.PermissionSetName{model.PermSetViewApplication},
			},
		},
		appPortfolios: map[string]string{"a1": "p1"},
	}
	resolver := newTestResolver(roles)
	reader := &fakeScopeReader{
		fullEnvs:   []*model.Environment{{ID: "e1"}, {ID: "e2"}},
		memberEnvs: []*model.Environment{{ID: "e1"}},
	}
	user := &model.User{ID: "u1"}
	scoped := NewScopedApplication(&model.Application{ID: "a1", PortfolioID: "p1"}, user, resolver, reader)

	// view_application includes view_environment, so the full query runs.
	envs, err := scoped.Environments(context.Background())
	require.NoError(t, err)
	assert.Len(t, envs, 2)
	assert.True(t, reader.usedFullQuery)
}

func TestScopedApplicationEqual(t *testing.T) {
	resolver := newTestResolver(&fakeRoleReader{})
	app := &model.Application{ID: "a1"}
	scoped := NewScopedApplication(app, &model.User{ID: "u1"}, resolver, &fakeScopeReader{})

	assert.True(t, scoped.Equal(app))
	assert.True(t, scoped.Equal(NewScopedApplication(&model.Application{ID: "a1"}, nil, resolver, nil)))
	assert.False(t, scoped.Equal(&model.Application{ID: "a2"}))
}
