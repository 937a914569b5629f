// api/authz/catalog_test.go
package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	atat_errors "github.com/ccpo-cloud/atat/errors"
	"github.com/ccpo-cloud/atat/model"
)

func TestCatalogGet(t *testing.T) {
	catalog := NewCatalog()

	ps, err := catalog.Get(model.PermSetViewPortfolioFunding)
	require.NoError(t, err)
	assert.Equal(t, model.PermSetViewPortfolioFunding, ps.Name)
	assert.True(t, ps.Contains(model.PermViewTaskOrderDetails))

	_, err = catalog.Get("no_such_set")
	assert.True(t, atat_errors.IsNotFound(err))
}

func TestCatalogGetManyFailsOnUnknownName(t *testing.T) {
	catalog := NewCatalog()

	sets, err := catalog.GetMany([]model.PermissionSetName{
		model.PermSetViewPortfolio,
		model.PermSetViewPortfolioAdmin,
	})
	require.NoError(t, err)
	assert.Len(t, sets, 2)

	_, err = catalog.GetMany([]model.PermissionSetName{
		model.PermSetViewPortfolio,
		"view_portfolio_fundng", // typo must error, not be dropped
	})
	assert.True(t, atat_errors.IsNotFound(err))
}

func TestWithPortfolioDefaults(t *testing.T) {
	catalog := NewCatalog()

	merged, err := catalog.WithPortfolioDefaults([]model.PermissionSetName{
		model.PermSetEditPortfolioFunding,
		model.PermSetViewPortfolio, // already a default, must not duplicate
	})
	require.NoError(t, err)

	counts := map[model.PermissionSetName]int{}
	for _, name := range merged {
		counts[name]++
	}
	for name, n := range counts {
		assert.Equal(t, 1, n, "duplicate set %s", name)
	}
	assert.Contains(t, merged, model.PermSetEditPortfolioFunding)
	for _, def := range defaultPortfolioSets {
		assert.Contains(t, merged, def)
	}

	_, err = catalog.WithPortfolioDefaults([]model.PermissionSetName{"bogus"})
	assert.True(t, atat_errors.IsNotFound(err))
}

func TestWithApplicationDefaults(t *testing.T) {
	catalog := NewCatalog()

	merged, err := catalog.WithApplicationDefaults([]model.PermissionSetName{model.PermSetEditApplication})
	require.NoError(t, err)
	assert.Contains(t, merged, model.PermSetViewApplication)
	assert.Contains(t, merged, model.PermSetEditApplication)
}

func TestGrantsIsAUnionAcrossSets(t *testing.T) {
	catalog := NewCatalog()

	names := []model.PermissionSetName{
		model.PermSetViewPortfolio,
		model.PermSetEditPortfolioFunding,
	}

	ok, err := catalog.Grants(names, model.PermCreateTaskOrder)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = catalog.Grants(names, model.PermArchivePortfolio)
	require.NoError(t, err)
	assert.False(t, ok)

	// The empty edit_portfolio_reports set grants nothing.
	ok, err = catalog.Grants([]model.PermissionSetName{model.PermSetEditPortfolioReports}, model.PermViewPortfolioReports)
	require.NoError(t, err)
	assert.False(t, ok)
}
