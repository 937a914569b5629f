package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	atat_errors "github.com/ccpo-cloud/atat/errors"
	"github.com/ccpo-cloud/atat/model"
)

type fakeTaskOrderReader struct {
	orders []*model.TaskOrder
}

func (f *fakeTaskOrderReader) TaskOrdersForPortfolio(ctx context.Context, portfolioID string) ([]*model.TaskOrder, error) {
	return f.orders, nil
}

func TestOfficerChecksAreIdentityChecks(t *testing.T) {
	checker := NewOfficerChecker(&fakeTaskOrderReader{})
	order := &model.TaskOrder{
		ID:                      "to1",
		ContractingOfficerID:    "ko",
		ContractingOfficerRepID: "cor",
		SecurityOfficerID:       "so",
	}

	ko := &model.User{ID: "ko"}
	cor := &model.User{ID: "cor"}
	so := &model.User{ID: "so"}
	// A CCPO grant confers every permission, but officer checks ignore it.
	admin := &model.User{ID: "admin", PermissionSets: []model.PermissionSetName{model.PermSetCCPO}}

	assert.NoError(t, checker.CheckIsContractingOfficer(ko, order))
	assert.True(t, atat_errors.IsUnauthorized(checker.CheckIsContractingOfficer(cor, order)))
	assert.True(t, atat_errors.IsUnauthorized(checker.CheckIsContractingOfficer(admin, order)))
	assert.True(t, atat_errors.IsUnauthorized(checker.CheckIsContractingOfficer(nil, order)))

	assert.NoError(t, checker.CheckIsKOOrCOR(ko, order))
	assert.NoError(t, checker.CheckIsKOOrCOR(cor, order))
	assert.True(t, atat_errors.IsUnauthorized(checker.CheckIsKOOrCOR(so, order)))

	assert.NoError(t, checker.CheckIsSecurityOfficer(so, order))
	assert.True(t, atat_errors.IsUnauthorized(checker.CheckIsSecurityOfficer(ko, order)))

	assert.True(t, checker.IsOfficerOf(so, order))
	assert.False(t, checker.IsOfficerOf(admin, order))
}

func TestIsPortfolioOfficerScansAllOrders(t *testing.T) {
	reader := &fakeTaskOrderReader{orders: []*model.TaskOrder{
		{ID: "to1", ContractingOfficerID: "ko"},
		{ID: "to2", SecurityOfficerID: "so"},
	}}
	checker := NewOfficerChecker(reader)

	yes, err := checker.IsPortfolioOfficer(context.Background(), &model.User{ID: "so"}, "p1")
	require.NoError(t, err)
	assert.True(t, yes)

	no, err := checker.IsPortfolioOfficer(context.Background(), &model.User{ID: "stranger"}, "p1")
	require.NoError(t, err)
	assert.False(t, no)

	nilUser, err := checker.IsPortfolioOfficer(context.Background(), nil, "p1")
	require.NoError(t, err)
	assert.False(t, nilUser)
}

func TestBlankOfficerFieldMatchesNobody(t *testing.T) {
	order := &model.TaskOrder{ID: "to1"}
	assert.False(t, order.IsContractingOfficer(""))
	assert.False(t, order.IsOfficer(""))
}
