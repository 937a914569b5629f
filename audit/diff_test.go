// api/audit/diff_test.go
package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccpo-cloud/atat/model"
)

func TestDiffSingleField(t *testing.T) {
	before := &model.Portfolio{Name: "Old Name", Description: "Shared"}
	after := &model.Portfolio{Name: "New Name", Description: "Shared"}

	changed := Diff(before, after)
	require.Len(t, changed, 1)
	assert.Equal(t, []any{"Old Name", "New Name"}, changed["name"])
}

func TestDiffNoChangesIsNil(t *testing.T) {
	before := &model.Portfolio{Name: "Same", Description: "Same too"}
	after := &model.Portfolio{Name: "Same", Description: "Same too"}

	assert.Nil(t, Diff(before, after))
}

func TestDiffIgnoresUntaggedFields(t *testing.T) {
	before := &model.User{FirstName: "Ada", Email: "ada@example.mil"}
	after := &model.User{FirstName: "Ada", Email: "ada@example.mil"}
	after.LastLoginAt = after.LastLoginAt.AddDate(0, 0, 1)
	after.ID = "changed"

	// Neither the login timestamp nor the ID carries an audit tag.
	assert.Nil(t, Diff(before, after))
}

func TestDiffMismatchedTypes(t *testing.T) {
	assert.Nil(t, Diff(&model.User{}, &model.Portfolio{}))
}

func TestDiffPermissionSets(t *testing.T) {
	before := []model.PermissionSetName{"view_portfolio", "view_portfolio_funding"}
	after := []model.PermissionSetName{"view_portfolio", "edit_portfolio_funding"}

	changed := DiffPermissionSets(before, after)
	require.Len(t, changed, 1)
	require.Len(t, changed["permission_sets"], 2)
	assert.Equal(t, []string{"view_portfolio", "view_portfolio_funding"}, changed["permission_sets"][0])
	assert.Equal(t, []string{"view_portfolio", "edit_portfolio_funding"}, changed["permission_sets"][1])
}

func TestDiffPermissionSetsOrderInsensitive(t *testing.T) {
	before := []model.PermissionSetName{"a", "b", "c"}
	after := []model.PermissionSetName{"c", "a", "b"}

	assert.Nil(t, DiffPermissionSets(before, after))
}

func TestDiffPermissionSetsCountsDuplicates(t *testing.T) {
	before := []model.PermissionSetName{"a", "a"}
	after := []model.PermissionSetName{"a", "b"}

	assert.NotNil(t, DiffPermissionSets(before, after))
}

func TestMerge(t *testing.T) {
	merged := Merge(
		map[string][]any{"status": {"pending", "active"}},
		nil,
		map[string][]any{"permission_sets": {[]string{"a"}, []string{"b"}}},
	)
	assert.Len(t, merged, 2)

	assert.Nil(t, Merge(nil, map[string][]any{}))
}
