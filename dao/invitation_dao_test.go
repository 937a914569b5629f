// api/dao/invitation_dao_test.go
package dao

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccpo-cloud/atat/audit"
	atat_errors "github.com/ccpo-cloud/atat/errors"
	"github.com/ccpo-cloud/atat/model"
)

var invitationColumns = []string{
	"id", "resource_type", "role_id", "portfolio_id", "application_id",
	"token", "status", "user_id", "dod_id", "first_name", "last_name",
	"email", "inviter_id", "expires_at", "created_at", "updated_at",
}

func newInvitationDAO(t *testing.T) (*InvitationDAO, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	auditService := audit.NewService(audit.NewRepository(db), nil)
	return NewInvitationDAO(db, auditService), mock
}

func invitationRow(status model.InvitationStatus, dodID string, expiresAt time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(invitationColumns).
		AddRow("inv1", model.InvitationResourcePortfolio, "role1", "p1", "",
			"tok", status, "", dodID, "Ada", "Lovelace", "ada@example.mil",
			"inviter1", expiresAt, now, now)
}

func acceptingUser() *model.User {
	return &model.User{ID: "u1", DodID: "1234567890", FirstName: "Ada", LastName: "Lovelace"}
}

func TestAcceptInvitationWrongUserCommitsRejection(t *testing.T) {
	dao, mock := newInvitationDAO(t)
	future := time.Now().UTC().Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, resource_type`).
		WithArgs("tok").
		WillReturnRows(invitationRow(model.InvitationStatusPending, "someone-else", future))
	mock.ExpectExec(`UPDATE invitations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_events`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// The rejection write must land even though the call reports an error.
	mock.ExpectCommit()

	_, err := dao.AcceptInvitation(context.Background(), acceptingUser(), "tok", time.Now().UTC())

	assert.True(t, atat_errors.IsWrongUser(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvitationExpiredCommitsRejection(t *testing.T) {
	dao, mock := newInvitationDAO(t)
	past := time.Now().UTC().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, resource_type`).
		WithArgs("tok").
		WillReturnRows(invitationRow(model.InvitationStatusPending, "1234567890", past))
	mock.ExpectExec(`UPDATE invitations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_events`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := dao.AcceptInvitation(context.Background(), acceptingUser(), "tok", time.Now().UTC())

	assert.True(t, atat_errors.IsExpired(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvitationAlreadyAcceptedWritesNothing(t *testing.T) {
	dao, mock := newInvitationDAO(t)
	future := time.Now().UTC().Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, resource_type`).
		WithArgs("tok").
		WillReturnRows(invitationRow(model.InvitationStatusAccepted, "1234567890", future))
	mock.ExpectCommit()

	_, err := dao.AcceptInvitation(context.Background(), acceptingUser(), "tok", time.Now().UTC())

	assert.True(t, atat_errors.IsInvitationStatus(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptInvitationActivatesPortfolioRole(t *testing.T) {
	dao, mock := newInvitationDAO(t)
	now := time.Now().UTC()
	future := now.Add(time.Hour)

	roleRow := sqlmock.NewRows([]string{
		"id", "portfolio_id", "user_id", "status", "permission_sets",
		"user_name", "created_at", "updated_at",
	}).AddRow("role1", "p1", "", model.RoleStatusPending, "view_portfolio", "", now, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, resource_type`).
		WithArgs("tok").
		WillReturnRows(invitationRow(model.InvitationStatusPending, "1234567890", future))
	mock.ExpectExec(`UPDATE invitations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_events`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT r.id, r.portfolio_id`).
		WithArgs("role1").
		WillReturnRows(roleRow)
	mock.ExpectExec(`UPDATE portfolio_roles`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_events`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	accepted, err := dao.AcceptInvitation(context.Background(), acceptingUser(), "tok", now)

	require.NoError(t, err)
	assert.Equal(t, model.InvitationStatusAccepted, accepted.Status)
	assert.Equal(t, "u1", accepted.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResendAcceptedInvitationFails(t *testing.T) {
	dao, mock := newInvitationDAO(t)
	future := time.Now().UTC().Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, resource_type`).
		WithArgs("tok").
		WillReturnRows(invitationRow(model.InvitationStatusAccepted, "1234567890", future))
	mock.ExpectRollback()

	_, err := dao.ResendInvitation(context.Background(), audit.Actor{UserID: "u2"},
		"tok", "", future)

	assert.True(t, atat_errors.IsInvitationStatus(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvitationRevokesPriorPending(t *testing.T) {
	dao, mock := newInvitationDAO(t)

	mock.ExpectBegin()
	// Any earlier pending invitation for the role edge is revoked first.
	mock.ExpectExec(`UPDATE invitations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO invitations`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_events`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	invitation := &model.Invitation{
		ResourceType: model.InvitationResourcePortfolio,
		RoleID:       "role1",
		PortfolioID:  "p1",
		DodID:        "1234567890",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.mil",
		InviterID:    "u2",
		ExpiresAt:    time.Now().UTC().Add(6 * time.Hour),
	}
	id, err := dao.CreateInvitation(context.Background(), audit.Actor{UserID: "u2"}, invitation)

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotEmpty(t, invitation.Token)
	assert.Equal(t, model.InvitationStatusPending, invitation.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
