// api/dao/user_dao_test.go
package dao

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccpo-cloud/atat/audit"
	atat_errors "github.com/ccpo-cloud/atat/errors"
	"github.com/ccpo-cloud/atat/model"
)

var userColumns = []string{
	"id", "dod_id", "first_name", "last_name", "email", "phone_number",
	"permission_sets", "last_login_at", "created_at", "updated_at",
}

func newUserDAO(t *testing.T) (*UserDAO, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	auditService := audit.NewService(audit.NewRepository(db), nil)
	return NewUserDAO(db, auditService), mock
}

func userRow(firstName string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(userColumns).
		AddRow("u1", "1234567890", firstName, "Lovelace", "ada@example.mil",
			"555-0100", "", now, now, now)
}

func TestUpdateUserRecordsDiffInSameTransaction(t *testing.T) {
	dao, mock := newUserDAO(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, dod_id, first_name`).
		WithArgs("u1").
		WillReturnRows(userRow("Ada"))
	mock.ExpectExec(`UPDATE users`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_events`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated := &model.User{
		ID: "u1", DodID: "1234567890", FirstName: "Augusta",
		LastName: "Lovelace", Email: "ada@example.mil", PhoneNumber: "555-0100",
	}
	actor := audit.Actor{UserID: "u2", UserName: "Grace Hopper"}
	err := dao.UpdateUser(context.Background(), actor, updated)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserNoopEmitsNoEvent(t *testing.T) {
	dao, mock := newUserDAO(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, dod_id, first_name`).
		WithArgs("u1").
		WillReturnRows(userRow("Ada"))
	mock.ExpectExec(`UPDATE users`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// No audit insert: the save changed nothing.
	mock.ExpectCommit()

	unchanged := &model.User{
		ID: "u1", DodID: "1234567890", FirstName: "Ada",
		LastName: "Lovelace", Email: "ada@example.mil", PhoneNumber: "555-0100",
	}
	err := dao.UpdateUser(context.Background(), audit.Actor{UserID: "u2"}, unchanged)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserNotFoundRollsBack(t *testing.T) {
	dao, mock := newUserDAO(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, dod_id, first_name`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectRollback()

	err := dao.UpdateUser(context.Background(), audit.Actor{}, &model.User{ID: "missing"})

	assert.True(t, atat_errors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserUniqueViolation(t *testing.T) {
	dao, mock := newUserDAO(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_dod_id_key"})
	mock.ExpectRollback()

	_, err := dao.CreateUser(context.Background(), &model.User{DodID: "1234567890"})

	assert.True(t, atat_errors.IsAlreadyExists(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserPermissionSetsRecordsCollectionDiff(t *testing.T) {
	dao, mock := newUserDAO(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, dod_id, first_name`).
		WithArgs("u1").
		WillReturnRows(userRow("Ada"))
	mock.ExpectExec(`UPDATE users`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_events`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := dao.UpdateUserPermissionSets(context.Background(),
		audit.Actor{UserID: "u2"}, "u1",
		[]model.PermissionSetName{model.PermSetCCPO})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserNotFound(t *testing.T) {
	dao, mock := newUserDAO(t)

	mock.ExpectQuery(`SELECT id, dod_id, first_name`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := dao.GetUser(context.Background(), "missing")
	assert.True(t, atat_errors.IsNotFound(err))
}

func TestTouchLastLoginIsUnaudited(t *testing.T) {
	dao, mock := newUserDAO(t)

	// A single UPDATE outside any transaction, and no audit insert.
	mock.ExpectExec(`UPDATE users SET last_login_at`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, dao.TouchLastLogin(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
