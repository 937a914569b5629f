// api/dao/user_dao.go
package dao

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ccpo-cloud/atat/audit"
	logger "github.com/ccpo-cloud/atat/logging"
	"github.com/ccpo-cloud/atat/model"
)

type UserDAO struct {
	DB           *sql.DB
	AuditService *audit.Service
}

func NewUserDAO(db *sql.DB, auditService *audit.Service) *UserDAO {
	return &UserDAO{DB: db, AuditService: auditService}
}

const selectUser = `
	SELECT id, dod_id, first_name, last_name, email, phone_number,
	       array_to_string(permission_sets, ','),
	       COALESCE(last_login_at, 'epoch'::timestamptz), created_at, updated_at
	FROM users`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var sets string
	err := row.Scan(&u.ID, &u.DodID, &u.FirstName, &u.LastName, &u.Email,
		&u.PhoneNumber, &sets, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.PermissionSets = splitSetNames(sets)
	return &u, nil
}

// CreateUser inserts a new user. Registration is system-initiated, so the
// audit event carries no actor.
func (dao *UserDAO) CreateUser(ctx context.Context, user *model.User) (string, error) {
	start := time.Now()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	logger.Info("Creating new user", zap.String("userID", user.ID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, dod_id, first_name, last_name, email, phone_number, permission_sets)
			VALUES ($1, $2, $3, $4, $5, $6, string_to_array(NULLIF($7, ''), ','))`,
			user.ID, user.DodID, user.FirstName, user.LastName, user.Email,
			user.PhoneNumber, joinSetNames(user.PermissionSets))
		if err != nil {
			return mapWriteError(err, "user")
		}
		committed, err = dao.AuditService.RecordCreate(ctx, tx, audit.Actor{}, user)
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create user",
			zap.Error(err),
			zap.String("userID", user.ID),
			zap.Duration("duration", duration))
		return "", err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("User created successfully",
		zap.String("userID", user.ID),
		zap.Duration("duration", duration))
	return user.ID, nil
}

func (dao *UserDAO) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := scanUser(dao.DB.QueryRowContext(ctx, selectUser+` WHERE id = $1`, userID))
	if err != nil {
		return nil, mapReadError(err, "user")
	}
	return user, nil
}

func (dao *UserDAO) GetUserByDodID(ctx context.Context, dodID string) (*model.User, error) {
	user, err := scanUser(dao.DB.QueryRowContext(ctx, selectUser+` WHERE dod_id = $1`, dodID))
	if err != nil {
		return nil, mapReadError(err, "user")
	}
	return user, nil
}

// UpdateUser saves profile edits. The row is locked while the before-image is
// read so the recorded diff matches what was actually replaced; an unchanged
// save commits without emitting an event.
func (dao *UserDAO) UpdateUser(ctx context.Context, actor audit.Actor, user *model.User) error {
	start := time.Now()
	logger.Info("Updating user", zap.String("userID", user.ID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanUser(tx.QueryRowContext(ctx, selectUser+` WHERE id = $1 FOR UPDATE`, user.ID))
		if err != nil {
			return mapReadError(err, "user")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET first_name = $2, last_name = $3, email = $4, phone_number = $5,
			    updated_at = now()
			WHERE id = $1`,
			user.ID, user.FirstName, user.LastName, user.Email, user.PhoneNumber)
		if err != nil {
			return mapWriteError(err, "user")
		}

		committed, err = dao.AuditService.RecordUpdate(ctx, tx, actor, user, audit.Diff(before, user))
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update user",
			zap.Error(err),
			zap.String("userID", user.ID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("User updated successfully",
		zap.String("userID", user.ID),
		zap.Duration("duration", duration))
	return nil
}

// UpdateUserPermissionSets replaces the user's global grants, recording the
// collection change as a single permission_sets diff.
func (dao *UserDAO) UpdateUserPermissionSets(ctx context.Context, actor audit.Actor, userID string, names []model.PermissionSetName) error {
	start := time.Now()
	logger.Info("Updating user permission sets", zap.String("userID", userID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanUser(tx.QueryRowContext(ctx, selectUser+` WHERE id = $1 FOR UPDATE`, userID))
		if err != nil {
			return mapReadError(err, "user")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users
			SET permission_sets = string_to_array(NULLIF($2, ''), ','), updated_at = now()
			WHERE id = $1`,
			userID, joinSetNames(names))
		if err != nil {
			return mapWriteError(err, "user")
		}

		after := *before
		after.PermissionSets = names
		committed, err = dao.AuditService.RecordUpdate(ctx, tx, actor, &after,
			audit.DiffPermissionSets(before.PermissionSets, names))
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update user permission sets",
			zap.Error(err),
			zap.String("userID", userID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("User permission sets updated successfully",
		zap.String("userID", userID),
		zap.Duration("duration", duration))
	return nil
}

// TouchLastLogin records a successful login. Deliberately unaudited; the
// timestamp churn would flood the log.
func (dao *UserDAO) TouchLastLogin(ctx context.Context, userID string) error {
	_, err := dao.DB.ExecContext(ctx,
		`UPDATE users SET last_login_at = now() WHERE id = $1`, userID)
	if err != nil {
		return mapWriteError(err, "user")
	}
	return nil
}
