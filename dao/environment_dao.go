// api/dao/environment_dao.go
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

type EnvironmentDAO struct {
	DB           *sql.DB
	AuditService *audit.Service
}

func NewEnvironmentDAO(db *sql.DB, auditService *audit.Service) *EnvironmentDAO {
	return &EnvironmentDAO{DB: db, AuditService: auditService}
}

const selectEnvironment = `
	SELECT id, application_id, portfolio_id, name, cloud_id, deleted_at, created_at, updated_at
	FROM environments`

func scanEnvironment(row *sql.Row) (*model.Environment, error) {
	var e model.Environment
	err := row.Scan(&e.ID, &e.ApplicationID, &e.PortfolioID, &e.Name,
		&e.CloudID, &e.DeletedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEnvironments(rows *sql.Rows) ([]*model.Environment, error) {
	var envs []*model.Environment
	for rows.Next() {
		var e model.Environment
		err := rows.Scan(&e.ID, &e.ApplicationID, &e.PortfolioID, &e.Name,
			&e.CloudID, &e.DeletedAt, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, mapReadError(err, "environment")
		}
		envs = append(envs, &e)
	}
	return envs, rows.Err()
}

// CreateEnvironment inserts an environment; names are unique within the
// application.
func (dao *EnvironmentDAO) CreateEnvironment(ctx context.Context, actor audit.Actor, environment *model.Environment) (string, error) {
	start := time.Now()
	if environment.ID == "" {
		environment.ID = uuid.New().String()
	}
	logger.Info("Creating new environment",
		zap.String("environmentID", environment.ID),
		zap.String("applicationID", environment.ApplicationID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO environments (id, application_id, portfolio_id, name, cloud_id)
			VALUES ($1, $2, $3, $4, $5)`,
			environment.ID, environment.ApplicationID, environment.PortfolioID,
			environment.Name, environment.CloudID)
		if err != nil {
			return mapWriteError(err, "environment")
		}
		committed, err = dao.AuditService.RecordCreate(ctx, tx, actor, environment)
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create environment",
			zap.Error(err),
			zap.String("environmentID", environment.ID),
			zap.Duration("duration", duration))
		return "", err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Environment created successfully",
		zap.String("environmentID", environment.ID),
		zap.Duration("duration", duration))
	return environment.ID, nil
}

func (dao *EnvironmentDAO) GetEnvironment(ctx context.Context, environmentID string) (*model.Environment, error) {
	environment, err := scanEnvironment(dao.DB.QueryRowContext(ctx,
		selectEnvironment+` WHERE id = $1 AND deleted_at IS NULL`, environmentID))
	if err != nil {
		return nil, mapReadError(err, "environment")
	}
	return environment, nil
}

// EnvironmentsForApplication returns the application's full live collection.
func (dao *EnvironmentDAO) EnvironmentsForApplication(ctx context.Context, applicationID string) ([]*model.Environment, error) {
	rows, err := dao.DB.QueryContext(ctx,
		selectEnvironment+` WHERE application_id = $1 AND deleted_at IS NULL ORDER BY name`,
		applicationID)
	if err != nil {
		return nil, mapReadError(err, "environment")
	}
	defer rows.Close()
	return scanEnvironments(rows)
}

// EnvironmentsForMember returns only environments the user holds a live CSP
// grant in, via their application role.
func (dao *EnvironmentDAO) EnvironmentsForMember(ctx context.Context, userID, applicationID string) ([]*model.Environment, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT e.id, e.application_id, e.portfolio_id, e.name, e.cloud_id, e.deleted_at, e.created_at, e.updated_at
		FROM environments e
		JOIN environment_roles er ON er.environment_id = e.id
		JOIN application_roles ar ON ar.id = er.application_role_id
		WHERE e.application_id = $1 AND e.deleted_at IS NULL
		  AND er.deleted_at IS NULL
		  AND ar.user_id = $2 AND ar.status = $3 AND ar.deleted_at IS NULL
		ORDER BY e.name`,
		applicationID, userID, model.RoleStatusActive)
	if err != nil {
		return nil, mapReadError(err, "environment")
	}
	defer rows.Close()
	return scanEnvironments(rows)
}

// UpdateEnvironment saves name/cloud edits under a row lock.
func (dao *EnvironmentDAO) UpdateEnvironment(ctx context.Context, actor audit.Actor, environment *model.Environment) error {
	start := time.Now()
	logger.Info("Updating environment", zap.String("environmentID", environment.ID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanEnvironment(tx.QueryRowContext(ctx,
			selectEnvironment+` WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, environment.ID))
		if err != nil {
			return mapReadError(err, "environment")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE environments SET name = $2, cloud_id = $3, updated_at = now()
			WHERE id = $1`,
			environment.ID, environment.Name, environment.CloudID)
		if err != nil {
			return mapWriteError(err, "environment")
		}

		committed, err = dao.AuditService.RecordUpdate(ctx, tx, actor, environment, audit.Diff(before, environment))
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update environment",
			zap.Error(err),
			zap.String("environmentID", environment.ID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Environment updated successfully",
		zap.String("environmentID", environment.ID),
		zap.Duration("duration", duration))
	return nil
}

// DeleteEnvironment soft-deletes the environment and its grants.
func (dao *EnvironmentDAO) DeleteEnvironment(ctx context.Context, actor audit.Actor, environmentID string) error {
	start := time.Now()
	logger.Info("Deleting environment", zap.String("environmentID", environmentID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanEnvironment(tx.QueryRowContext(ctx,
			selectEnvironment+` WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, environmentID))
		if err != nil {
			return mapReadError(err, "environment")
		}

		if _, err = tx.ExecContext(ctx, `
			UPDATE environment_roles SET deleted_at = now(), updated_at = now()
			WHERE environment_id = $1 AND deleted_at IS NULL`, environmentID); err != nil {
			return mapWriteError(err, "environment_role")
		}
		if _, err = tx.ExecContext(ctx, `
			UPDATE environments SET deleted_at = now(), updated_at = now()
			WHERE id = $1`, environmentID); err != nil {
			return mapWriteError(err, "environment")
		}

		committed, err = dao.AuditService.RecordDelete(ctx, tx, actor, before)
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete environment",
			zap.Error(err),
			zap.String("environmentID", environmentID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Environment deleted successfully",
		zap.String("environmentID", environmentID),
		zap.Duration("duration", duration))
	return nil
}
