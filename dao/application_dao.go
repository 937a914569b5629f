// api/dao/application_dao.go
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

type ApplicationDAO struct {
	DB           *sql.DB
	AuditService *audit.Service
}

func NewApplicationDAO(db *sql.DB, auditService *audit.Service) *ApplicationDAO {
	return &ApplicationDAO{DB: db, AuditService: auditService}
}

const selectApplication = `
	SELECT id, portfolio_id, name, description, deleted_at, created_at, updated_at
	FROM applications`

func scanApplication(row *sql.Row) (*model.Application, error) {
	var a model.Application
	err := row.Scan(&a.ID, &a.PortfolioID, &a.Name, &a.Description,
		&a.DeletedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanApplications(rows *sql.Rows) ([]*model.Application, error) {
	var apps []*model.Application
	for rows.Next() {
		var a model.Application
		err := rows.Scan(&a.ID, &a.PortfolioID, &a.Name, &a.Description,
			&a.DeletedAt, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, mapReadError(err, "application")
		}
		apps = append(apps, &a)
	}
	return apps, rows.Err()
}

// CreateApplication inserts an application. A duplicate live name within the
// portfolio surfaces as AlreadyExistsError from the partial unique index.
func (dao *ApplicationDAO) CreateApplication(ctx context.Context, actor audit.Actor, application *model.Application) (string, error) {
	start := time.Now()
	if application.ID == "" {
		application.ID = uuid.New().String()
	}
	logger.Info("Creating new application",
		zap.String("applicationID", application.ID),
		zap.String("portfolioID", application.PortfolioID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO applications (id, portfolio_id, name, description)
			VALUES ($1, $2, $3, $4)`,
			application.ID, application.PortfolioID, application.Name, application.Description)
		if err != nil {
			return mapWriteError(err, "application")
		}
		committed, err = dao.AuditService.RecordCreate(ctx, tx, actor, application)
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create application",
			zap.Error(err),
			zap.String("applicationID", application.ID),
			zap.Duration("duration", duration))
		return "", err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Application created successfully",
		zap.String("applicationID", application.ID),
		zap.Duration("duration", duration))
	return application.ID, nil
}

// GetApplication returns a live application; soft-deleted rows read as
// missing.
func (dao *ApplicationDAO) GetApplication(ctx context.Context, applicationID string) (*model.Application, error) {
	application, err := scanApplication(dao.DB.QueryRowContext(ctx,
		selectApplication+` WHERE id = $1 AND deleted_at IS NULL`, applicationID))
	if err != nil {
		return nil, mapReadError(err, "application")
	}
	return application, nil
}

// PortfolioIDForApplication resolves the owning portfolio for the resolver's
// cascade step.
func (dao *ApplicationDAO) PortfolioIDForApplication(ctx context.Context, applicationID string) (string, error) {
	var portfolioID string
	err := dao.DB.QueryRowContext(ctx,
		`SELECT portfolio_id FROM applications WHERE id = $1 AND deleted_at IS NULL`,
		applicationID).Scan(&portfolioID)
	if err != nil {
		return "", mapReadError(err, "application")
	}
	return portfolioID, nil
}

// ApplicationsForPortfolio returns the portfolio's full live collection.
func (dao *ApplicationDAO) ApplicationsForPortfolio(ctx context.Context, portfolioID string) ([]*model.Application, error) {
	rows, err := dao.DB.QueryContext(ctx,
		selectApplication+` WHERE portfolio_id = $1 AND deleted_at IS NULL ORDER BY name`,
		portfolioID)
	if err != nil {
		return nil, mapReadError(err, "application")
	}
	defer rows.Close()
	return scanApplications(rows)
}

// ApplicationsForMember returns just the applications the user has an active
// role in. This is the scoped view's fallback path and must stay a single
// query.
func (dao *ApplicationDAO) ApplicationsForMember(ctx context.Context, userID, portfolioID string) ([]*model.Application, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT a.id, a.portfolio_id, a.name, a.description, a.deleted_at, a.created_at, a.updated_at
		FROM applications a
		JOIN application_roles r ON r.application_id = a.id
		WHERE a.portfolio_id = $1 AND a.deleted_at IS NULL
		  AND r.user_id = $2 AND r.status = $3 AND r.deleted_at IS NULL
		ORDER BY a.name`,
		portfolioID, userID, model.RoleStatusActive)
	if err != nil {
		return nil, mapReadError(err, "application")
	}
	defer rows.Close()
	return scanApplications(rows)
}

// UpdateApplication saves name/description edits under a row lock.
func (dao *ApplicationDAO) UpdateApplication(ctx context.Context, actor audit.Actor, application *model.Application) error {
	start := time.Now()
	logger.Info("Updating application", zap.String("applicationID", application.ID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanApplication(tx.QueryRowContext(ctx,
			selectApplication+` WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, application.ID))
		if err != nil {
			return mapReadError(err, "application")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE applications SET name = $2, description = $3, updated_at = now()
			WHERE id = $1`,
			application.ID, application.Name, application.Description)
		if err != nil {
			return mapWriteError(err, "application")
		}

		committed, err = dao.AuditService.RecordUpdate(ctx, tx, actor, application, audit.Diff(before, application))
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update application",
			zap.Error(err),
			zap.String("applicationID", application.ID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Application updated successfully",
		zap.String("applicationID", application.ID),
		zap.Duration("duration", duration))
	return nil
}

// DeleteApplication soft-deletes the application and its environments.
func (dao *ApplicationDAO) DeleteApplication(ctx context.Context, actor audit.Actor, applicationID string) error {
	start := time.Now()
	logger.Info("Deleting application", zap.String("applicationID", applicationID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanApplication(tx.QueryRowContext(ctx,
			selectApplication+` WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, applicationID))
		if err != nil {
			return mapReadError(err, "application")
		}

		if _, err = tx.ExecContext(ctx, `
			UPDATE environments SET deleted_at = now(), updated_at = now()
			WHERE application_id = $1 AND deleted_at IS NULL`, applicationID); err != nil {
			return mapWriteError(err, "environment")
		}
		if _, err = tx.ExecContext(ctx, `
			UPDATE applications SET deleted_at = now(), updated_at = now()
			WHERE id = $1`, applicationID); err != nil {
			return mapWriteError(err, "application")
		}

		committed, err = dao.AuditService.RecordDelete(ctx, tx, actor, before)
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete application",
			zap.Error(err),
			zap.String("applicationID", applicationID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Application deleted successfully",
		zap.String("applicationID", applicationID),
		zap.Duration("duration", duration))
	return nil
}
