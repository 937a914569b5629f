// api/dao/portfolio_dao.go
package dao

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ccpo-cloud/atat/audit"
	atat_errors "github.com/ccpo-cloud/atat/errors"
	logger "github.com/ccpo-cloud/atat/logging"
	"github.com/ccpo-cloud/atat/model"
)

type PortfolioDAO struct {
	DB           *sql.DB
	AuditService *audit.Service
}

func NewPortfolioDAO(db *sql.DB, auditService *audit.Service) *PortfolioDAO {
	return &PortfolioDAO{DB: db, AuditService: auditService}
}

const selectPortfolio = `
	SELECT id, name, description, created_at, updated_at
	FROM portfolios`

func scanPortfolio(row *sql.Row) (*model.Portfolio, error) {
	var p model.Portfolio
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePortfolio inserts the portfolio together with the owner's active
// PPoC role edge, atomically. The owner role arrives with its permission
// sets already resolved.
func (dao *PortfolioDAO) CreatePortfolio(ctx context.Context, actor audit.Actor, portfolio *model.Portfolio, ownerRole *model.PortfolioRole) (string, error) {
	start := time.Now()
	if portfolio.ID == "" {
		portfolio.ID = uuid.New().String()
	}
	logger.Info("Creating new portfolio",
		zap.String("portfolioID", portfolio.ID),
		zap.String("name", portfolio.Name))

	var events []*audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO portfolios (id, name, description)
			VALUES ($1, $2, $3)`,
			portfolio.ID, portfolio.Name, portfolio.Description)
		if err != nil {
			return mapWriteError(err, "portfolio")
		}
		created, err := dao.AuditService.RecordCreate(ctx, tx, actor, portfolio)
		if err != nil {
			return err
		}
		events = append(events, created)

		if ownerRole != nil {
			if ownerRole.ID == "" {
				ownerRole.ID = uuid.New().String()
			}
			ownerRole.PortfolioID = portfolio.ID
			ownerRole.Status = model.RoleStatusActive
			_, err = tx.ExecContext(ctx, `
				INSERT INTO portfolio_roles (id, portfolio_id, user_id, status, permission_sets)
				VALUES ($1, $2, $3, $4, string_to_array(NULLIF($5, ''), ','))`,
				ownerRole.ID, portfolio.ID, ownerRole.UserID, ownerRole.Status,
				joinSetNames(ownerRole.PermissionSets))
			if err != nil {
				return mapWriteError(err, "portfolio_role")
			}
			created, err = dao.AuditService.RecordCreate(ctx, tx, actor, ownerRole)
			if err != nil {
				return err
			}
			events = append(events, created)
		}
		return nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create portfolio",
			zap.Error(err),
			zap.String("portfolioID", portfolio.ID),
			zap.Duration("duration", duration))
		return "", err
	}

	dao.AuditService.IndexCommitted(events...)
	logger.Info("Portfolio created successfully",
		zap.String("portfolioID", portfolio.ID),
		zap.Duration("duration", duration))
	return portfolio.ID, nil
}

func (dao *PortfolioDAO) GetPortfolio(ctx context.Context, portfolioID string) (*model.Portfolio, error) {
	portfolio, err := scanPortfolio(dao.DB.QueryRowContext(ctx, selectPortfolio+` WHERE id = $1`, portfolioID))
	if err != nil {
		return nil, mapReadError(err, "portfolio")
	}
	return portfolio, nil
}

// ListPortfoliosForUser returns the portfolios the user is an active member
// of, name-ordered.
func (dao *PortfolioDAO) ListPortfoliosForUser(ctx context.Context, userID string) ([]*model.Portfolio, error) {
	rows, err := dao.DB.QueryContext(ctx, `
		SELECT p.id, p.name, p.description, p.created_at, p.updated_at
		FROM portfolios p
		JOIN portfolio_roles r ON r.portfolio_id = p.id
		WHERE r.user_id = $1 AND r.status = $2
		ORDER BY p.name`,
		userID, model.RoleStatusActive)
	if err != nil {
		return nil, mapReadError(err, "portfolio")
	}
	defer rows.Close()

	var portfolios []*model.Portfolio
	for rows.Next() {
		var p model.Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, mapReadError(err, "portfolio")
		}
		portfolios = append(portfolios, &p)
	}
	return portfolios, rows.Err()
}

// ListAllPortfolios returns every portfolio; CCPO-only surface.
func (dao *PortfolioDAO) ListAllPortfolios(ctx context.Context) ([]*model.Portfolio, error) {
	rows, err := dao.DB.QueryContext(ctx, selectPortfolio+` ORDER BY name`)
	if err != nil {
		return nil, mapReadError(err, "portfolio")
	}
	defer rows.Close()

	var portfolios []*model.Portfolio
	for rows.Next() {
		var p model.Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, mapReadError(err, "portfolio")
		}
		portfolios = append(portfolios, &p)
	}
	return portfolios, rows.Err()
}

// UpdatePortfolio saves name/description edits under a row lock, diffing
// against the locked before-image.
func (dao *PortfolioDAO) UpdatePortfolio(ctx context.Context, actor audit.Actor, portfolio *model.Portfolio) error {
	start := time.Now()
	logger.Info("Updating portfolio", zap.String("portfolioID", portfolio.ID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanPortfolio(tx.QueryRowContext(ctx, selectPortfolio+` WHERE id = $1 FOR UPDATE`, portfolio.ID))
		if err != nil {
			return mapReadError(err, "portfolio")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE portfolios SET name = $2, description = $3, updated_at = now()
			WHERE id = $1`,
			portfolio.ID, portfolio.Name, portfolio.Description)
		if err != nil {
			return mapWriteError(err, "portfolio")
		}

		committed, err = dao.AuditService.RecordUpdate(ctx, tx, actor, portfolio, audit.Diff(before, portfolio))
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update portfolio",
			zap.Error(err),
			zap.String("portfolioID", portfolio.ID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Portfolio updated successfully",
		zap.String("portfolioID", portfolio.ID),
		zap.Duration("duration", duration))
	return nil
}

// DeletePortfolio removes a portfolio that has no live applications left.
func (dao *PortfolioDAO) DeletePortfolio(ctx context.Context, actor audit.Actor, portfolioID string) error {
	start := time.Now()
	logger.Info("Deleting portfolio", zap.String("portfolioID", portfolioID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanPortfolio(tx.QueryRowContext(ctx, selectPortfolio+` WHERE id = $1 FOR UPDATE`, portfolioID))
		if err != nil {
			return mapReadError(err, "portfolio")
		}

		var live int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM applications
			WHERE portfolio_id = $1 AND deleted_at IS NULL`, portfolioID).Scan(&live)
		if err != nil {
			return mapReadError(err, "application")
		}
		if live > 0 {
			return fmt.Errorf("%w: portfolio %s still has %d live applications",
				atat_errors.ErrInvalidResource, portfolioID, live)
		}

		if _, err = tx.ExecContext(ctx, `DELETE FROM portfolio_roles WHERE portfolio_id = $1`, portfolioID); err != nil {
			return mapWriteError(err, "portfolio_role")
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1`, portfolioID); err != nil {
			return mapWriteError(err, "portfolio")
		}

		committed, err = dao.AuditService.RecordDelete(ctx, tx, actor, before)
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete portfolio",
			zap.Error(err),
			zap.String("portfolioID", portfolioID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Portfolio deleted successfully",
		zap.String("portfolioID", portfolioID),
		zap.Duration("duration", duration))
	return nil
}
