// api/dao/task_order_dao.go
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

type TaskOrderDAO struct {
	DB           *sql.DB
	AuditService *audit.Service
}

func NewTaskOrderDAO(db *sql.DB, auditService *audit.Service) *TaskOrderDAO {
	return &TaskOrderDAO{DB: db, AuditService: auditService}
}

const selectTaskOrder = `
	SELECT id, portfolio_id, number,
	       COALESCE(contracting_officer_id, ''),
	       COALESCE(contracting_officer_representative_id, ''),
	       COALESCE(security_officer_id, ''),
	       start_date, end_date, signed_at, created_at, updated_at
	FROM task_orders`

func scanTaskOrder(row *sql.Row) (*model.TaskOrder, error) {
	var t model.TaskOrder
	err := row.Scan(&t.ID, &t.PortfolioID, &t.Number,
		&t.ContractingOfficerID, &t.ContractingOfficerRepID, &t.SecurityOfficerID,
		&t.StartDate, &t.EndDate, &t.SignedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (dao *TaskOrderDAO) CreateTaskOrder(ctx context.Context, actor audit.Actor, taskOrder *model.TaskOrder) (string, error) {
	start := time.Now()
	if taskOrder.ID == "" {
		taskOrder.ID = uuid.New().String()
	}
	logger.Info("Creating task order",
		zap.String("taskOrderID", taskOrder.ID),
		zap.String("portfolioID", taskOrder.PortfolioID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO task_orders
				(id, portfolio_id, number, contracting_officer_id,
				 contracting_officer_representative_id, security_officer_id,
				 start_date, end_date, signed_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)`,
			taskOrder.ID, taskOrder.PortfolioID, taskOrder.Number,
			taskOrder.ContractingOfficerID, taskOrder.ContractingOfficerRepID,
			taskOrder.SecurityOfficerID, taskOrder.StartDate, taskOrder.EndDate,
			taskOrder.SignedAt)
		if err != nil {
			return mapWriteError(err, "task_order")
		}
		committed, err = dao.AuditService.RecordCreate(ctx, tx, actor, taskOrder)
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create task order",
			zap.Error(err),
			zap.String("taskOrderID", taskOrder.ID),
			zap.Duration("duration", duration))
		return "", err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Task order created successfully",
		zap.String("taskOrderID", taskOrder.ID),
		zap.Duration("duration", duration))
	return taskOrder.ID, nil
}

func (dao *TaskOrderDAO) GetTaskOrder(ctx context.Context, taskOrderID string) (*model.TaskOrder, error) {
	taskOrder, err := scanTaskOrder(dao.DB.QueryRowContext(ctx,
		selectTaskOrder+` WHERE id = $1`, taskOrderID))
	if err != nil {
		return nil, mapReadError(err, "task_order")
	}
	return taskOrder, nil
}

// TaskOrdersForPortfolio lists the portfolio's funding vehicles, for both the
// funding pages and the officer identity checks.
func (dao *TaskOrderDAO) TaskOrdersForPortfolio(ctx context.Context, portfolioID string) ([]*model.TaskOrder, error) {
	rows, err := dao.DB.QueryContext(ctx,
		selectTaskOrder+` WHERE portfolio_id = $1 ORDER BY created_at`, portfolioID)
	if err != nil {
		return nil, mapReadError(err, "task_order")
	}
	defer rows.Close()

	var orders []*model.TaskOrder
	for rows.Next() {
		var t model.TaskOrder
		err := rows.Scan(&t.ID, &t.PortfolioID, &t.Number,
			&t.ContractingOfficerID, &t.ContractingOfficerRepID, &t.SecurityOfficerID,
			&t.StartDate, &t.EndDate, &t.SignedAt, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, mapReadError(err, "task_order")
		}
		orders = append(orders, &t)
	}
	return orders, rows.Err()
}

// UpdateTaskOrder saves detail edits under a row lock. Officer reassignments
// are surfaced through event details rather than the column diff.
func (dao *TaskOrderDAO) UpdateTaskOrder(ctx context.Context, actor audit.Actor, taskOrder *model.TaskOrder) error {
	start := time.Now()
	logger.Info("Updating task order", zap.String("taskOrderID", taskOrder.ID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanTaskOrder(tx.QueryRowContext(ctx,
			selectTaskOrder+` WHERE id = $1 FOR UPDATE`, taskOrder.ID))
		if err != nil {
			return mapReadError(err, "task_order")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE task_orders
			SET number = $2, contracting_officer_id = NULLIF($3, ''),
			    contracting_officer_representative_id = NULLIF($4, ''),
			    security_officer_id = NULLIF($5, ''),
			    start_date = $6, end_date = $7, signed_at = $8, updated_at = now()
			WHERE id = $1`,
			taskOrder.ID, taskOrder.Number, taskOrder.ContractingOfficerID,
			taskOrder.ContractingOfficerRepID, taskOrder.SecurityOfficerID,
			taskOrder.StartDate, taskOrder.EndDate, taskOrder.SignedAt)
		if err != nil {
			return mapWriteError(err, "task_order")
		}

		committed, err = dao.AuditService.RecordUpdate(ctx, tx, actor, taskOrder, audit.Diff(before, taskOrder))
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update task order",
			zap.Error(err),
			zap.String("taskOrderID", taskOrder.ID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Task order updated successfully",
		zap.String("taskOrderID", taskOrder.ID),
		zap.Duration("duration", duration))
	return nil
}
