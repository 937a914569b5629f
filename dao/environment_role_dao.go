// api/dao/environment_role_dao.go
package dao

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ccpo-cloud/atat/audit"
	atat_errors "github.com/ccpo-cloud/atat/errors"
	logger "github.com/ccpo-cloud/atat/logging"
	"github.com/ccpo-cloud/atat/model"
)

const selectEnvironmentRole = `
	SELECT er.id, er.environment_id, er.application_role_id, er.role, er.sync_status,
	       e.name, e.portfolio_id, e.application_id,
	       COALESCE(u.first_name || ' ' || u.last_name, ''),
	       er.deleted_at, er.created_at, er.updated_at
	FROM environment_roles er
	JOIN environments e ON e.id = er.environment_id
	JOIN application_roles ar ON ar.id = er.application_role_id
	LEFT JOIN users u ON u.id = ar.user_id`

func scanEnvironmentRole(row *sql.Row) (*model.EnvironmentRole, error) {
	var r model.EnvironmentRole
	err := row.Scan(&r.ID, &r.EnvironmentID, &r.ApplicationRoleID, &r.Role,
		&r.SyncStatus, &r.EnvironmentName, &r.PortfolioID, &r.ApplicationID,
		&r.UserName, &r.DeletedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateEnvironmentRole grants a CSP role to an application member in one
// environment. The grant starts in sync state pending until the provider
// reconciler confirms it.
func (dao *MemberDAO) CreateEnvironmentRole(ctx context.Context, actor audit.Actor, role *model.EnvironmentRole) (string, error) {
	start := time.Now()
	if !model.ValidCSPRole(role.Role) {
		return "", atat_errors.ErrInvalidResource
	}
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	role.SyncStatus = model.EnvRoleSyncPending
	logger.Info("Creating environment role",
		zap.String("roleID", role.ID),
		zap.String("environmentID", role.EnvironmentID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		member, err := scanApplicationRole(tx.QueryRowContext(ctx,
			selectApplicationRole+` WHERE r.id = $1 AND r.deleted_at IS NULL FOR UPDATE OF r`,
			role.ApplicationRoleID))
		if err != nil {
			return mapReadError(err, "application_role")
		}
		if member.Status == model.RoleStatusDisabled {
			return atat_errors.Disabled("application_role")
		}
		role.PortfolioID = member.PortfolioID
		role.ApplicationID = member.ApplicationID
		role.UserName = member.UserName

		_, err = tx.ExecContext(ctx, `
			INSERT INTO environment_roles (id, environment_id, application_role_id, role, sync_status)
			VALUES ($1, $2, $3, $4, $5)`,
			role.ID, role.EnvironmentID, role.ApplicationRoleID, role.Role, role.SyncStatus)
		if err != nil {
			return mapWriteError(err, "environment_role")
		}
		committed, err = dao.AuditService.RecordCreate(ctx, tx, actor, role)
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create environment role",
			zap.Error(err),
			zap.String("roleID", role.ID),
			zap.Duration("duration", duration))
		return "", err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Environment role created successfully",
		zap.String("roleID", role.ID),
		zap.Duration("duration", duration))
	return role.ID, nil
}

// UpdateEnvironmentRole changes the granted CSP role. The sync state drops
// back to pending so the reconciler re-pushes the grant.
func (dao *MemberDAO) UpdateEnvironmentRole(ctx context.Context, actor audit.Actor, roleID string, cspRole model.CSPRole) error {
	start := time.Now()
	if !model.ValidCSPRole(cspRole) {
		return atat_errors.ErrInvalidResource
	}
	logger.Info("Updating environment role", zap.String("roleID", roleID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanEnvironmentRole(tx.QueryRowContext(ctx,
			selectEnvironmentRole+` WHERE er.id = $1 AND er.deleted_at IS NULL FOR UPDATE OF er`, roleID))
		if err != nil {
			return mapReadError(err, "environment_role")
		}
		if before.SyncStatus == model.EnvRoleSyncDisabled {
			return atat_errors.Disabled("environment_role")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE environment_roles SET role = $2, sync_status = $3, updated_at = now()
			WHERE id = $1`,
			roleID, cspRole, model.EnvRoleSyncPending)
		if err != nil {
			return mapWriteError(err, "environment_role")
		}

		after := *before
		after.Role = cspRole
		after.SyncStatus = model.EnvRoleSyncPending
		committed, err = dao.AuditService.RecordUpdate(ctx, tx, actor, &after, audit.Diff(before, &after))
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update environment role",
			zap.Error(err),
			zap.String("roleID", roleID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Environment role updated successfully",
		zap.String("roleID", roleID),
		zap.Duration("duration", duration))
	return nil
}

// GetEnvironmentRole fetches a live grant by its ID.
func (dao *MemberDAO) GetEnvironmentRole(ctx context.Context, roleID string) (*model.EnvironmentRole, error) {
	role, err := scanEnvironmentRole(dao.DB.QueryRowContext(ctx,
		selectEnvironmentRole+` WHERE er.id = $1 AND er.deleted_at IS NULL`, roleID))
	if err != nil {
		return nil, mapReadError(err, "environment_role")
	}
	return role, nil
}

// MarkEnvironmentRoleSynced records the reconciler's confirmation. Sync
// bookkeeping is not a user-visible change, so no audit event.
func (dao *MemberDAO) MarkEnvironmentRoleSynced(ctx context.Context, roleID string) error {
	res, err := dao.DB.ExecContext(ctx, `
		UPDATE environment_roles SET sync_status = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL AND sync_status = $3`,
		roleID, model.EnvRoleSyncCompleted, model.EnvRoleSyncPending)
	if err != nil {
		return mapWriteError(err, "environment_role")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return atat_errors.NotFound("environment_role")
	}
	return nil
}

// DeleteEnvironmentRole revokes the grant (soft delete).
func (dao *MemberDAO) DeleteEnvironmentRole(ctx context.Context, actor audit.Actor, roleID string) error {
	start := time.Now()
	logger.Info("Deleting environment role", zap.String("roleID", roleID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanEnvironmentRole(tx.QueryRowContext(ctx,
			selectEnvironmentRole+` WHERE er.id = $1 AND er.deleted_at IS NULL FOR UPDATE OF er`, roleID))
		if err != nil {
			return mapReadError(err, "environment_role")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE environment_roles SET deleted_at = now(), updated_at = now()
			WHERE id = $1`, roleID)
		if err != nil {
			return mapWriteError(err, "environment_role")
		}

		committed, err = dao.AuditService.RecordDelete(ctx, tx, actor, before)
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete environment role",
			zap.Error(err),
			zap.String("roleID", roleID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Environment role deleted successfully",
		zap.String("roleID", roleID),
		zap.Duration("duration", duration))
	return nil
}

// EnvironmentRolesForMember lists one member's live grants across the
// application's environments.
func (dao *MemberDAO) EnvironmentRolesForMember(ctx context.Context, applicationRoleID string) ([]*model.EnvironmentRole, error) {
	rows, err := dao.DB.QueryContext(ctx,
		selectEnvironmentRole+` WHERE er.application_role_id = $1 AND er.deleted_at IS NULL ORDER BY e.name`,
		applicationRoleID)
	if err != nil {
		return nil, mapReadError(err, "environment_role")
	}
	defer rows.Close()

	var roles []*model.EnvironmentRole
	for rows.Next() {
		var r model.EnvironmentRole
		err := rows.Scan(&r.ID, &r.EnvironmentID, &r.ApplicationRoleID, &r.Role,
			&r.SyncStatus, &r.EnvironmentName, &r.PortfolioID, &r.ApplicationID,
			&r.UserName, &r.DeletedAt, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, mapReadError(err, "environment_role")
		}
		roles = append(roles, &r)
	}
	return roles, rows.Err()
}

// PendingEnvironmentRoles lists grants awaiting provider sync, oldest first.
func (dao *MemberDAO) PendingEnvironmentRoles(ctx context.Context, limit int) ([]*model.EnvironmentRole, error) {
	rows, err := dao.DB.QueryContext(ctx,
		selectEnvironmentRole+` WHERE er.sync_status = $1 AND er.deleted_at IS NULL
		ORDER BY er.updated_at LIMIT $2`,
		model.EnvRoleSyncPending, limit)
	if err != nil {
		return nil, mapReadError(err, "environment_role")
	}
	defer rows.Close()

	var roles []*model.EnvironmentRole
	for rows.Next() {
		var r model.EnvironmentRole
		err := rows.Scan(&r.ID, &r.EnvironmentID, &r.ApplicationRoleID, &r.Role,
			&r.SyncStatus, &r.EnvironmentName, &r.PortfolioID, &r.ApplicationID,
			&r.UserName, &r.DeletedAt, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, mapReadError(err, "environment_role")
		}
		roles = append(roles, &r)
	}
	return roles, rows.Err()
}
