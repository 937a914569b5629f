// api/dao/member_dao.go
package dao

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ccpo-cloud/atat/audit"
	atat_errors "github.com/ccpo-cloud/atat/errors"
	logger "github.com/ccpo-cloud/atat/logging"
	"github.com/ccpo-cloud/atat/model"
)

// MemberDAO owns the role edges: portfolio, application and environment
// grants. Permission-set replacement and status transitions run under row
// locks so concurrent edits serialize and the audit diff matches what was
// replaced.
type MemberDAO struct {
	DB           *sql.DB
	AuditService *audit.Service
}

func NewMemberDAO(db *sql.DB, auditService *audit.Service) *MemberDAO {
	return &MemberDAO{DB: db, AuditService: auditService}
}

const selectPortfolioRole = `
	SELECT r.id, r.portfolio_id, COALESCE(r.user_id, ''), r.status,
	       array_to_string(r.permission_sets, ','),
	       COALESCE(u.first_name || ' ' || u.last_name, ''),
	       r.created_at, r.updated_at
	FROM portfolio_roles r
	LEFT JOIN users u ON u.id = r.user_id`

func scanPortfolioRole(row *sql.Row) (*model.PortfolioRole, error) {
	var r model.PortfolioRole
	var sets string
	err := row.Scan(&r.ID, &r.PortfolioID, &r.UserID, &r.Status, &sets,
		&r.UserName, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.PermissionSets = splitSetNames(sets)
	return &r, nil
}

const selectApplicationRole = `
	SELECT r.id, r.application_id, r.portfolio_id, COALESCE(r.user_id, ''), r.status,
	       array_to_string(r.permission_sets, ','),
	       COALESCE(u.first_name || ' ' || u.last_name, ''),
	       r.deleted_at, r.created_at, r.updated_at
	FROM application_roles r
	LEFT JOIN users u ON u.id = r.user_id`

func scanApplicationRole(row *sql.Row) (*model.ApplicationRole, error) {
	var r model.ApplicationRole
	var sets string
	err := row.Scan(&r.ID, &r.ApplicationID, &r.PortfolioID, &r.UserID,
		&r.Status, &sets, &r.UserName, &r.DeletedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.PermissionSets = splitSetNames(sets)
	return &r, nil
}

// CreatePortfolioRole inserts a new edge, normally pending and awaiting an
// invitation. A second live edge for the same (user, portfolio) pair fails
// with AlreadyExistsError.
func (dao *MemberDAO) CreatePortfolioRole(ctx context.Context, actor audit.Actor, role *model.PortfolioRole) (string, error) {
	start := time.Now()
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	if role.Status == "" {
		role.Status = model.RoleStatusPending
	}
	logger.Info("Creating portfolio role",
		zap.String("roleID", role.ID),
		zap.String("portfolioID", role.PortfolioID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO portfolio_roles (id, portfolio_id, user_id, status, permission_sets)
			VALUES ($1, $2, NULLIF($3, ''), $4, string_to_array(NULLIF($5, ''), ','))`,
			role.ID, role.PortfolioID, role.UserID, role.Status,
			joinSetNames(role.PermissionSets))
		if err != nil {
			return mapWriteError(err, "portfolio_role")
		}
		committed, err = dao.AuditService.RecordCreate(ctx, tx, actor, role)
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create portfolio role",
			zap.Error(err),
			zap.String("roleID", role.ID),
			zap.Duration("duration", duration))
		return "", err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Portfolio role created successfully",
		zap.String("roleID", role.ID),
		zap.Duration("duration", duration))
	return role.ID, nil
}

// PortfolioRoleFor returns the user's edge in the portfolio, or (nil, nil)
// when no edge exists. Absence is not an error: the resolver treats it as
// "no permission".
func (dao *MemberDAO) PortfolioRoleFor(ctx context.Context, userID, portfolioID string) (*model.PortfolioRole, error) {
	role, err := scanPortfolioRole(dao.DB.QueryRowContext(ctx,
		selectPortfolioRole+` WHERE r.user_id = $1 AND r.portfolio_id = $2`,
		userID, portfolioID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapReadError(err, "portfolio_role")
	}
	return role, nil
}

func (dao *MemberDAO) GetPortfolioRole(ctx context.Context, roleID string) (*model.PortfolioRole, error) {
	role, err := scanPortfolioRole(dao.DB.QueryRowContext(ctx,
		selectPortfolioRole+` WHERE r.id = $1`, roleID))
	if err != nil {
		return nil, mapReadError(err, "portfolio_role")
	}
	return role, nil
}

// ListPortfolioRoles returns every member edge of the portfolio with the
// latest invitation attached, for member display status.
func (dao *MemberDAO) ListPortfolioRoles(ctx context.Context, portfolioID string) ([]*model.PortfolioRole, error) {
	rows, err := dao.DB.QueryContext(ctx,
		selectPortfolioRole+` WHERE r.portfolio_id = $1 ORDER BY r.created_at`, portfolioID)
	if err != nil {
		return nil, mapReadError(err, "portfolio_role")
	}
	defer rows.Close()

	var roles []*model.PortfolioRole
	for rows.Next() {
		var r model.PortfolioRole
		var sets string
		err := rows.Scan(&r.ID, &r.PortfolioID, &r.UserID, &r.Status, &sets,
			&r.UserName, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, mapReadError(err, "portfolio_role")
		}
		r.PermissionSets = splitSetNames(sets)
		roles = append(roles, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapReadError(err, "portfolio_role")
	}

	for _, r := range roles {
		inv, err := dao.latestInvitationForRole(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		r.LatestInvitation = inv
	}
	return roles, nil
}

// UpdatePortfolioRolePermissionSets replaces the edge's sets. Disabled edges
// reject the update; the collection change is audited as one
// permission_sets diff.
func (dao *MemberDAO) UpdatePortfolioRolePermissionSets(ctx context.Context, actor audit.Actor, roleID string, names []model.PermissionSetName) error {
	start := time.Now()
	logger.Info("Updating portfolio role permission sets", zap.String("roleID", roleID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanPortfolioRole(tx.QueryRowContext(ctx,
			selectPortfolioRole+` WHERE r.id = $1 FOR UPDATE OF r`, roleID))
		if err != nil {
			return mapReadError(err, "portfolio_role")
		}
		if before.Status == model.RoleStatusDisabled {
			return atat_errors.Disabled("portfolio_role")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE portfolio_roles
			SET permission_sets = string_to_array(NULLIF($2, ''), ','), updated_at = now()
			WHERE id = $1`,
			roleID, joinSetNames(names))
		if err != nil {
			return mapWriteError(err, "portfolio_role")
		}

		after := *before
		after.PermissionSets = names
		committed, err = dao.AuditService.RecordUpdate(ctx, tx, actor, &after,
			audit.DiffPermissionSets(before.PermissionSets, names))
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update portfolio role permission sets",
			zap.Error(err),
			zap.String("roleID", roleID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Portfolio role permission sets updated successfully",
		zap.String("roleID", roleID),
		zap.Duration("duration", duration))
	return nil
}

// DisablePortfolioRole revokes membership. Disabling is terminal; a disabled
// edge grants nothing and cannot be re-enabled.
func (dao *MemberDAO) DisablePortfolioRole(ctx context.Context, actor audit.Actor, roleID string) error {
	start := time.Now()
	logger.Info("Disabling portfolio role", zap.String("roleID", roleID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanPortfolioRole(tx.QueryRowContext(ctx,
			selectPortfolioRole+` WHERE r.id = $1 FOR UPDATE OF r`, roleID))
		if err != nil {
			return mapReadError(err, "portfolio_role")
		}
		if before.Status == model.RoleStatusDisabled {
			return atat_errors.Disabled("portfolio_role")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE portfolio_roles SET status = $2, updated_at = now() WHERE id = $1`,
			roleID, model.RoleStatusDisabled)
		if err != nil {
			return mapWriteError(err, "portfolio_role")
		}

		after := *before
		after.Status = model.RoleStatusDisabled
		committed, err = dao.AuditService.RecordUpdate(ctx, tx, actor, &after, audit.Diff(before, &after))
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to disable portfolio role",
			zap.Error(err),
			zap.String("roleID", roleID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Portfolio role disabled successfully",
		zap.String("roleID", roleID),
		zap.Duration("duration", duration))
	return nil
}

// CreateApplicationRole mirrors CreatePortfolioRole at the application level.
func (dao *MemberDAO) CreateApplicationRole(ctx context.Context, actor audit.Actor, role *model.ApplicationRole) (string, error) {
	start := time.Now()
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	if role.Status == "" {
		role.Status = model.RoleStatusPending
	}
	logger.Info("Creating application role",
		zap.String("roleID", role.ID),
		zap.String("applicationID", role.ApplicationID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO application_roles (id, application_id, portfolio_id, user_id, status, permission_sets)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, string_to_array(NULLIF($6, ''), ','))`,
			role.ID, role.ApplicationID, role.PortfolioID, role.UserID,
			role.Status, joinSetNames(role.PermissionSets))
		if err != nil {
			return mapWriteError(err, "application_role")
		}
		committed, err = dao.AuditService.RecordCreate(ctx, tx, actor, role)
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create application role",
			zap.Error(err),
			zap.String("roleID", role.ID),
			zap.Duration("duration", duration))
		return "", err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Application role created successfully",
		zap.String("roleID", role.ID),
		zap.Duration("duration", duration))
	return role.ID, nil
}

// ApplicationRoleFor returns the user's live edge in the application, or
// (nil, nil) when none exists.
func (dao *MemberDAO) ApplicationRoleFor(ctx context.Context, userID, applicationID string) (*model.ApplicationRole, error) {
	role, err := scanApplicationRole(dao.DB.QueryRowContext(ctx,
		selectApplicationRole+` WHERE r.user_id = $1 AND r.application_id = $2 AND r.deleted_at IS NULL`,
		userID, applicationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapReadError(err, "application_role")
	}
	return role, nil
}

func (dao *MemberDAO) GetApplicationRole(ctx context.Context, roleID string) (*model.ApplicationRole, error) {
	role, err := scanApplicationRole(dao.DB.QueryRowContext(ctx,
		selectApplicationRole+` WHERE r.id = $1 AND r.deleted_at IS NULL`, roleID))
	if err != nil {
		return nil, mapReadError(err, "application_role")
	}
	return role, nil
}

// ListApplicationRoles returns the application's member edges with their
// latest invitations.
func (dao *MemberDAO) ListApplicationRoles(ctx context.Context, applicationID string) ([]*model.ApplicationRole, error) {
	rows, err := dao.DB.QueryContext(ctx,
		selectApplicationRole+` WHERE r.application_id = $1 AND r.deleted_at IS NULL ORDER BY r.created_at`,
		applicationID)
	if err != nil {
		return nil, mapReadError(err, "application_role")
	}
	defer rows.Close()

	var roles []*model.ApplicationRole
	for rows.Next() {
		var r model.ApplicationRole
		var sets string
		err := rows.Scan(&r.ID, &r.ApplicationID, &r.PortfolioID, &r.UserID,
			&r.Status, &sets, &r.UserName, &r.DeletedAt, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, mapReadError(err, "application_role")
		}
		r.PermissionSets = splitSetNames(sets)
		roles = append(roles, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapReadError(err, "application_role")
	}

	for _, r := range roles {
		inv, err := dao.latestInvitationForRole(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		r.LatestInvitation = inv
	}
	return roles, nil
}

// UpdateApplicationRolePermissionSets replaces the edge's sets under a row
// lock.
func (dao *MemberDAO) UpdateApplicationRolePermissionSets(ctx context.Context, actor audit.Actor, roleID string, names []model.PermissionSetName) error {
	start := time.Now()
	logger.Info("Updating application role permission sets", zap.String("roleID", roleID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanApplicationRole(tx.QueryRowContext(ctx,
			selectApplicationRole+` WHERE r.id = $1 AND r.deleted_at IS NULL FOR UPDATE OF r`, roleID))
		if err != nil {
			return mapReadError(err, "application_role")
		}
		if before.Status == model.RoleStatusDisabled {
			return atat_errors.Disabled("application_role")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE application_roles
			SET permission_sets = string_to_array(NULLIF($2, ''), ','), updated_at = now()
			WHERE id = $1`,
			roleID, joinSetNames(names))
		if err != nil {
			return mapWriteError(err, "application_role")
		}

		after := *before
		after.PermissionSets = names
		committed, err = dao.AuditService.RecordUpdate(ctx, tx, actor, &after,
			audit.DiffPermissionSets(before.PermissionSets, names))
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to update application role permission sets",
			zap.Error(err),
			zap.String("roleID", roleID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Application role permission sets updated successfully",
		zap.String("roleID", roleID),
		zap.Duration("duration", duration))
	return nil
}

// DisableApplicationRole revokes application membership and disables the
// member's environment grants with it.
func (dao *MemberDAO) DisableApplicationRole(ctx context.Context, actor audit.Actor, roleID string) error {
	start := time.Now()
	logger.Info("Disabling application role", zap.String("roleID", roleID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		before, err := scanApplicationRole(tx.QueryRowContext(ctx,
			selectApplicationRole+` WHERE r.id = $1 AND r.deleted_at IS NULL FOR UPDATE OF r`, roleID))
		if err != nil {
			return mapReadError(err, "application_role")
		}
		if before.Status == model.RoleStatusDisabled {
			return atat_errors.Disabled("application_role")
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE application_roles SET status = $2, updated_at = now() WHERE id = $1`,
			roleID, model.RoleStatusDisabled)
		if err != nil {
			return mapWriteError(err, "application_role")
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE environment_roles SET sync_status = $2, updated_at = now()
			WHERE application_role_id = $1 AND deleted_at IS NULL`,
			roleID, model.EnvRoleSyncDisabled)
		if err != nil {
			return mapWriteError(err, "environment_role")
		}

		after := *before
		after.Status = model.RoleStatusDisabled
		committed, err = dao.AuditService.RecordUpdate(ctx, tx, actor, &after, audit.Diff(before, &after))
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to disable application role",
			zap.Error(err),
			zap.String("roleID", roleID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Application role disabled successfully",
		zap.String("roleID", roleID),
		zap.Duration("duration", duration))
	return nil
}

// TransferPortfolioOwnership moves the point-of-contact set from one member
// edge to another in a single transaction. Both rows are locked in a fixed
// order so two concurrent transfers serialize instead of deadlocking.
func (dao *MemberDAO) TransferPortfolioOwnership(ctx context.Context, actor audit.Actor, portfolioID, fromRoleID, toRoleID string) error {
	start := time.Now()
	logger.Info("Transferring portfolio ownership",
		zap.String("portfolioID", portfolioID),
		zap.String("fromRoleID", fromRoleID),
		zap.String("toRoleID", toRoleID))

	if fromRoleID == toRoleID {
		return atat_errors.ErrInvalidResource
	}

	var events []*audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		lockOrder := []string{fromRoleID, toRoleID}
		if toRoleID < fromRoleID {
			lockOrder = []string{toRoleID, fromRoleID}
		}
		locked := map[string]*model.PortfolioRole{}
		for _, id := range lockOrder {
			role, err := scanPortfolioRole(tx.QueryRowContext(ctx,
				selectPortfolioRole+` WHERE r.id = $1 FOR UPDATE OF r`, id))
			if err != nil {
				return mapReadError(err, "portfolio_role")
			}
			locked[id] = role
		}
		from, to := locked[fromRoleID], locked[toRoleID]

		if from.PortfolioID != portfolioID || to.PortfolioID != portfolioID {
			return atat_errors.ErrInvalidResource
		}
		if !from.HasPermissionSet(model.PermSetPortfolioPOC) {
			return atat_errors.NotFound("portfolio_poc")
		}
		if !to.IsActive() {
			return atat_errors.Disabled("portfolio_role")
		}

		fromSets := withoutSetName(from.PermissionSets, model.PermSetPortfolioPOC)
		toSets := withSetName(to.PermissionSets, model.PermSetPortfolioPOC)

		for _, step := range []struct {
			role *model.PortfolioRole
			sets []model.PermissionSetName
		}{{from, fromSets}, {to, toSets}} {
			_, err := tx.ExecContext(ctx, `
				UPDATE portfolio_roles
				SET permission_sets = string_to_array(NULLIF($2, ''), ','), updated_at = now()
				WHERE id = $1`,
				step.role.ID, joinSetNames(step.sets))
			if err != nil {
				return mapWriteError(err, "portfolio_role")
			}
			after := *step.role
			after.PermissionSets = step.sets
			event, err := dao.AuditService.RecordUpdate(ctx, tx, actor, &after,
				audit.DiffPermissionSets(step.role.PermissionSets, step.sets))
			if err != nil {
				return err
			}
			events = append(events, event)
		}
		return nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to transfer portfolio ownership",
			zap.Error(err),
			zap.String("portfolioID", portfolioID),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(events...)
	logger.Info("Portfolio ownership transferred successfully",
		zap.String("portfolioID", portfolioID),
		zap.Duration("duration", duration))
	return nil
}

func (dao *MemberDAO) latestInvitationForRole(ctx context.Context, roleID string) (*model.Invitation, error) {
	inv, err := scanInvitation(dao.DB.QueryRowContext(ctx,
		selectInvitation+` WHERE role_id = $1 ORDER BY created_at DESC LIMIT 1`, roleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapReadError(err, "invitation")
	}
	return inv, nil
}
