// api/dao/invitation_dao.go
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

type InvitationDAO struct {
	DB           *sql.DB
	AuditService *audit.Service
}

func NewInvitationDAO(db *sql.DB, auditService *audit.Service) *InvitationDAO {
	return &InvitationDAO{DB: db, AuditService: auditService}
}

const selectInvitation = `
	SELECT id, resource_type, role_id, portfolio_id, COALESCE(application_id, ''),
	       token, status, COALESCE(user_id, ''), dod_id, first_name, last_name,
	       email, inviter_id, expires_at, created_at, updated_at
	FROM invitations`

func scanInvitation(row *sql.Row) (*model.Invitation, error) {
	var i model.Invitation
	err := row.Scan(&i.ID, &i.ResourceType, &i.RoleID, &i.PortfolioID,
		&i.ApplicationID, &i.Token, &i.Status, &i.UserID, &i.DodID,
		&i.FirstName, &i.LastName, &i.Email, &i.InviterID, &i.ExpiresAt,
		&i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// CreateInvitation issues a fresh invitation for a role edge. Any invitation
// still pending for the same edge is revoked first, so at most one pending
// invitation exists per edge by construction. Token collisions are caught by
// the unique constraint, not in-process checks.
func (dao *InvitationDAO) CreateInvitation(ctx context.Context, actor audit.Actor, invitation *model.Invitation) (string, error) {
	start := time.Now()
	if invitation.ID == "" {
		invitation.ID = uuid.New().String()
	}
	if invitation.Token == "" {
		token, err := model.NewInvitationToken()
		if err != nil {
			return "", err
		}
		invitation.Token = token
	}
	invitation.Status = model.InvitationStatusPending
	logger.Info("Creating invitation",
		zap.String("invitationID", invitation.ID),
		zap.String("roleID", invitation.RoleID))

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE invitations SET status = $2, updated_at = now()
			WHERE role_id = $1 AND status = $3`,
			invitation.RoleID, model.InvitationStatusRevoked, model.InvitationStatusPending)
		if err != nil {
			return mapWriteError(err, "invitation")
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO invitations
				(id, resource_type, role_id, portfolio_id, application_id, token,
				 status, user_id, dod_id, first_name, last_name, email, inviter_id, expires_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, NULLIF($8, ''),
				$9, $10, $11, $12, $13, $14)`,
			invitation.ID, invitation.ResourceType, invitation.RoleID,
			invitation.PortfolioID, invitation.ApplicationID, invitation.Token,
			invitation.Status, invitation.UserID, invitation.DodID,
			invitation.FirstName, invitation.LastName, invitation.Email,
			invitation.InviterID, invitation.ExpiresAt)
		if err != nil {
			return mapWriteError(err, "invitation")
		}
		committed, err = dao.AuditService.RecordCreate(ctx, tx, actor, invitation)
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to create invitation",
			zap.Error(err),
			zap.String("invitationID", invitation.ID),
			zap.Duration("duration", duration))
		return "", err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Invitation created successfully",
		zap.String("invitationID", invitation.ID),
		zap.Duration("duration", duration))
	return invitation.ID, nil
}

func (dao *InvitationDAO) GetInvitationByToken(ctx context.Context, token string) (*model.Invitation, error) {
	invitation, err := scanInvitation(dao.DB.QueryRowContext(ctx,
		selectInvitation+` WHERE token = $1`, token))
	if err != nil {
		return nil, mapReadError(err, "invitation")
	}
	return invitation, nil
}

// AcceptInvitation consumes the token and activates the role edge. Identity
// and expiry failures are not pure rejections: the invitation is moved into
// the matching rejected status (and that write commits) before the error is
// returned, so the member list reflects what happened.
func (dao *InvitationDAO) AcceptInvitation(ctx context.Context, actingUser *model.User, token string, now time.Time) (*model.Invitation, error) {
	start := time.Now()
	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}

	var accepted *model.Invitation
	var rejectionErr error
	var events []*audit.Event

	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		invitation, err := scanInvitation(tx.QueryRowContext(ctx,
			selectInvitation+` WHERE token = $1 FOR UPDATE`, token))
		if err != nil {
			return mapReadError(err, "invitation")
		}

		if !invitation.IsPending() {
			rejectionErr = atat_errors.InvalidInvitationStatus(invitation.ID, string(invitation.Status))
			return nil
		}

		if invitation.IsExpiredAt(now) {
			events, err = dao.rejectLocked(ctx, tx, actor, invitation, model.InvitationStatusRejectedExpired)
			if err != nil {
				return err
			}
			rejectionErr = atat_errors.Expired(invitation.ID)
			return nil
		}

		if invitation.DodID != actingUser.DodID {
			events, err = dao.rejectLocked(ctx, tx, actor, invitation, model.InvitationStatusRejectedWrongUser)
			if err != nil {
				return err
			}
			rejectionErr = atat_errors.WrongUser(actingUser.ID, invitation.ID)
			return nil
		}

		before := *invitation
		invitation.Status = model.InvitationStatusAccepted
		invitation.UserID = actingUser.ID
		_, err = tx.ExecContext(ctx, `
			UPDATE invitations SET status = $2, user_id = $3, updated_at = now()
			WHERE id = $1`,
			invitation.ID, invitation.Status, invitation.UserID)
		if err != nil {
			return mapWriteError(err, "invitation")
		}
		created, err := dao.AuditService.RecordUpdate(ctx, tx, actor, invitation, audit.Diff(&before, invitation))
		if err != nil {
			return err
		}
		events = append(events, created)

		roleEvent, err := dao.activateRoleLocked(ctx, tx, actor, invitation, actingUser)
		if err != nil {
			return err
		}
		events = append(events, roleEvent)

		accepted = invitation
		return nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to accept invitation",
			zap.Error(err),
			zap.String("userID", actingUser.ID),
			zap.Duration("duration", duration))
		return nil, err
	}

	dao.AuditService.IndexCommitted(events...)
	if rejectionErr != nil {
		logger.Warn("Invitation accept rejected",
			zap.Error(rejectionErr),
			zap.String("userID", actingUser.ID),
			zap.Duration("duration", duration))
		return nil, rejectionErr
	}

	logger.Info("Invitation accepted successfully",
		zap.String("invitationID", accepted.ID),
		zap.String("userID", actingUser.ID),
		zap.Duration("duration", duration))
	return accepted, nil
}

func (dao *InvitationDAO) rejectLocked(ctx context.Context, tx *sql.Tx, actor audit.Actor, invitation *model.Invitation, status model.InvitationStatus) ([]*audit.Event, error) {
	before := *invitation
	invitation.Status = status
	_, err := tx.ExecContext(ctx, `
		UPDATE invitations SET status = $2, updated_at = now() WHERE id = $1`,
		invitation.ID, status)
	if err != nil {
		return nil, mapWriteError(err, "invitation")
	}
	event, err := dao.AuditService.RecordUpdate(ctx, tx, actor, invitation, audit.Diff(&before, invitation))
	if err != nil {
		return nil, err
	}
	return []*audit.Event{event}, nil
}

// activateRoleLocked flips the invitation's role edge to active and binds the
// user if the edge was created for a not-yet-registered identity.
func (dao *InvitationDAO) activateRoleLocked(ctx context.Context, tx *sql.Tx, actor audit.Actor, invitation *model.Invitation, actingUser *model.User) (*audit.Event, error) {
	switch invitation.ResourceType {
	case model.InvitationResourcePortfolio:
		before, err := scanPortfolioRole(tx.QueryRowContext(ctx,
			selectPortfolioRole+` WHERE r.id = $1 FOR UPDATE OF r`, invitation.RoleID))
		if err != nil {
			return nil, mapReadError(err, "portfolio_role")
		}
		if before.Status == model.RoleStatusDisabled {
			return nil, atat_errors.Disabled("portfolio_role")
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE portfolio_roles SET status = $2, user_id = $3, updated_at = now()
			WHERE id = $1`,
			invitation.RoleID, model.RoleStatusActive, actingUser.ID)
		if err != nil {
			return nil, mapWriteError(err, "portfolio_role")
		}
		after := *before
		after.Status = model.RoleStatusActive
		after.UserID = actingUser.ID
		after.UserName = actingUser.FullName()
		return dao.AuditService.RecordUpdate(ctx, tx, actor, &after, audit.Diff(before, &after))

	case model.InvitationResourceApplication:
		before, err := scanApplicationRole(tx.QueryRowContext(ctx,
			selectApplicationRole+` WHERE r.id = $1 AND r.deleted_at IS NULL FOR UPDATE OF r`, invitation.RoleID))
		if err != nil {
			return nil, mapReadError(err, "application_role")
		}
		if before.Status == model.RoleStatusDisabled {
			return nil, atat_errors.Disabled("application_role")
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE application_roles SET status = $2, user_id = $3, updated_at = now()
			WHERE id = $1`,
			invitation.RoleID, model.RoleStatusActive, actingUser.ID)
		if err != nil {
			return nil, mapWriteError(err, "application_role")
		}
		after := *before
		after.Status = model.RoleStatusActive
		after.UserID = actingUser.ID
		after.UserName = actingUser.FullName()
		return dao.AuditService.RecordUpdate(ctx, tx, actor, &after, audit.Diff(before, &after))
	}
	return nil, atat_errors.ErrInvalidResource
}

// RevokeInvitation sets the invitation revoked. Revoking one that already
// left the pending state is a no-op rather than an error.
func (dao *InvitationDAO) RevokeInvitation(ctx context.Context, actor audit.Actor, token string) error {
	start := time.Now()

	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		invitation, err := scanInvitation(tx.QueryRowContext(ctx,
			selectInvitation+` WHERE token = $1 FOR UPDATE`, token))
		if err != nil {
			return mapReadError(err, "invitation")
		}
		if invitation.IsRevoked() {
			return nil
		}

		before := *invitation
		invitation.Status = model.InvitationStatusRevoked
		_, err = tx.ExecContext(ctx, `
			UPDATE invitations SET status = $2, updated_at = now() WHERE id = $1`,
			invitation.ID, invitation.Status)
		if err != nil {
			return mapWriteError(err, "invitation")
		}
		committed, err = dao.AuditService.RecordUpdate(ctx, tx, actor, invitation, audit.Diff(&before, invitation))
		return err
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to revoke invitation",
			zap.Error(err),
			zap.Duration("duration", duration))
		return err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Invitation revoked successfully", zap.Duration("duration", duration))
	return nil
}

// ResendInvitation replaces the token and expiry in place, making the old
// token unusable, and refreshes the invitee contact snapshot. Only
// invitations whose CanResend holds may be resent.
func (dao *InvitationDAO) ResendInvitation(ctx context.Context, actor audit.Actor, token string, email string, expiresAt time.Time) (*model.Invitation, error) {
	start := time.Now()

	var resent *model.Invitation
	var committed *audit.Event
	err := inTx(ctx, dao.DB, func(tx *sql.Tx) error {
		invitation, err := scanInvitation(tx.QueryRowContext(ctx,
			selectInvitation+` WHERE token = $1 FOR UPDATE`, token))
		if err != nil {
			return mapReadError(err, "invitation")
		}
		if !invitation.CanResend() {
			return atat_errors.InvalidInvitationStatus(invitation.ID, string(invitation.Status))
		}

		newToken, err := model.NewInvitationToken()
		if err != nil {
			return err
		}

		before := *invitation
		invitation.Token = newToken
		invitation.Status = model.InvitationStatusPending
		invitation.ExpiresAt = expiresAt
		if email != "" {
			invitation.Email = email
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE invitations
			SET token = $2, status = $3, expires_at = $4, email = $5, updated_at = now()
			WHERE id = $1`,
			invitation.ID, invitation.Token, invitation.Status,
			invitation.ExpiresAt, invitation.Email)
		if err != nil {
			return mapWriteError(err, "invitation")
		}

		committed, err = dao.AuditService.RecordUpdate(ctx, tx, actor, invitation, audit.Diff(&before, invitation))
		if err != nil {
			return err
		}
		resent = invitation
		return nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to resend invitation",
			zap.Error(err),
			zap.Duration("duration", duration))
		return nil, err
	}

	dao.AuditService.IndexCommitted(committed)
	logger.Info("Invitation resent successfully",
		zap.String("invitationID", resent.ID),
		zap.Duration("duration", duration))
	return resent, nil
}
