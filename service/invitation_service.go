// api/service/invitation_service.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ccpo-cloud/atat/audit"
	"github.com/ccpo-cloud/atat/authz"
	"github.com/ccpo-cloud/atat/dao"
	logger "github.com/ccpo-cloud/atat/logging"
	"github.com/ccpo-cloud/atat/model"
	"github.com/ccpo-cloud/atat/util"
)

// IInvitationService defines the interface for the invitation lifecycle
type IInvitationService interface {
	GetInvitation(ctx context.Context, token string) (*model.Invitation, error)
	AcceptInvitation(ctx context.Context, actingUser *model.User, token string) (*model.Invitation, error)
	RevokeInvitation(ctx context.Context, actingUser *model.User, token string) error
	ResendInvitation(ctx context.Context, actingUser *model.User, token string, email string) (*model.Invitation, error)
}

// InvitationService handles business logic for invitations
type InvitationService struct {
	invitationDAO   *dao.InvitationDAO
	resolver        *authz.Resolver
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IInvitationService = &InvitationService{}

// NewInvitationService creates a new instance of InvitationService
func NewInvitationService(invitationDAO *dao.InvitationDAO, resolver *authz.Resolver, notificationSvc *util.NotificationService, eventBus *util.EventBus) *InvitationService {
	return &InvitationService{
		invitationDAO:   invitationDAO,
		resolver:        resolver,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}
}

// GetInvitation looks up an invitation by its token. Possession of the token
// is the credential here; the invitee has no role yet to check against.
func (s *InvitationService) GetInvitation(ctx context.Context, token string) (*model.Invitation, error) {
	return s.invitationDAO.GetInvitationByToken(ctx, token)
}

// AcceptInvitation consumes the token for the acting user. A rejection
// (expired, wrong user, already consumed) surfaces as an error even though
// the status write underneath it has committed.
func (s *InvitationService) AcceptInvitation(ctx context.Context, actingUser *model.User, token string) (*model.Invitation, error) {
	invitation, err := s.invitationDAO.AcceptInvitation(ctx, actingUser, token, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	logger.Info("Invitation accepted",
		zap.String("invitationID", invitation.ID),
		zap.String("userID", actingUser.ID))
	s.eventBus.Publish(ctx, "invitation.accepted", invitation)
	return invitation, nil
}

// RevokeInvitation withdraws a pending invitation. Requires member-edit
// access at the invitation's scope.
func (s *InvitationService) RevokeInvitation(ctx context.Context, actingUser *model.User, token string) error {
	invitation, err := s.invitationDAO.GetInvitationByToken(ctx, token)
	if err != nil {
		return err
	}
	if err := s.checkManageAccess(ctx, actingUser, invitation); err != nil {
		return err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.invitationDAO.RevokeInvitation(ctx, actor, token); err != nil {
		return err
	}

	s.eventBus.Publish(ctx, "invitation.revoked", invitation.ID)
	return nil
}

// ResendInvitation rotates the token and pushes the expiry window forward,
// optionally redirecting the invite to a corrected email address.
func (s *InvitationService) ResendInvitation(ctx context.Context, actingUser *model.User, token string, email string) (*model.Invitation, error) {
	invitation, err := s.invitationDAO.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkManageAccess(ctx, actingUser, invitation); err != nil {
		return nil, err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	resent, err := s.invitationDAO.ResendInvitation(ctx, actor, token, email, invitationExpiry())
	if err != nil {
		return nil, err
	}

	if err := s.notificationSvc.SendInvitation(ctx, resent, ""); err != nil {
		logger.Warn("Failed to send invitation email",
			zap.Error(err),
			zap.String("invitationID", resent.ID))
	}

	s.eventBus.Publish(ctx, "invitation.resent", resent)
	return resent, nil
}

// checkManageAccess requires member-edit permission at the invitation's own
// scope: portfolio invitations need portfolio user edit, application
// invitations need application member edit.
func (s *InvitationService) checkManageAccess(ctx context.Context, actingUser *model.User, invitation *model.Invitation) error {
	switch invitation.ResourceType {
	case model.InvitationResourceApplication:
		return s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermEditApplicationMember,
			invitation.PortfolioID, invitation.ApplicationID, "manage application invitation")
	default:
		return s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermEditPortfolioUsers,
			invitation.PortfolioID, "manage portfolio invitation")
	}
}
