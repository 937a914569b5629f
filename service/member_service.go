// api/service/member_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ccpo-cloud/atat/audit"
	"github.com/ccpo-cloud/atat/authz"
	"github.com/ccpo-cloud/atat/config"
	"github.com/ccpo-cloud/atat/dao"
	logger "github.com/ccpo-cloud/atat/logging"
	"github.com/ccpo-cloud/atat/model"
	"github.com/ccpo-cloud/atat/util"
)

// MemberInvite carries the invitee's identity snapshot and the permission
// sets the new role should hold on top of the defaults.
type MemberInvite struct {
	FirstName      string                    `json:"first_name"`
	LastName       string                    `json:"last_name"`
	Email          string                    `json:"email"`
	DodID          string                    `json:"dod_id"`
	PermissionSets []model.PermissionSetName `json:"permission_sets"`
}

// IMemberService defines the interface for member management: inviting,
// listing, regrading and disabling portfolio and application members.
type IMemberService interface {
	InvitePortfolioMember(ctx context.Context, actingUser *model.User, portfolioID string, invite MemberInvite) (*model.Invitation, error)
	InviteApplicationMember(ctx context.Context, actingUser *model.User, applicationID string, invite MemberInvite) (*model.Invitation, error)

	ListPortfolioMembers(ctx context.Context, actingUser *model.User, portfolioID string) ([]*model.PortfolioRole, error)
	ListApplicationMembers(ctx context.Context, actingUser *model.User, applicationID string) ([]*model.ApplicationRole, error)

	UpdatePortfolioMemberPermissionSets(ctx context.Context, actingUser *model.User, roleID string, names []model.PermissionSetName) error
	UpdateApplicationMemberPermissionSets(ctx context.Context, actingUser *model.User, roleID string, names []model.PermissionSetName) error

	DisablePortfolioMember(ctx context.Context, actingUser *model.User, roleID string) error
	DisableApplicationMember(ctx context.Context, actingUser *model.User, roleID string) error
}

// MemberService handles business logic for member management
type MemberService struct {
	memberDAO       *dao.MemberDAO
	invitationDAO   *dao.InvitationDAO
	userDAO         *dao.UserDAO
	portfolioDAO    *dao.PortfolioDAO
	applicationDAO  *dao.ApplicationDAO
	catalog         *authz.Catalog
	resolver        *authz.Resolver
	validationUtil  *util.ValidationUtil
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IMemberService = &MemberService{}

// NewMemberService creates a new instance of MemberService
func NewMemberService(memberDAO *dao.MemberDAO, invitationDAO *dao.InvitationDAO, userDAO *dao.UserDAO, portfolioDAO *dao.PortfolioDAO, applicationDAO *dao.ApplicationDAO, catalog *authz.Catalog, resolver *authz.Resolver, validationUtil *util.ValidationUtil, notificationSvc *util.NotificationService, eventBus *util.EventBus) *MemberService {
	service := &MemberService{
		memberDAO:       memberDAO,
		invitationDAO:   invitationDAO,
		userDAO:         userDAO,
		portfolioDAO:    portfolioDAO,
		applicationDAO:  applicationDAO,
		catalog:         catalog,
		resolver:        resolver,
		validationUtil:  validationUtil,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("member.disabled", service.handleMemberDisabled)

	return service
}

func (s *MemberService) handleMemberDisabled(ctx context.Context, event util.Event) error {
	email := event.Payload.(string)
	if email == "" {
		return nil
	}
	if err := s.notificationSvc.NotifyMemberChange(ctx, "disabled", email, ""); err != nil {
		logger.Warn("Failed to send member disabled notification", zap.Error(err))
	}
	return nil
}

func invitationExpiry() time.Time {
	minutes := config.GetInt("invitations.expirationMinutes")
	return time.Now().UTC().Add(time.Duration(minutes) * time.Minute)
}

// InvitePortfolioMember creates a pending portfolio role carrying the
// requested permission sets (defaults always included) and issues the
// invitation that will later activate it.
func (s *MemberService) InvitePortfolioMember(ctx context.Context, actingUser *model.User, portfolioID string, invite MemberInvite) (*model.Invitation, error) {
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermCreatePortfolioUsers, portfolioID, "invite portfolio member"); err != nil {
		return nil, err
	}

	portfolio, err := s.portfolioDAO.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	sets, err := s.catalog.WithPortfolioDefaults(invite.PermissionSets)
	if err != nil {
		return nil, err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	role := &model.PortfolioRole{
		PortfolioID:    portfolioID,
		PermissionSets: sets,
	}
	roleID, err := s.memberDAO.CreatePortfolioRole(ctx, actor, role)
	if err != nil {
		logger.Error("Error creating portfolio role for invite", zap.Error(err), zap.String("portfolioID", portfolioID))
		return nil, err
	}

	invitation := &model.Invitation{
		ResourceType: model.InvitationResourcePortfolio,
		RoleID:       roleID,
		PortfolioID:  portfolioID,
		DodID:        invite.DodID,
		FirstName:    invite.FirstName,
		LastName:     invite.LastName,
		Email:        invite.Email,
		InviterID:    actingUser.ID,
		ExpiresAt:    invitationExpiry(),
	}
	if err := s.validationUtil.ValidateInvitation(invitation); err != nil {
		return nil, fmt.Errorf("invalid invitation: %w", err)
	}
	if _, err := s.invitationDAO.CreateInvitation(ctx, actor, invitation); err != nil {
		return nil, err
	}

	if err := s.notificationSvc.SendInvitation(ctx, invitation, portfolio.Name); err != nil {
		logger.Warn("Failed to send invitation email",
			zap.Error(err),
			zap.String("invitationID", invitation.ID))
	}

	s.eventBus.Publish(ctx, "member.invited", invitation)
	return invitation, nil
}

// InviteApplicationMember is the application-scope counterpart of
// InvitePortfolioMember.
func (s *MemberService) InviteApplicationMember(ctx context.Context, actingUser *model.User, applicationID string, invite MemberInvite) (*model.Invitation, error) {
	application, err := s.applicationDAO.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermCreateApplicationMember,
		application.PortfolioID, applicationID, "invite application member"); err != nil {
		return nil, err
	}

	sets, err := s.catalog.WithApplicationDefaults(invite.PermissionSets)
	if err != nil {
		return nil, err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	role := &model.ApplicationRole{
		ApplicationID:  applicationID,
		PortfolioID:    application.PortfolioID,
		PermissionSets: sets,
	}
	roleID, err := s.memberDAO.CreateApplicationRole(ctx, actor, role)
	if err != nil {
		logger.Error("Error creating application role for invite", zap.Error(err), zap.String("applicationID", applicationID))
		return nil, err
	}

	invitation := &model.Invitation{
		ResourceType:  model.InvitationResourceApplication,
		RoleID:        roleID,
		PortfolioID:   application.PortfolioID,
		ApplicationID: applicationID,
		DodID:         invite.DodID,
		FirstName:     invite.FirstName,
		LastName:      invite.LastName,
		Email:         invite.Email,
		InviterID:     actingUser.ID,
		ExpiresAt:     invitationExpiry(),
	}
	if err := s.validationUtil.ValidateInvitation(invitation); err != nil {
		return nil, fmt.Errorf("invalid invitation: %w", err)
	}
	if _, err := s.invitationDAO.CreateInvitation(ctx, actor, invitation); err != nil {
		return nil, err
	}

	if err := s.notificationSvc.SendInvitation(ctx, invitation, application.Name); err != nil {
		logger.Warn("Failed to send invitation email",
			zap.Error(err),
			zap.String("invitationID", invitation.ID))
	}

	s.eventBus.Publish(ctx, "member.invited", invitation)
	return invitation, nil
}

// ListPortfolioMembers returns the roster with each member's display status
// derived from their role state and latest invitation.
func (s *MemberService) ListPortfolioMembers(ctx context.Context, actingUser *model.User, portfolioID string) ([]*model.PortfolioRole, error) {
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermViewPortfolioUsers, portfolioID, "view portfolio members"); err != nil {
		return nil, err
	}
	return s.memberDAO.ListPortfolioRoles(ctx, portfolioID)
}

// ListApplicationMembers returns the application roster.
func (s *MemberService) ListApplicationMembers(ctx context.Context, actingUser *model.User, applicationID string) ([]*model.ApplicationRole, error) {
	application, err := s.applicationDAO.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermViewApplicationMember,
		application.PortfolioID, applicationID, "view application members"); err != nil {
		return nil, err
	}
	return s.memberDAO.ListApplicationRoles(ctx, applicationID)
}

// UpdatePortfolioMemberPermissionSets replaces a member's grants. The
// defaults are unioned back in so no edit can strip the baseline.
func (s *MemberService) UpdatePortfolioMemberPermissionSets(ctx context.Context, actingUser *model.User, roleID string, names []model.PermissionSetName) error {
	role, err := s.memberDAO.GetPortfolioRole(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermEditPortfolioUsers, role.PortfolioID, "edit portfolio member"); err != nil {
		return err
	}

	sets, err := s.catalog.WithPortfolioDefaults(names)
	if err != nil {
		return err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	return s.memberDAO.UpdatePortfolioRolePermissionSets(ctx, actor, roleID, sets)
}

// UpdateApplicationMemberPermissionSets replaces an application member's
// grants, defaults included.
func (s *MemberService) UpdateApplicationMemberPermissionSets(ctx context.Context, actingUser *model.User, roleID string, names []model.PermissionSetName) error {
	role, err := s.memberDAO.GetApplicationRole(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermEditApplicationMember,
		role.PortfolioID, role.ApplicationID, "edit application member"); err != nil {
		return err
	}

	sets, err := s.catalog.WithApplicationDefaults(names)
	if err != nil {
		return err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	return s.memberDAO.UpdateApplicationRolePermissionSets(ctx, actor, roleID, sets)
}

// DisablePortfolioMember permanently revokes a member's portfolio access.
func (s *MemberService) DisablePortfolioMember(ctx context.Context, actingUser *model.User, roleID string) error {
	role, err := s.memberDAO.GetPortfolioRole(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermEditPortfolioUsers, role.PortfolioID, "disable portfolio member"); err != nil {
		return err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.memberDAO.DisablePortfolioRole(ctx, actor, roleID); err != nil {
		return err
	}

	s.eventBus.Publish(ctx, "member.disabled", s.memberEmail(ctx, role.UserID))
	return nil
}

// DisableApplicationMember permanently revokes a member's application access
// and disables their environment grants with it.
func (s *MemberService) DisableApplicationMember(ctx context.Context, actingUser *model.User, roleID string) error {
	role, err := s.memberDAO.GetApplicationRole(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermEditApplicationMember,
		role.PortfolioID, role.ApplicationID, "disable application member"); err != nil {
		return err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.memberDAO.DisableApplicationRole(ctx, actor, roleID); err != nil {
		return err
	}

	s.eventBus.Publish(ctx, "member.disabled", s.memberEmail(ctx, role.UserID))
	return nil
}

// memberEmail resolves a role's bound user to an email for notifications.
// Unbound roles (never-accepted invites) have nobody to notify.
func (s *MemberService) memberEmail(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}
	user, err := s.userDAO.GetUser(ctx, userID)
	if err != nil {
		return ""
	}
	return user.Email
}
