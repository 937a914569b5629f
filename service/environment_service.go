// api/service/environment_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ccpo-cloud/atat/audit"
	"github.com/ccpo-cloud/atat/authz"
	"github.com/ccpo-cloud/atat/dao"
	logger "github.com/ccpo-cloud/atat/logging"
	"github.com/ccpo-cloud/atat/model"
	"github.com/ccpo-cloud/atat/util"
)

// IEnvironmentService defines the interface for environment operations and
// environment-level CSP grants
type IEnvironmentService interface {
	CreateEnvironment(ctx context.Context, actingUser *model.User, environment model.Environment) (*model.Environment, error)
	UpdateEnvironment(ctx context.Context, actingUser *model.User, environment model.Environment) (*model.Environment, error)
	DeleteEnvironment(ctx context.Context, actingUser *model.User, environmentID string) error

	AssignEnvironmentRole(ctx context.Context, actingUser *model.User, role model.EnvironmentRole) (*model.EnvironmentRole, error)
	UpdateEnvironmentRole(ctx context.Context, actingUser *model.User, roleID string, cspRole model.CSPRole) error
	RevokeEnvironmentRole(ctx context.Context, actingUser *model.User, roleID string) error
	MemberEnvironmentRoles(ctx context.Context, actingUser *model.User, applicationRoleID string) ([]*model.EnvironmentRole, error)
	PendingEnvironmentRoles(ctx context.Context, limit int) ([]*model.EnvironmentRole, error)
	MarkEnvironmentRoleSynced(ctx context.Context, roleID string) error
}

// EnvironmentService handles business logic for environments and their CSP
// role grants
type EnvironmentService struct {
	environmentDAO *dao.EnvironmentDAO
	memberDAO      *dao.MemberDAO
	resolver       *authz.Resolver
	validationUtil *util.ValidationUtil
	eventBus       *util.EventBus
}

var _ IEnvironmentService = &EnvironmentService{}

// NewEnvironmentService creates a new instance of EnvironmentService
func NewEnvironmentService(environmentDAO *dao.EnvironmentDAO, memberDAO *dao.MemberDAO, resolver *authz.Resolver, validationUtil *util.ValidationUtil, eventBus *util.EventBus) *EnvironmentService {
	return &EnvironmentService{
		environmentDAO: environmentDAO,
		memberDAO:      memberDAO,
		resolver:       resolver,
		validationUtil: validationUtil,
		eventBus:       eventBus,
	}
}

// CreateEnvironment adds an environment to an application.
func (s *EnvironmentService) CreateEnvironment(ctx context.Context, actingUser *model.User, environment model.Environment) (*model.Environment, error) {
	if err := s.validationUtil.ValidateEnvironment(&environment); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermCreateEnvironment,
		environment.PortfolioID, environment.ApplicationID, "create environment"); err != nil {
		return nil, err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	environmentID, err := s.environmentDAO.CreateEnvironment(ctx, actor, &environment)
	if err != nil {
		logger.Error("Error creating environment", zap.Error(err), zap.String("applicationID", environment.ApplicationID))
		return nil, err
	}
	environment.ID = environmentID

	s.eventBus.Publish(ctx, "environment.created", &environment)
	return &environment, nil
}

// UpdateEnvironment saves environment edits.
func (s *EnvironmentService) UpdateEnvironment(ctx context.Context, actingUser *model.User, environment model.Environment) (*model.Environment, error) {
	if err := s.validationUtil.ValidateEnvironment(&environment); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermEditEnvironment,
		environment.PortfolioID, environment.ApplicationID, "edit environment"); err != nil {
		return nil, err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.environmentDAO.UpdateEnvironment(ctx, actor, &environment); err != nil {
		return nil, err
	}

	s.eventBus.Publish(ctx, "environment.updated", &environment)
	return &environment, nil
}

// DeleteEnvironment soft-deletes the environment and its grants.
func (s *EnvironmentService) DeleteEnvironment(ctx context.Context, actingUser *model.User, environmentID string) error {
	environment, err := s.environmentDAO.GetEnvironment(ctx, environmentID)
	if err != nil {
		return err
	}
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermDeleteEnvironment,
		environment.PortfolioID, environment.ApplicationID, "delete environment"); err != nil {
		return err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.environmentDAO.DeleteEnvironment(ctx, actor, environmentID); err != nil {
		return err
	}

	s.eventBus.Publish(ctx, "environment.deleted", environmentID)
	return nil
}

// AssignEnvironmentRole grants a member a CSP role in one environment. The
// grant stays pending until the provider reconciler confirms it.
func (s *EnvironmentService) AssignEnvironmentRole(ctx context.Context, actingUser *model.User, role model.EnvironmentRole) (*model.EnvironmentRole, error) {
	environment, err := s.environmentDAO.GetEnvironment(ctx, role.EnvironmentID)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermAssignEnvironmentMember,
		environment.PortfolioID, environment.ApplicationID, "assign environment member"); err != nil {
		return nil, err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	roleID, err := s.memberDAO.CreateEnvironmentRole(ctx, actor, &role)
	if err != nil {
		logger.Error("Error assigning environment role", zap.Error(err), zap.String("environmentID", role.EnvironmentID))
		return nil, err
	}
	role.ID = roleID

	s.eventBus.Publish(ctx, "environment_role.created", &role)
	return &role, nil
}

// UpdateEnvironmentRole changes the CSP role tier of an existing grant.
func (s *EnvironmentService) UpdateEnvironmentRole(ctx context.Context, actingUser *model.User, roleID string, cspRole model.CSPRole) error {
	role, err := s.memberRoleScope(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermAssignEnvironmentMember,
		role.PortfolioID, role.ApplicationID, "assign environment member"); err != nil {
		return err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	return s.memberDAO.UpdateEnvironmentRole(ctx, actor, roleID, cspRole)
}

// RevokeEnvironmentRole removes a member's grant in one environment.
func (s *EnvironmentService) RevokeEnvironmentRole(ctx context.Context, actingUser *model.User, roleID string) error {
	role, err := s.memberRoleScope(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermAssignEnvironmentMember,
		role.PortfolioID, role.ApplicationID, "assign environment member"); err != nil {
		return err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.memberDAO.DeleteEnvironmentRole(ctx, actor, roleID); err != nil {
		return err
	}

	s.eventBus.Publish(ctx, "environment_role.deleted", roleID)
	return nil
}

// MemberEnvironmentRoles lists one member's grants across the application.
func (s *EnvironmentService) MemberEnvironmentRoles(ctx context.Context, actingUser *model.User, applicationRoleID string) ([]*model.EnvironmentRole, error) {
	member, err := s.memberDAO.GetApplicationRole(ctx, applicationRoleID)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermViewApplicationMember,
		member.PortfolioID, member.ApplicationID, "view application member"); err != nil {
		return nil, err
	}
	return s.memberDAO.EnvironmentRolesForMember(ctx, applicationRoleID)
}

// PendingEnvironmentRoles feeds the provider reconciler; no user-level guard.
func (s *EnvironmentService) PendingEnvironmentRoles(ctx context.Context, limit int) ([]*model.EnvironmentRole, error) {
	return s.memberDAO.PendingEnvironmentRoles(ctx, limit)
}

// MarkEnvironmentRoleSynced records provider confirmation.
func (s *EnvironmentService) MarkEnvironmentRoleSynced(ctx context.Context, roleID string) error {
	return s.memberDAO.MarkEnvironmentRoleSynced(ctx, roleID)
}

// memberRoleScope loads a grant so its denormalized portfolio and
// application IDs can drive the permission check.
func (s *EnvironmentService) memberRoleScope(ctx context.Context, environmentRoleID string) (*model.EnvironmentRole, error) {
	return s.memberDAO.GetEnvironmentRole(ctx, environmentRoleID)
}
