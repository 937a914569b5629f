// api/service/user_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ccpo-cloud/atat/audit"
	"github.com/ccpo-cloud/atat/authz"
	"github.com/ccpo-cloud/atat/dao"
	atat_errors "github.com/ccpo-cloud/atat/errors"
	logger "github.com/ccpo-cloud/atat/logging"
	"github.com/ccpo-cloud/atat/model"
	"github.com/ccpo-cloud/atat/util"
)

// IUserService defines the interface for user operations
type IUserService interface {
	RegisterLogin(ctx context.Context, profile model.User) (*model.User, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, actingUser *model.User, user model.User) (*model.User, error)
	SetGlobalPermissionSets(ctx context.Context, actingUser *model.User, userID string, names []model.PermissionSetName) error
}

// UserService handles business logic for user operations
type UserService struct {
	userDAO         *dao.UserDAO
	resolver        *authz.Resolver
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IUserService = &UserService{}

// NewUserService creates a new instance of UserService
func NewUserService(userDAO *dao.UserDAO, resolver *authz.Resolver, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *UserService {
	service := &UserService{
		userDAO:         userDAO,
		resolver:        resolver,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("user.updated", service.handleUserUpdated)

	return service
}

func (s *UserService) handleUserUpdated(ctx context.Context, event util.Event) error {
	user := event.Payload.(*model.User)
	logger.Info("User updated event received", zap.String("userID", user.ID))

	if err := s.cacheService.DeleteUser(ctx, user.ID); err != nil {
		logger.Warn("Failed to invalidate user cache", zap.Error(err), zap.String("userID", user.ID))
	}
	return nil
}

// RegisterLogin finds or creates the user for an authenticated DoD ID and
// stamps the login time. First login creates the account.
func (s *UserService) RegisterLogin(ctx context.Context, profile model.User) (*model.User, error) {
	if err := s.validationUtil.ValidateUser(&profile); err != nil {
		return nil, fmt.Errorf("invalid user: %w", err)
	}

	user, err := s.userDAO.GetUserByDodID(ctx, profile.DodID)
	if err != nil {
		if !atat_errors.IsNotFound(err) {
			logger.Error("Error looking up user", zap.Error(err), zap.String("dodID", profile.DodID))
			return nil, err
		}
		if _, err := s.userDAO.CreateUser(ctx, &profile); err != nil {
			return nil, err
		}
		user = &profile
	}

	if err := s.userDAO.TouchLastLogin(ctx, user.ID); err != nil {
		logger.Warn("Failed to record login time", zap.Error(err), zap.String("userID", user.ID))
	}

	if err := s.cacheService.SetUser(ctx, user); err != nil {
		logger.Warn("Failed to cache user", zap.Error(err), zap.String("userID", user.ID))
	}

	return user, nil
}

// GetUser retrieves a user by their ID
func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	// Try to get from cache first
	cachedUser, err := s.cacheService.GetUser(ctx, userID)
	if err == nil && cachedUser != nil {
		return cachedUser, nil
	}

	user, err := s.userDAO.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheService.SetUser(ctx, user); err != nil {
		logger.Warn("Failed to cache user", zap.Error(err), zap.String("userID", userID))
	}

	return user, nil
}

// UpdateProfile saves a user's own profile edits. Editing someone else's
// profile requires the CCPO user-management permission.
func (s *UserService) UpdateProfile(ctx context.Context, actingUser *model.User, user model.User) (*model.User, error) {
	if err := s.validationUtil.ValidateUser(&user); err != nil {
		return nil, fmt.Errorf("invalid user: %w", err)
	}

	if actingUser.ID != user.ID {
		if err := s.resolver.CheckGlobalAccess(ctx, actingUser, model.PermEditCCPOUser, "edit another user's profile"); err != nil {
			return nil, err
		}
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.userDAO.UpdateUser(ctx, actor, &user); err != nil {
		logger.Error("Error updating user", zap.Error(err), zap.String("userID", user.ID))
		return nil, err
	}

	s.eventBus.Publish(ctx, "user.updated", &user)

	logger.Info("User profile updated", zap.String("userID", user.ID), zap.String("updaterID", actingUser.ID))
	return &user, nil
}

// SetGlobalPermissionSets replaces a user's platform-wide grants. CCPO only.
func (s *UserService) SetGlobalPermissionSets(ctx context.Context, actingUser *model.User, userID string, names []model.PermissionSetName) error {
	if err := s.resolver.CheckGlobalAccess(ctx, actingUser, model.PermEditCCPOUser, "edit a user's global permission sets"); err != nil {
		return err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.userDAO.UpdateUserPermissionSets(ctx, actor, userID, names); err != nil {
		return err
	}

	if err := s.cacheService.DeleteUser(ctx, userID); err != nil {
		logger.Warn("Failed to invalidate user cache", zap.Error(err), zap.String("userID", userID))
	}

	s.eventBus.Publish(ctx, "user.permission_sets.updated", userID)
	return nil
}
