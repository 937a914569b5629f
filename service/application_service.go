// api/service/application_service.go
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

// IApplicationService defines the interface for application operations
type IApplicationService interface {
	CreateApplication(ctx context.Context, actingUser *model.User, application model.Application) (*model.Application, error)
	GetApplication(ctx context.Context, actingUser *model.User, applicationID string) (*authz.ScopedApplication, error)
	ListApplications(ctx context.Context, actingUser *model.User, portfolioID string) ([]*model.Application, error)
	UpdateApplication(ctx context.Context, actingUser *model.User, application model.Application) (*model.Application, error)
	DeleteApplication(ctx context.Context, actingUser *model.User, applicationID string) error
}

// ApplicationService handles business logic for application operations
type ApplicationService struct {
	applicationDAO  *dao.ApplicationDAO
	resolver        *authz.Resolver
	scopes          authz.ScopeReader
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IApplicationService = &ApplicationService{}

// NewApplicationService creates a new instance of ApplicationService
func NewApplicationService(applicationDAO *dao.ApplicationDAO, resolver *authz.Resolver, scopes authz.ScopeReader, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *ApplicationService {
	service := &ApplicationService{
		applicationDAO:  applicationDAO,
		resolver:        resolver,
		scopes:          scopes,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("application.updated", service.handleApplicationUpdated)
	eventBus.Subscribe("application.deleted", service.handleApplicationDeleted)

	return service
}

func (s *ApplicationService) handleApplicationUpdated(ctx context.Context, event util.Event) error {
	application := event.Payload.(*model.Application)
	logger.Info("Application updated event received", zap.String("applicationID", application.ID))

	if err := s.cacheService.DeleteApplication(ctx, application.ID); err != nil {
		logger.Warn("Failed to invalidate application cache", zap.Error(err), zap.String("applicationID", application.ID))
	}
	if err := s.notificationSvc.NotifyApplicationChange(ctx, "updated", application); err != nil {
		logger.Warn("Failed to send application update notification", zap.Error(err))
	}
	return nil
}

func (s *ApplicationService) handleApplicationDeleted(ctx context.Context, event util.Event) error {
	applicationID := event.Payload.(string)
	logger.Info("Application deleted event received", zap.String("applicationID", applicationID))

	if err := s.cacheService.DeleteApplication(ctx, applicationID); err != nil {
		logger.Warn("Failed to invalidate application cache", zap.Error(err), zap.String("applicationID", applicationID))
	}
	return nil
}

// CreateApplication adds an application to a portfolio. Requires the
// portfolio-level create permission; a duplicate live name in the portfolio
// fails with AlreadyExistsError.
func (s *ApplicationService) CreateApplication(ctx context.Context, actingUser *model.User, application model.Application) (*model.Application, error) {
	if err := s.validationUtil.ValidateApplication(&application); err != nil {
		return nil, fmt.Errorf("invalid application: %w", err)
	}
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermCreateApplication, application.PortfolioID, "create application"); err != nil {
		return nil, err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	applicationID, err := s.applicationDAO.CreateApplication(ctx, actor, &application)
	if err != nil {
		logger.Error("Error creating application", zap.Error(err), zap.String("portfolioID", application.PortfolioID))
		return nil, err
	}
	application.ID = applicationID

	if err := s.cacheService.SetApplication(ctx, &application); err != nil {
		logger.Warn("Failed to cache application", zap.Error(err), zap.String("applicationID", applicationID))
	}

	s.eventBus.Publish(ctx, "application.created", &application)
	return &application, nil
}

// GetApplication returns the application as a scoped view. The view check
// cascades: a portfolio-level grant suffices, otherwise an active
// application role is required.
func (s *ApplicationService) GetApplication(ctx context.Context, actingUser *model.User, applicationID string) (*authz.ScopedApplication, error) {
	application, err := s.cacheService.GetApplication(ctx, applicationID)
	if err != nil || application == nil {
		application, err = s.applicationDAO.GetApplication(ctx, applicationID)
		if err != nil {
			return nil, err
		}
		if err := s.cacheService.SetApplication(ctx, application); err != nil {
			logger.Warn("Failed to cache application", zap.Error(err), zap.String("applicationID", applicationID))
		}
	}

	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermViewApplication,
		application.PortfolioID, application.ID, "view application"); err != nil {
		return nil, err
	}

	return authz.NewScopedApplication(application, actingUser, s.resolver, s.scopes), nil
}

// ListApplications returns the applications in the portfolio visible to the
// acting user, via the scoped-view query paths.
func (s *ApplicationService) ListApplications(ctx context.Context, actingUser *model.User, portfolioID string) ([]*model.Application, error) {
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermViewPortfolio, portfolioID, "view portfolio"); err != nil {
		return nil, err
	}

	ok, err := s.resolver.CanAccess(ctx, actingUser, model.PermViewApplication, authz.PortfolioTarget(portfolioID))
	if err != nil {
		return nil, err
	}
	if ok {
		return s.scopes.ApplicationsForPortfolio(ctx, portfolioID)
	}
	return s.scopes.ApplicationsForMember(ctx, actingUser.ID, portfolioID)
}

// UpdateApplication saves name/description edits.
func (s *ApplicationService) UpdateApplication(ctx context.Context, actingUser *model.User, application model.Application) (*model.Application, error) {
	if err := s.validationUtil.ValidateApplication(&application); err != nil {
		return nil, fmt.Errorf("invalid application: %w", err)
	}
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermEditApplication,
		application.PortfolioID, application.ID, "edit application"); err != nil {
		return nil, err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.applicationDAO.UpdateApplication(ctx, actor, &application); err != nil {
		logger.Error("Error updating application", zap.Error(err), zap.String("applicationID", application.ID))
		return nil, err
	}

	s.eventBus.Publish(ctx, "application.updated", &application)
	return &application, nil
}

// DeleteApplication soft-deletes the application and its environments.
func (s *ApplicationService) DeleteApplication(ctx context.Context, actingUser *model.User, applicationID string) error {
	application, err := s.applicationDAO.GetApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermDeleteApplication,
		application.PortfolioID, application.ID, "delete application"); err != nil {
		return err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.applicationDAO.DeleteApplication(ctx, actor, applicationID); err != nil {
		return err
	}

	s.eventBus.Publish(ctx, "application.deleted", applicationID)
	return nil
}
