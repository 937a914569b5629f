// api/service/portfolio_service.go
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

// IPortfolioService defines the interface for portfolio operations
type IPortfolioService interface {
	CreatePortfolio(ctx context.Context, actingUser *model.User, portfolio model.Portfolio) (*model.Portfolio, error)
	GetPortfolio(ctx context.Context, actingUser *model.User, portfolioID string) (*authz.ScopedPortfolio, error)
	ListPortfolios(ctx context.Context, actingUser *model.User) ([]*model.Portfolio, error)
	UpdatePortfolio(ctx context.Context, actingUser *model.User, portfolio model.Portfolio) (*model.Portfolio, error)
	DeletePortfolio(ctx context.Context, actingUser *model.User, portfolioID string) error
	TransferOwnership(ctx context.Context, actingUser *model.User, portfolioID, newOwnerRoleID string) error
}

// PortfolioService handles business logic for portfolio operations
type PortfolioService struct {
	portfolioDAO    *dao.PortfolioDAO
	memberDAO       *dao.MemberDAO
	catalog         *authz.Catalog
	resolver        *authz.Resolver
	scopes          authz.ScopeReader
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
}

var _ IPortfolioService = &PortfolioService{}

// NewPortfolioService creates a new instance of PortfolioService
func NewPortfolioService(portfolioDAO *dao.PortfolioDAO, memberDAO *dao.MemberDAO, catalog *authz.Catalog, resolver *authz.Resolver, scopes authz.ScopeReader, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus) *PortfolioService {
	service := &PortfolioService{
		portfolioDAO:    portfolioDAO,
		memberDAO:       memberDAO,
		catalog:         catalog,
		resolver:        resolver,
		scopes:          scopes,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
	}

	eventBus.Subscribe("portfolio.updated", service.handlePortfolioUpdated)

	return service
}

func (s *PortfolioService) handlePortfolioUpdated(ctx context.Context, event util.Event) error {
	portfolio := event.Payload.(*model.Portfolio)
	logger.Info("Portfolio updated event received", zap.String("portfolioID", portfolio.ID))

	if err := s.cacheService.DeletePortfolio(ctx, portfolio.ID); err != nil {
		logger.Warn("Failed to invalidate portfolio cache", zap.Error(err), zap.String("portfolioID", portfolio.ID))
	}
	if err := s.notificationSvc.NotifyPortfolioChange(ctx, "updated", portfolio); err != nil {
		logger.Warn("Failed to send portfolio update notification", zap.Error(err))
	}
	return nil
}

// CreatePortfolio creates the portfolio with the acting user installed as its
// point of contact: an active role carrying the PPoC set on top of the
// defaults.
func (s *PortfolioService) CreatePortfolio(ctx context.Context, actingUser *model.User, portfolio model.Portfolio) (*model.Portfolio, error) {
	if err := s.validationUtil.ValidatePortfolio(&portfolio); err != nil {
		return nil, fmt.Errorf("invalid portfolio: %w", err)
	}

	ownerSets, err := s.catalog.WithPortfolioDefaults([]model.PermissionSetName{
		model.PermSetPortfolioPOC,
		model.PermSetEditPortfolioApplicationManagement,
		model.PermSetEditPortfolioFunding,
		model.PermSetEditPortfolioReports,
		model.PermSetEditPortfolioAdmin,
	})
	if err != nil {
		return nil, err
	}

	ownerRole := &model.PortfolioRole{
		UserID:         actingUser.ID,
		UserName:       actingUser.FullName(),
		PermissionSets: ownerSets,
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	portfolioID, err := s.portfolioDAO.CreatePortfolio(ctx, actor, &portfolio, ownerRole)
	if err != nil {
		logger.Error("Error creating portfolio", zap.Error(err), zap.String("userID", actingUser.ID))
		return nil, err
	}
	portfolio.ID = portfolioID

	if err := s.cacheService.SetPortfolio(ctx, &portfolio); err != nil {
		logger.Warn("Failed to cache portfolio", zap.Error(err), zap.String("portfolioID", portfolioID))
	}

	s.eventBus.Publish(ctx, "portfolio.created", &portfolio)

	logger.Info("Portfolio created successfully",
		zap.String("portfolioID", portfolioID),
		zap.String("ownerID", actingUser.ID))
	return &portfolio, nil
}

// GetPortfolio returns the portfolio as a scoped view, so the caller's
// application listing is already narrowed to what they may see.
func (s *PortfolioService) GetPortfolio(ctx context.Context, actingUser *model.User, portfolioID string) (*authz.ScopedPortfolio, error) {
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermViewPortfolio, portfolioID, "view portfolio"); err != nil {
		return nil, err
	}

	portfolio, err := s.cacheService.GetPortfolio(ctx, portfolioID)
	if err != nil || portfolio == nil {
		portfolio, err = s.portfolioDAO.GetPortfolio(ctx, portfolioID)
		if err != nil {
			return nil, err
		}
		if err := s.cacheService.SetPortfolio(ctx, portfolio); err != nil {
			logger.Warn("Failed to cache portfolio", zap.Error(err), zap.String("portfolioID", portfolioID))
		}
	}

	return authz.NewScopedPortfolio(portfolio, actingUser, s.resolver, s.scopes), nil
}

// ListPortfolios returns the acting user's portfolios.
func (s *PortfolioService) ListPortfolios(ctx context.Context, actingUser *model.User) ([]*model.Portfolio, error) {
	return s.portfolioDAO.ListPortfoliosForUser(ctx, actingUser.ID)
}

// UpdatePortfolio saves name/description edits.
func (s *PortfolioService) UpdatePortfolio(ctx context.Context, actingUser *model.User, portfolio model.Portfolio) (*model.Portfolio, error) {
	if err := s.validationUtil.ValidatePortfolio(&portfolio); err != nil {
		return nil, fmt.Errorf("invalid portfolio: %w", err)
	}
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermEditPortfolioName, portfolio.ID, "edit portfolio"); err != nil {
		return nil, err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.portfolioDAO.UpdatePortfolio(ctx, actor, &portfolio); err != nil {
		logger.Error("Error updating portfolio", zap.Error(err), zap.String("portfolioID", portfolio.ID))
		return nil, err
	}

	s.eventBus.Publish(ctx, "portfolio.updated", &portfolio)
	return &portfolio, nil
}

// DeletePortfolio archives a portfolio. Only the PPoC (or a global admin)
// holds the archive permission, and the portfolio must have no live
// applications.
func (s *PortfolioService) DeletePortfolio(ctx context.Context, actingUser *model.User, portfolioID string) error {
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermArchivePortfolio, portfolioID, "archive portfolio"); err != nil {
		return err
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.portfolioDAO.DeletePortfolio(ctx, actor, portfolioID); err != nil {
		return err
	}

	if err := s.cacheService.DeletePortfolio(ctx, portfolioID); err != nil {
		logger.Warn("Failed to delete portfolio from cache", zap.Error(err), zap.String("portfolioID", portfolioID))
	}

	s.eventBus.Publish(ctx, "portfolio.deleted", portfolioID)
	return nil
}

// TransferOwnership hands the point-of-contact set to another member. The
// current PPoC edge is located from the member list; both edges change in one
// transaction.
func (s *PortfolioService) TransferOwnership(ctx context.Context, actingUser *model.User, portfolioID, newOwnerRoleID string) error {
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermEditPortfolioPOC, portfolioID, "transfer portfolio ownership"); err != nil {
		return err
	}

	roles, err := s.memberDAO.ListPortfolioRoles(ctx, portfolioID)
	if err != nil {
		return err
	}
	var currentOwnerRoleID string
	for _, role := range roles {
		if role.HasPermissionSet(model.PermSetPortfolioPOC) {
			currentOwnerRoleID = role.ID
			break
		}
	}
	if currentOwnerRoleID == "" {
		return atat_errors.NotFound("portfolio_poc")
	}

	actor := audit.Actor{UserID: actingUser.ID, UserName: actingUser.FullName()}
	if err := s.memberDAO.TransferPortfolioOwnership(ctx, actor, portfolioID, currentOwnerRoleID, newOwnerRoleID); err != nil {
		logger.Error("Error transferring portfolio ownership",
			zap.Error(err),
			zap.String("portfolioID", portfolioID))
		return err
	}

	s.eventBus.Publish(ctx, "portfolio.ownership_transferred", portfolioID)
	logger.Info("Portfolio ownership transferred",
		zap.String("portfolioID", portfolioID),
		zap.String("newOwnerRoleID", newOwnerRoleID))
	return nil
}
