// api/service/audit_log_service.go
package service

import (
	"context"
	"time"

	"github.com/ccpo-cloud/atat/audit"
	"github.com/ccpo-cloud/atat/authz"
	"github.com/ccpo-cloud/atat/model"
)

// IAuditLogService defines the interface for reading activity logs
type IAuditLogService interface {
	PortfolioLog(ctx context.Context, actingUser *model.User, portfolioID string, limit, offset int) ([]*audit.Event, error)
	ApplicationLog(ctx context.Context, actingUser *model.User, portfolioID, applicationID string, limit, offset int) ([]*audit.Event, error)
	GlobalLog(ctx context.Context, actingUser *model.User, from, to time.Time, limit, offset int) ([]*audit.Event, error)
	SearchLog(ctx context.Context, actingUser *model.User, text string, from, to time.Time, portfolioID string) ([]*audit.Event, error)
}

// AuditLogService gates the activity logs behind the matching view
// permissions.
type AuditLogService struct {
	auditService *audit.Service
	resolver     *authz.Resolver
}

var _ IAuditLogService = &AuditLogService{}

// NewAuditLogService creates a new instance of AuditLogService
func NewAuditLogService(auditService *audit.Service, resolver *authz.Resolver) *AuditLogService {
	return &AuditLogService{auditService: auditService, resolver: resolver}
}

// PortfolioLog returns the portfolio's activity log, newest first.
func (s *AuditLogService) PortfolioLog(ctx context.Context, actingUser *model.User, portfolioID string, limit, offset int) ([]*audit.Event, error) {
	if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermViewPortfolioActivityLog, portfolioID, "view portfolio activity log"); err != nil {
		return nil, err
	}
	return s.auditService.ListForPortfolio(ctx, portfolioID, limit, offset)
}

// ApplicationLog returns one application's activity log.
func (s *AuditLogService) ApplicationLog(ctx context.Context, actingUser *model.User, portfolioID, applicationID string, limit, offset int) ([]*audit.Event, error) {
	if err := s.resolver.CheckApplicationAccess(ctx, actingUser, model.PermViewApplicationActivityLog,
		portfolioID, applicationID, "view application activity log"); err != nil {
		return nil, err
	}
	return s.auditService.ListForApplication(ctx, applicationID, limit, offset)
}

// GlobalLog returns the platform-wide log. CCPO only.
func (s *AuditLogService) GlobalLog(ctx context.Context, actingUser *model.User, from, to time.Time, limit, offset int) ([]*audit.Event, error) {
	if err := s.resolver.CheckGlobalAccess(ctx, actingUser, model.PermViewAuditLog, "view audit log"); err != nil {
		return nil, err
	}
	return s.auditService.List(ctx, from, to, limit, offset)
}

// SearchLog runs a free-text search over the indexed mirror. A portfolio
// scope narrows both the query and the permission needed; without one the
// caller needs the global log permission.
func (s *AuditLogService) SearchLog(ctx context.Context, actingUser *model.User, text string, from, to time.Time, portfolioID string) ([]*audit.Event, error) {
	if portfolioID != "" {
		if err := s.resolver.CheckPortfolioAccess(ctx, actingUser, model.PermViewPortfolioActivityLog, portfolioID, "view portfolio activity log"); err != nil {
			return nil, err
		}
	} else {
		if err := s.resolver.CheckGlobalAccess(ctx, actingUser, model.PermViewAuditLog, "view audit log"); err != nil {
			return nil, err
		}
	}
	return s.auditService.Search(ctx, text, from, to, portfolioID)
}
