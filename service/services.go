// api/service/services.go
package service

import (
	"context"
	"database/sql"

	"github.com/ccpo-cloud/atat/audit"
	"github.com/ccpo-cloud/atat/authz"
	"github.com/ccpo-cloud/atat/dao"
	"github.com/ccpo-cloud/atat/model"
	"github.com/ccpo-cloud/atat/util"
)

type Services struct {
	User        IUserService
	Portfolio   IPortfolioService
	Application IApplicationService
	Environment IEnvironmentService
	Member      IMemberService
	Invitation  IInvitationService
	TaskOrder   ITaskOrderService
	AuditLog    IAuditLogService

	Resolver *authz.Resolver
	Catalog  *authz.Catalog
}

// roleReader satisfies authz.RoleReader by combining the member and
// application DAOs.
type roleReader struct {
	members      *dao.MemberDAO
	applications *dao.ApplicationDAO
}

func (r roleReader) PortfolioRoleFor(ctx context.Context, userID, portfolioID string) (*model.PortfolioRole, error) {
	return r.members.PortfolioRoleFor(ctx, userID, portfolioID)
}

func (r roleReader) ApplicationRoleFor(ctx context.Context, userID, applicationID string) (*model.ApplicationRole, error) {
	return r.members.ApplicationRoleFor(ctx, userID, applicationID)
}

func (r roleReader) PortfolioIDForApplication(ctx context.Context, applicationID string) (string, error) {
	return r.applications.PortfolioIDForApplication(ctx, applicationID)
}

// scopeReader satisfies authz.ScopeReader with the application and
// environment DAOs.
type scopeReader struct {
	applications *dao.ApplicationDAO
	environments *dao.EnvironmentDAO
}

func (r scopeReader) ApplicationsForPortfolio(ctx context.Context, portfolioID string) ([]*model.Application, error) {
	return r.applications.ApplicationsForPortfolio(ctx, portfolioID)
}

func (r scopeReader) ApplicationsForMember(ctx context.Context, userID, portfolioID string) ([]*model.Application, error) {
	return r.applications.ApplicationsForMember(ctx, userID, portfolioID)
}

func (r scopeReader) EnvironmentsForApplication(ctx context.Context, applicationID string) ([]*model.Environment, error) {
	return r.environments.EnvironmentsForApplication(ctx, applicationID)
}

func (r scopeReader) EnvironmentsForMember(ctx context.Context, userID, applicationID string) ([]*model.Environment, error) {
	return r.environments.EnvironmentsForMember(ctx, userID, applicationID)
}

func InitializeServices(
	db *sql.DB,
	auditService *audit.Service,
	validationUtil *util.ValidationUtil,
	cacheService *util.CacheService,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) (*Services, error) {
	userDAO := dao.NewUserDAO(db, auditService)
	portfolioDAO := dao.NewPortfolioDAO(db, auditService)
	applicationDAO := dao.NewApplicationDAO(db, auditService)
	environmentDAO := dao.NewEnvironmentDAO(db, auditService)
	memberDAO := dao.NewMemberDAO(db, auditService)
	invitationDAO := dao.NewInvitationDAO(db, auditService)
	taskOrderDAO := dao.NewTaskOrderDAO(db, auditService)

	catalog := authz.NewCatalog()
	resolver := authz.NewResolver(catalog, roleReader{members: memberDAO, applications: applicationDAO})
	scopes := scopeReader{applications: applicationDAO, environments: environmentDAO}
	officers := authz.NewOfficerChecker(taskOrderDAO)

	services := &Services{
		User:        NewUserService(userDAO, resolver, validationUtil, cacheService, notificationSvc, eventBus),
		Portfolio:   NewPortfolioService(portfolioDAO, memberDAO, catalog, resolver, scopes, validationUtil, cacheService, notificationSvc, eventBus),
		Application: NewApplicationService(applicationDAO, resolver, scopes, validationUtil, cacheService, notificationSvc, eventBus),
		Environment: NewEnvironmentService(environmentDAO, memberDAO, resolver, validationUtil, eventBus),
		Member:      NewMemberService(memberDAO, invitationDAO, userDAO, portfolioDAO, applicationDAO, catalog, resolver, validationUtil, notificationSvc, eventBus),
		Invitation:  NewInvitationService(invitationDAO, resolver, notificationSvc, eventBus),
		TaskOrder:   NewTaskOrderService(taskOrderDAO, resolver, officers, validationUtil, eventBus),
		AuditLog:    NewAuditLogService(auditService, resolver),

		Resolver: resolver,
		Catalog:  catalog,
	}

	return services, nil
}
