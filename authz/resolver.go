// api/authz/resolver.go
package authz

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ccpo-cloud/atat/errors"
	logger "github.com/ccpo-cloud/atat/logging"
	"github.com/ccpo-cloud/atat/model"
)

// RoleReader is the slice of the persistence layer the resolver depends on.
// A missing role edge is reported as (nil, nil), not an error.
type RoleReader interface {
	PortfolioRoleFor(ctx context.Context, userID, portfolioID string) (*model.PortfolioRole, error)
	ApplicationRoleFor(ctx context.Context, userID, applicationID string) (*model.ApplicationRole, error)
	PortfolioIDForApplication(ctx context.Context, applicationID string) (string, error)
}

// Target names the resource scope of a permission check. The zero Target is a
// global check.
type Target struct {
	PortfolioID   string
	ApplicationID string
}

func GlobalTarget() Target                { return Target{} }
func PortfolioTarget(id string) Target    { return Target{PortfolioID: id} }
func ApplicationTarget(portfolioID, applicationID string) Target {
	return Target{PortfolioID: portfolioID, ApplicationID: applicationID}
}

// Resolver answers "may user U perform permission P on target T". The state
// is re-read per check rather than cached across requests so concurrent
// permission edits take effect immediately.
type Resolver struct {
	catalog *Catalog
	roles   RoleReader
}

func NewResolver(catalog *Catalog, roles RoleReader) *Resolver {
	return &Resolver{catalog: catalog, roles: roles}
}

// CanAccess resolves the permission against the target. Resolution is a
// union, not a first-match short-circuit:
//
//  1. A global grant always wins, whatever the user's membership state.
//  2. A portfolio target tests the user's active PortfolioRole.
//  3. An application target first cascades through the owning portfolio,
//     then falls back to the application-scoped role.
func (r *Resolver) CanAccess(ctx context.Context, user *model.User, perm model.Permission, target Target) (bool, error) {
	if user == nil {
		return false, errors.ErrUnauthenticated
	}

	ok, err := r.catalog.Grants(user.PermissionSets, perm)
	if err != nil {
		return false, fmt.Errorf("failed to resolve global permission sets: %w", err)
	}
	if ok {
		return true, nil
	}

	if target.ApplicationID != "" {
		return r.canAccessApplication(ctx, user, perm, target)
	}
	if target.PortfolioID != "" {
		return r.canAccessPortfolio(ctx, user, perm, target.PortfolioID)
	}
	return false, nil
}

func (r *Resolver) canAccessPortfolio(ctx context.Context, user *model.User, perm model.Permission, portfolioID string) (bool, error) {
	role, err := r.roles.PortfolioRoleFor(ctx, user.ID, portfolioID)
	if err != nil {
		return false, err
	}
	if role == nil || !role.IsActive() {
		return false, nil
	}
	return r.catalog.Grants(role.PermissionSets, perm)
}

func (r *Resolver) canAccessApplication(ctx context.Context, user *model.User, perm model.Permission, target Target) (bool, error) {
	portfolioID := target.PortfolioID
	if portfolioID == "" {
		var err error
		portfolioID, err = r.roles.PortfolioIDForApplication(ctx, target.ApplicationID)
		if err != nil {
			return false, err
		}
	}

	// Portfolio-level grants cascade down onto every child application.
	ok, err := r.canAccessPortfolio(ctx, user, perm, portfolioID)
	if err != nil || ok {
		return ok, err
	}

	role, err := r.roles.ApplicationRoleFor(ctx, user.ID, target.ApplicationID)
	if err != nil {
		return false, err
	}
	if role == nil || !role.IsActive() {
		return false, nil
	}
	return r.catalog.Grants(role.PermissionSets, perm)
}

// CheckAccess is the fail-closed variant: it resolves identically and returns
// UnauthorizedError instead of false. The action string names what was
// attempted, for logging.
func (r *Resolver) CheckAccess(ctx context.Context, user *model.User, perm model.Permission, target Target, action string) error {
	ok, err := r.CanAccess(ctx, user, perm, target)
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn("Access denied",
			zap.String("userID", user.ID),
			zap.String("permission", string(perm)),
			zap.String("portfolioID", target.PortfolioID),
			zap.String("applicationID", target.ApplicationID),
			zap.String("action", action))
		return errors.Unauthorized(user.ID, action)
	}
	return nil
}

// CheckPortfolioAccess guards a portfolio-scoped operation.
func (r *Resolver) CheckPortfolioAccess(ctx context.Context, user *model.User, perm model.Permission, portfolioID, action string) error {
	return r.CheckAccess(ctx, user, perm, PortfolioTarget(portfolioID), action)
}

// CheckApplicationAccess guards an application-scoped operation.
func (r *Resolver) CheckApplicationAccess(ctx context.Context, user *model.User, perm model.Permission, portfolioID, applicationID, action string) error {
	return r.CheckAccess(ctx, user, perm, ApplicationTarget(portfolioID, applicationID), action)
}

// CheckGlobalAccess guards a platform-level operation.
func (r *Resolver) CheckGlobalAccess(ctx context.Context, user *model.User, perm model.Permission, action string) error {
	return r.CheckAccess(ctx, user, perm, GlobalTarget(), action)
}
