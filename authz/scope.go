// api/authz/scope.go
package authz

import (
	"context"

	"github.com/ccpo-cloud/atat/model"
)

// ScopeReader supplies the two child-listing query paths the scoped views
// need: the full (soft-delete filtered) collection, and the cheaper
// membership-restricted one used when the user lacks a blanket view grant.
type ScopeReader interface {
	ApplicationsForPortfolio(ctx context.Context, portfolioID string) ([]*model.Application, error)
	ApplicationsForMember(ctx context.Context, userID, portfolioID string) ([]*model.Application, error)
	EnvironmentsForApplication(ctx context.Context, applicationID string) ([]*model.Environment, error)
	EnvironmentsForMember(ctx context.Context, userID, applicationID string) ([]*model.Environment, error)
}

// ScopedPortfolio narrows a portfolio's visible applications to what the
// viewing user may see. Everything except the child collection reads straight
// from the wrapped entity.
type ScopedPortfolio struct {
	portfolio *model.Portfolio
	user      *model.User
	resolver  *Resolver
	reader    ScopeReader
}

func NewScopedPortfolio(portfolio *model.Portfolio, user *model.User, resolver *Resolver, reader ScopeReader) *ScopedPortfolio {
	return &ScopedPortfolio{portfolio: portfolio, user: user, resolver: resolver, reader: reader}
}

func (s *ScopedPortfolio) ID() string                   { return s.portfolio.ID }
func (s *ScopedPortfolio) Name() string                 { return s.portfolio.Name }
func (s *ScopedPortfolio) Description() string          { return s.portfolio.Description }
func (s *ScopedPortfolio) Unwrap() *model.Portfolio     { return s.portfolio }
func (s *ScopedPortfolio) Roles() []*model.PortfolioRole { return s.portfolio.Roles }

// Applications returns the visible children. A blanket view grant at the
// portfolio level yields the full collection in one query; otherwise a single
// membership query returns just the applications the user belongs to, rather
// than re-running the resolver once per child.
func (s *ScopedPortfolio) Applications(ctx context.Context) ([]*model.Application, error) {
	ok, err := s.resolver.CanAccess(ctx, s.user, model.PermViewApplication, PortfolioTarget(s.portfolio.ID))
	if err != nil {
		return nil, err
	}
	if ok {
		return s.reader.ApplicationsForPortfolio(ctx, s.portfolio.ID)
	}
	return s.reader.ApplicationsForMember(ctx, s.user.ID, s.portfolio.ID)
}

// Equal compares by the wrapped entity's identity so a scoped view and the
// raw portfolio it wraps are interchangeable to callers.
func (s *ScopedPortfolio) Equal(other any) bool {
	switch o := other.(type) {
	case *ScopedPortfolio:
		return o != nil && s.portfolio.ID == o.portfolio.ID
	case *model.Portfolio:
		return o != nil && s.portfolio.ID == o.ID
	}
	return false
}

// ScopedApplication is the application-level counterpart, filtering
// environments.
type ScopedApplication struct {
	application *model.Application
	user        *model.User
	resolver    *Resolver
	reader      ScopeReader
}

func NewScopedApplication(application *model.Application, user *model.User, resolver *Resolver, reader ScopeReader) *ScopedApplication {
	return &ScopedApplication{application: application, user: user, resolver: resolver, reader: reader}
}

func (s *ScopedApplication) ID() string               { return s.application.ID }
func (s *ScopedApplication) Name() string             { return s.application.Name }
func (s *ScopedApplication) Description() string      { return s.application.Description }
func (s *ScopedApplication) PortfolioID() string      { return s.application.PortfolioID }
func (s *ScopedApplication) Unwrap() *model.Application { return s.application }

func (s *ScopedApplication) Environments(ctx context.Context) ([]*model.Environment, error) {
	target := ApplicationTarget(s.application.PortfolioID, s.application.ID)
	ok, err := s.resolver.CanAccess(ctx, s.user, model.PermViewEnvironment, target)
	if err != nil {
		return nil, err
	}
	if ok {
		return s.reader.EnvironmentsForApplication(ctx, s.application.ID)
	}
	return s.reader.EnvironmentsForMember(ctx, s.user.ID, s.application.ID)
}

func (s *ScopedApplication) Equal(other any) bool {
	switch o := other.(type) {
	case *ScopedApplication:
		return o != nil && s.application.ID == o.application.ID
	case *model.Application:
		return o != nil && s.application.ID == o.ID
	}
	return false
}
