// api/util/cache_service.go

package util

import (
	"context"

	"github.com/ccpo-cloud/atat/db"
	"github.com/ccpo-cloud/atat/model"
)

type CacheService struct{}

func NewCacheService() *CacheService {
	return &CacheService{}
}

func (c *CacheService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return db.GetCachedUser(ctx, userID)
}

func (c *CacheService) SetUser(ctx context.Context, user *model.User) error {
	return db.CacheUser(ctx, user)
}

func (c *CacheService) DeleteUser(ctx context.Context, userID string) error {
	return db.DeleteCachedUser(ctx, userID)
}

func (c *CacheService) GetPortfolio(ctx context.Context, portfolioID string) (*model.Portfolio, error) {
	return db.GetCachedPortfolio(ctx, portfolioID)
}

func (c *CacheService) SetPortfolio(ctx context.Context, portfolio *model.Portfolio) error {
	return db.CachePortfolio(ctx, portfolio)
}

func (c *CacheService) DeletePortfolio(ctx context.Context, portfolioID string) error {
	return db.DeleteCachedPortfolio(ctx, portfolioID)
}

func (c *CacheService) GetApplication(ctx context.Context, applicationID string) (*model.Application, error) {
	return db.GetCachedApplication(ctx, applicationID)
}

func (c *CacheService) SetApplication(ctx context.Context, application *model.Application) error {
	return db.CacheApplication(ctx, application)
}

func (c *CacheService) DeleteApplication(ctx context.Context, applicationID string) error {
	return db.DeleteCachedApplication(ctx, applicationID)
}
