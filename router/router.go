// api/router/router.go

package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ccpo-cloud/atat/controller"
	"github.com/ccpo-cloud/atat/middleware"
	"github.com/ccpo-cloud/atat/service"
)

func SetupRouter(
	controllers *controller.Controllers,
	userService service.IUserService,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))

	// Login runs before a user record exists, so it sits outside the
	// authenticated group.
	public := router.Group("/api/v1")
	controllers.User.RegisterLoginRoute(public)

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(userService))

	controllers.User.RegisterRoutes(api)
	controllers.Portfolio.RegisterRoutes(api)
	controllers.Application.RegisterRoutes(api)
	controllers.Environment.RegisterRoutes(api)
	controllers.Member.RegisterRoutes(api)
	controllers.Invitation.RegisterRoutes(api)
	controllers.TaskOrder.RegisterRoutes(api)
	controllers.AuditLog.RegisterRoutes(api)

	return router
}
