// api/controller/environment_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	atat_errors "github.com/ccpo-cloud/atat/errors"
	"github.com/ccpo-cloud/atat/middleware"
	"github.com/ccpo-cloud/atat/model"
	"github.com/ccpo-cloud/atat/service"
	"github.com/ccpo-cloud/atat/util"
)

type EnvironmentController struct {
	environmentService service.IEnvironmentService
}

func NewEnvironmentController(environmentService service.IEnvironmentService) *EnvironmentController {
	return &EnvironmentController{
		environmentService: environmentService,
	}
}

// RegisterRoutes registers the API routes
func (ec *EnvironmentController) RegisterRoutes(r *gin.RouterGroup) {
	environments := r.Group("/environments")
	{
		environments.POST("", ec.CreateEnvironment)
		environments.PUT("/:id", ec.UpdateEnvironment)
		environments.DELETE("/:id", ec.DeleteEnvironment)
		environments.POST("/:id/roles", ec.AssignEnvironmentRole)
	}
	environmentRoles := r.Group("/environment-roles")
	{
		environmentRoles.PUT("/:id", ec.UpdateEnvironmentRole)
		environmentRoles.DELETE("/:id", ec.RevokeEnvironmentRole)
	}
}

// CreateEnvironment endpoint
func (ec *EnvironmentController) CreateEnvironment(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var environment model.Environment
	if err := c.ShouldBindJSON(&environment); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid environment data", err)
		return
	}

	created, err := ec.environmentService.CreateEnvironment(c, actingUser, environment)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateEnvironment endpoint
func (ec *EnvironmentController) UpdateEnvironment(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var environment model.Environment
	if err := c.ShouldBindJSON(&environment); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid environment data", err)
		return
	}
	environment.ID = c.Param("id")

	updated, err := ec.environmentService.UpdateEnvironment(c, actingUser, environment)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteEnvironment endpoint
func (ec *EnvironmentController) DeleteEnvironment(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	if err := ec.environmentService.DeleteEnvironment(c, actingUser, c.Param("id")); err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AssignEnvironmentRole endpoint
func (ec *EnvironmentController) AssignEnvironmentRole(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var role model.EnvironmentRole
	if err := c.ShouldBindJSON(&role); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid environment role data", err)
		return
	}
	role.EnvironmentID = c.Param("id")

	created, err := ec.environmentService.AssignEnvironmentRole(c, actingUser, role)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateEnvironmentRole endpoint
func (ec *EnvironmentController) UpdateEnvironmentRole(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var body struct {
		Role model.CSPRole `json:"role"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid environment role data", err)
		return
	}

	if err := ec.environmentService.UpdateEnvironmentRole(c, actingUser, c.Param("id"), body.Role); err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RevokeEnvironmentRole endpoint
func (ec *EnvironmentController) RevokeEnvironmentRole(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	if err := ec.environmentService.RevokeEnvironmentRole(c, actingUser, c.Param("id")); err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
