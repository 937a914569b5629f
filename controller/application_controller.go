// api/controller/application_controller.go
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

type ApplicationController struct {
	applicationService service.IApplicationService
}

func NewApplicationController(applicationService service.IApplicationService) *ApplicationController {
	return &ApplicationController{
		applicationService: applicationService,
	}
}

// RegisterRoutes registers the API routes
func (ac *ApplicationController) RegisterRoutes(r *gin.RouterGroup) {
	applications := r.Group("/applications")
	{
		applications.POST("", ac.CreateApplication)
		applications.GET("/:id", ac.GetApplication)
		applications.PUT("/:id", ac.UpdateApplication)
		applications.DELETE("/:id", ac.DeleteApplication)
	}
}

// CreateApplication endpoint
func (ac *ApplicationController) CreateApplication(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var application model.Application
	if err := c.ShouldBindJSON(&application); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid application data", err)
		return
	}

	created, err := ac.applicationService.CreateApplication(c, actingUser, application)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetApplication endpoint. The environment list is narrowed to what the
// caller may see.
func (ac *ApplicationController) GetApplication(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	scoped, err := ac.applicationService.GetApplication(c, actingUser, c.Param("id"))
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	environments, err := scoped.Environments(c)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"application":  scoped.Unwrap(),
		"environments": environments,
	})
}

// UpdateApplication endpoint
func (ac *ApplicationController) UpdateApplication(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var application model.Application
	if err := c.ShouldBindJSON(&application); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid application data", err)
		return
	}
	application.ID = c.Param("id")

	updated, err := ac.applicationService.UpdateApplication(c, actingUser, application)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteApplication endpoint
func (ac *ApplicationController) DeleteApplication(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	if err := ac.applicationService.DeleteApplication(c, actingUser, c.Param("id")); err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
