// api/controller/portfolio_controller.go
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

type PortfolioController struct {
	portfolioService   service.IPortfolioService
	applicationService service.IApplicationService
}

func NewPortfolioController(portfolioService service.IPortfolioService, applicationService service.IApplicationService) *PortfolioController {
	return &PortfolioController{
		portfolioService:   portfolioService,
		applicationService: applicationService,
	}
}

// RegisterRoutes registers the API routes
func (pc *PortfolioController) RegisterRoutes(r *gin.RouterGroup) {
	portfolios := r.Group("/portfolios")
	{
		portfolios.POST("", pc.CreatePortfolio)
		portfolios.GET("", pc.ListPortfolios)
		portfolios.GET("/:id", pc.GetPortfolio)
		portfolios.PUT("/:id", pc.UpdatePortfolio)
		portfolios.DELETE("/:id", pc.DeletePortfolio)
		portfolios.GET("/:id/applications", pc.ListApplications)
		portfolios.POST("/:id/transfer-ownership", pc.TransferOwnership)
	}
}

// CreatePortfolio endpoint
func (pc *PortfolioController) CreatePortfolio(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var portfolio model.Portfolio
	if err := c.ShouldBindJSON(&portfolio); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid portfolio data", err)
		return
	}

	created, err := pc.portfolioService.CreatePortfolio(c, actingUser, portfolio)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListPortfolios endpoint
func (pc *PortfolioController) ListPortfolios(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	portfolios, err := pc.portfolioService.ListPortfolios(c, actingUser)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolios)
}

// GetPortfolio endpoint. The application list in the response is already
// narrowed to what the caller may see.
func (pc *PortfolioController) GetPortfolio(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	scoped, err := pc.portfolioService.GetPortfolio(c, actingUser, c.Param("id"))
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	applications, err := scoped.Applications(c)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"portfolio":    scoped.Unwrap(),
		"applications": applications,
	})
}

// UpdatePortfolio endpoint
func (pc *PortfolioController) UpdatePortfolio(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var portfolio model.Portfolio
	if err := c.ShouldBindJSON(&portfolio); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid portfolio data", err)
		return
	}
	portfolio.ID = c.Param("id")

	updated, err := pc.portfolioService.UpdatePortfolio(c, actingUser, portfolio)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeletePortfolio endpoint
func (pc *PortfolioController) DeletePortfolio(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	if err := pc.portfolioService.DeletePortfolio(c, actingUser, c.Param("id")); err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// TransferOwnership endpoint
func (pc *PortfolioController) TransferOwnership(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var body struct {
		NewOwnerRoleID string `json:"new_owner_role_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid transfer data", err)
		return
	}

	if err := pc.portfolioService.TransferOwnership(c, actingUser, c.Param("id"), body.NewOwnerRoleID); err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListApplications endpoint
func (pc *PortfolioController) ListApplications(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	applications, err := pc.applicationService.ListApplications(c, actingUser, c.Param("id"))
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, applications)
}
