// api/controller/audit_log_controller.go
package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	atat_errors "github.com/ccpo-cloud/atat/errors"
	"github.com/ccpo-cloud/atat/middleware"
	"github.com/ccpo-cloud/atat/service"
	"github.com/ccpo-cloud/atat/util"
	helper_util "github.com/ccpo-cloud/atat/util/helper"
)

type AuditLogController struct {
	auditLogService service.IAuditLogService
}

func NewAuditLogController(auditLogService service.IAuditLogService) *AuditLogController {
	return &AuditLogController{
		auditLogService: auditLogService,
	}
}

// RegisterRoutes registers the API routes
func (alc *AuditLogController) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/portfolios/:id/activity-log", alc.PortfolioLog)
	r.GET("/applications/:id/activity-log", alc.ApplicationLog)
	activityLog := r.Group("/activity-log")
	{
		activityLog.GET("", alc.GlobalLog)
		activityLog.GET("/search", alc.SearchLog)
	}
}

// PortfolioLog endpoint
func (alc *AuditLogController) PortfolioLog(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	events, err := alc.auditLogService.PortfolioLog(c, actingUser, c.Param("id"), limit, offset)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// ApplicationLog endpoint
func (alc *AuditLogController) ApplicationLog(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	events, err := alc.auditLogService.ApplicationLog(c, actingUser, c.Query("portfolio_id"), c.Param("id"), limit, offset)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// GlobalLog endpoint
func (alc *AuditLogController) GlobalLog(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	from, to, err := logWindow(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid time window", err)
		return
	}

	events, err := alc.auditLogService.GlobalLog(c, actingUser, from, to, limit, offset)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// SearchLog endpoint
func (alc *AuditLogController) SearchLog(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	from, to, err := logWindow(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid time window", err)
		return
	}

	events, err := alc.auditLogService.SearchLog(c, actingUser, c.Query("q"), from, to, c.Query("portfolio_id"))
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// logWindow parses the from/to query params, defaulting to the last 30 days.
func logWindow(c *gin.Context) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	if s := c.Query("from"); s != "" {
		parsed, err := helper_util.ParseTime(s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if s := c.Query("to"); s != "" {
		parsed, err := helper_util.ParseTime(s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	return from, to, nil
}
