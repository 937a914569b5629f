// api/controller/member_controller.go
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

type MemberController struct {
	memberService service.IMemberService
}

func NewMemberController(memberService service.IMemberService) *MemberController {
	return &MemberController{
		memberService: memberService,
	}
}

// RegisterRoutes registers the API routes
func (mc *MemberController) RegisterRoutes(r *gin.RouterGroup) {
	portfolios := r.Group("/portfolios/:id/members")
	{
		portfolios.POST("", mc.InvitePortfolioMember)
		portfolios.GET("", mc.ListPortfolioMembers)
	}
	applications := r.Group("/applications/:id/members")
	{
		applications.POST("", mc.InviteApplicationMember)
		applications.GET("", mc.ListApplicationMembers)
	}
	portfolioMembers := r.Group("/portfolio-members")
	{
		portfolioMembers.PUT("/:roleId/permission-sets", mc.UpdatePortfolioMemberPermissionSets)
		portfolioMembers.DELETE("/:roleId", mc.DisablePortfolioMember)
	}
	applicationMembers := r.Group("/application-members")
	{
		applicationMembers.PUT("/:roleId/permission-sets", mc.UpdateApplicationMemberPermissionSets)
		applicationMembers.DELETE("/:roleId", mc.DisableApplicationMember)
	}
}

// InvitePortfolioMember endpoint
func (mc *MemberController) InvitePortfolioMember(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var invite service.MemberInvite
	if err := c.ShouldBindJSON(&invite); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid invitation data", err)
		return
	}

	invitation, err := mc.memberService.InvitePortfolioMember(c, actingUser, c.Param("id"), invite)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invitation)
}

// ListPortfolioMembers endpoint
func (mc *MemberController) ListPortfolioMembers(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	members, err := mc.memberService.ListPortfolioMembers(c, actingUser, c.Param("id"))
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

// InviteApplicationMember endpoint
func (mc *MemberController) InviteApplicationMember(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var invite service.MemberInvite
	if err := c.ShouldBindJSON(&invite); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid invitation data", err)
		return
	}

	invitation, err := mc.memberService.InviteApplicationMember(c, actingUser, c.Param("id"), invite)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invitation)
}

// ListApplicationMembers endpoint
func (mc *MemberController) ListApplicationMembers(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	members, err := mc.memberService.ListApplicationMembers(c, actingUser, c.Param("id"))
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

// UpdatePortfolioMemberPermissionSets endpoint
func (mc *MemberController) UpdatePortfolioMemberPermissionSets(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var body struct {
		PermissionSets []model.PermissionSetName `json:"permission_sets"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid permission set data", err)
		return
	}

	if err := mc.memberService.UpdatePortfolioMemberPermissionSets(c, actingUser, c.Param("roleId"), body.PermissionSets); err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DisablePortfolioMember endpoint
func (mc *MemberController) DisablePortfolioMember(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	if err := mc.memberService.DisablePortfolioMember(c, actingUser, c.Param("roleId")); err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateApplicationMemberPermissionSets endpoint
func (mc *MemberController) UpdateApplicationMemberPermissionSets(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var body struct {
		PermissionSets []model.PermissionSetName `json:"permission_sets"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid permission set data", err)
		return
	}

	if err := mc.memberService.UpdateApplicationMemberPermissionSets(c, actingUser, c.Param("roleId"), body.PermissionSets); err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DisableApplicationMember endpoint
func (mc *MemberController) DisableApplicationMember(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	if err := mc.memberService.DisableApplicationMember(c, actingUser, c.Param("roleId")); err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
