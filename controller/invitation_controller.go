// api/controller/invitation_controller.go
package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	atat_errors "github.com/ccpo-cloud/atat/errors"
	"github.com/ccpo-cloud/atat/middleware"
	"github.com/ccpo-cloud/atat/service"
	"github.com/ccpo-cloud/atat/util"
)

type InvitationController struct {
	invitationService service.IInvitationService
}

func NewInvitationController(invitationService service.IInvitationService) *InvitationController {
	return &InvitationController{
		invitationService: invitationService,
	}
}

// RegisterRoutes registers the API routes
func (ic *InvitationController) RegisterRoutes(r *gin.RouterGroup) {
	invitations := r.Group("/invitations")
	{
		invitations.GET("/:token", ic.GetInvitation)
		invitations.POST("/:token/accept", ic.AcceptInvitation)
		invitations.POST("/:token/revoke", ic.RevokeInvitation)
		invitations.POST("/:token/resend", ic.ResendInvitation)
	}
}

// GetInvitation endpoint. The token itself is the credential.
func (ic *InvitationController) GetInvitation(c *gin.Context) {
	invitation, err := ic.invitationService.GetInvitation(c, c.Param("token"))
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}

// AcceptInvitation endpoint
func (ic *InvitationController) AcceptInvitation(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	invitation, err := ic.invitationService.AcceptInvitation(c, actingUser, c.Param("token"))
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, invitation)
}

// RevokeInvitation endpoint
func (ic *InvitationController) RevokeInvitation(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	if err := ic.invitationService.RevokeInvitation(c, actingUser, c.Param("token")); err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ResendInvitation endpoint
func (ic *InvitationController) ResendInvitation(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	// The body is optional: a bare resend reuses the invitee's contact info.
	var body struct {
		Email string `json:"email"`
	}
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid invitation data", err)
			return
		}
	}

	invitation, err := ic.invitationService.ResendInvitation(c, actingUser, c.Param("token"), body.Email)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, invitation)
}
