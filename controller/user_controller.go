// api/controller/user_controller.go
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

type UserController struct {
	userService service.IUserService
}

func NewUserController(userService service.IUserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// RegisterRoutes registers the API routes
func (uc *UserController) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	{
		users.GET("/me", uc.GetCurrentUser)
		users.GET("/:id", uc.GetUser)
		users.PUT("/:id", uc.UpdateProfile)
		users.PUT("/:id/permission-sets", uc.SetGlobalPermissionSets)
	}
}

// RegisterLoginRoute wires the login endpoint outside the authenticated
// group; it runs before the caller has a user record to load.
func (uc *UserController) RegisterLoginRoute(r *gin.RouterGroup) {
	r.POST("/login", uc.Login)
}

// Login endpoint. Finds or creates the account for the authenticated
// identity and stamps the login time.
func (uc *UserController) Login(c *gin.Context) {
	var profile model.User
	if err := c.ShouldBindJSON(&profile); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		return
	}

	user, err := uc.userService.RegisterLogin(c, profile)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetCurrentUser endpoint
func (uc *UserController) GetCurrentUser(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, actingUser)
}

// GetUser endpoint
func (uc *UserController) GetUser(c *gin.Context) {
	user, err := uc.userService.GetUser(c, c.Param("id"))
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile endpoint
func (uc *UserController) UpdateProfile(c *gin.Context) {
	actingUser, ok := middleware.ActingUser(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", atat_errors.ErrUnauthenticated)
		return
	}

	var user model.User
	if err := c.ShouldBindJSON(&user); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid user data", err)
		return
	}
	user.ID = c.Param("id")

	updated, err := uc.userService.UpdateProfile(c, actingUser, user)
	if err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// SetGlobalPermissionSets endpoint
func (uc *UserController) SetGlobalPermissionSets(c *gin.Context) {
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

	if err := uc.userService.SetGlobalPermissionSets(c, actingUser, c.Param("id"), body.PermissionSets); err != nil {
		util.RespondWithDomainError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
