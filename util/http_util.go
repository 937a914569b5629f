// api/util/http_util.go
package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	atat_errors "github.com/ccpo-cloud/atat/errors"
	logger "github.com/ccpo-cloud/atat/logging"
)

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"error": message})
}

// RespondWithDomainError translates the error taxonomy into HTTP statuses:
// NotFound→404, Unauthorized→404 (existence is masked), AlreadyExists→409,
// Disabled and invitation-state failures→400, everything else→500.
func RespondWithDomainError(c *gin.Context, err error) {
	switch {
	case atat_errors.IsNotFound(err):
		RespondWithError(c, http.StatusNotFound, "Resource not found", err)
	case atat_errors.IsUnauthorized(err):
		// Masked as 404 so unauthorized callers cannot probe for existence.
		RespondWithError(c, http.StatusNotFound, "Resource not found", err)
	case atat_errors.IsAlreadyExists(err):
		RespondWithError(c, http.StatusConflict, "Resource already exists", err)
	case atat_errors.IsDisabled(err):
		RespondWithError(c, http.StatusBadRequest, "Resource is disabled", err)
	case atat_errors.IsExpired(err):
		RespondWithError(c, http.StatusBadRequest, "Invitation has expired", err)
	case atat_errors.IsWrongUser(err):
		RespondWithError(c, http.StatusNotFound, "Resource not found", err)
	case atat_errors.IsInvitationStatus(err):
		RespondWithError(c, http.StatusBadRequest, "Invitation is no longer valid", err)
	default:
		RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}

func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get("userID")
	if !exists {
		return "", nil
	}
	return userID.(string), nil
}
