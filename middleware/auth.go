// api/middleware/auth.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/ccpo-cloud/atat/config"
	logger "github.com/ccpo-cloud/atat/logging"
	"github.com/ccpo-cloud/atat/model"
)

// AuthClaims are the token claims issued after CAC authentication upstream.
// The subject is our user ID; the DoD ID rides along for invitation checks.
type AuthClaims struct {
	jwt.RegisteredClaims
	DodID     string `json:"dod_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// UserLoader resolves the token subject to a full user record.
type UserLoader interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

// Auth validates the bearer token and loads the acting user into the request
// context under "userID" and "actingUser".
func Auth(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			logger.Warn("No Authorization token provided")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := parseToken(tokenString)
		if err != nil {
			logger.Warn("Error parsing token", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		user, err := users.GetUser(c, claims.Subject)
		if err != nil {
			logger.Warn("Token subject has no user record",
				zap.Error(err),
				zap.String("userID", claims.Subject))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set("userID", user.ID)
		c.Set("actingUser", user)
		c.Next()
	}
}

func parseToken(tokenString string) (*AuthClaims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.GetString("auth.jwtSecret")), nil
	}, jwt.WithIssuer(config.GetString("auth.issuer")))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token or wrong claims type")
	}
	return claims, nil
}

// ActingUser pulls the authenticated user placed by Auth. The bool is false
// on routes that skipped the middleware.
func ActingUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get("actingUser")
	if !exists {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok
}
