// api/controller/invitation_controller_test.go
package controller_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ccpo-cloud/atat/controller"
	atat_errors "github.com/ccpo-cloud/atat/errors"
	"github.com/ccpo-cloud/atat/model"
)

// fakeInvitationService returns whatever its fields say, so each subtest
// scripts the outcome it needs.
type fakeInvitationService struct {
	invitation *model.Invitation
	err        error
}

func (f *fakeInvitationService) GetInvitation(ctx context.Context, token string) (*model.Invitation, error) {
	return f.invitation, f.err
}

func (f *fakeInvitationService) AcceptInvitation(ctx context.Context, actingUser *model.User, token string) (*model.Invitation, error) {
	return f.invitation, f.err
}

func (f *fakeInvitationService) RevokeInvitation(ctx context.Context, actingUser *model.User, token string) error {
	return f.err
}

func (f *fakeInvitationService) ResendInvitation(ctx context.Context, actingUser *model.User, token string, email string) (*model.Invitation, error) {
	return f.invitation, f.err
}

func setupInvitationRouter(fake *fakeInvitationService, authenticated bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if authenticated {
		r.Use(func(c *gin.Context) {
			c.Set("userID", "u1")
			c.Set("actingUser", &model.User{ID: "u1", DodID: "1234567890"})
		})
	}
	api := r.Group("/")
	controller.NewInvitationController(fake).RegisterRoutes(api)
	return r
}

func TestInvitationController(t *testing.T) {
	pending := &model.Invitation{
		ID:           "inv1",
		ResourceType: model.InvitationResourcePortfolio,
		RoleID:       "role1",
		PortfolioID:  "p1",
		Token:        "tok",
		Status:       model.InvitationStatusPending,
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
	}

	t.Run("GetInvitation_Success", func(t *testing.T) {
		router := setupInvitationRouter(&fakeInvitationService{invitation: pending}, true)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/invitations/tok", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"pending"`)
	})

	t.Run("GetInvitation_Failure_NotFound", func(t *testing.T) {
		router := setupInvitationRouter(&fakeInvitationService{err: atat_errors.NotFound("invitation")}, true)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/invitations/bogus", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("AcceptInvitation_Success", func(t *testing.T) {
		accepted := *pending
		accepted.Status = model.InvitationStatusAccepted
		router := setupInvitationRouter(&fakeInvitationService{invitation: &accepted}, true)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/invitations/tok/accept", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"accepted"`)
	})

	t.Run("AcceptInvitation_Failure_Unauthenticated", func(t *testing.T) {
		router := setupInvitationRouter(&fakeInvitationService{invitation: pending}, false)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/invitations/tok/accept", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("AcceptInvitation_Failure_WrongUser", func(t *testing.T) {
		router := setupInvitationRouter(&fakeInvitationService{err: atat_errors.WrongUser("u1", "inv1")}, true)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/invitations/tok/accept", nil)
		router.ServeHTTP(w, req)

		// The identity mismatch reads as a missing invitation to the caller.
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("AcceptInvitation_Failure_Expired", func(t *testing.T) {
		router := setupInvitationRouter(&fakeInvitationService{err: atat_errors.Expired("inv1")}, true)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/invitations/tok/accept", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("RevokeInvitation_Success", func(t *testing.T) {
		router := setupInvitationRouter(&fakeInvitationService{}, true)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/invitations/tok/revoke", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("RevokeInvitation_Failure_Unauthorized", func(t *testing.T) {
		router := setupInvitationRouter(&fakeInvitationService{err: atat_errors.Unauthorized("u1", "edit_portfolio_users")}, true)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/invitations/tok/revoke", nil)
		router.ServeHTTP(w, req)

		// Denials are masked as 404 so resource existence is not leaked.
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("ResendInvitation_Success_EmptyBody", func(t *testing.T) {
		router := setupInvitationRouter(&fakeInvitationService{invitation: pending}, true)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/invitations/tok/resend", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ResendInvitation_Success_ZeroLengthBody", func(t *testing.T) {
		router := setupInvitationRouter(&fakeInvitationService{invitation: pending}, true)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/invitations/tok/resend", strings.NewReader(""))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ResendInvitation_Failure_MalformedBody", func(t *testing.T) {
		router := setupInvitationRouter(&fakeInvitationService{invitation: pending}, true)

		body := strings.NewReader(`{"email":`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/invitations/tok/resend", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ResendInvitation_Success_WithEmail", func(t *testing.T) {
		router := setupInvitationRouter(&fakeInvitationService{invitation: pending}, true)

		body := strings.NewReader(`{"email":"new@example.mil"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/invitations/tok/resend", body)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ResendInvitation_Failure_AlreadyAccepted", func(t *testing.T) {
		router := setupInvitationRouter(&fakeInvitationService{err: atat_errors.InvalidInvitationStatus("inv1", "accepted")}, true)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/invitations/tok/resend", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
