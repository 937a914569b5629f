package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvitationExpiry(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	invitation := &Invitation{
		Status:    InvitationStatusPending,
		ExpiresAt: issued.Add(time.Hour),
	}

	// Still pending in the database, but the deadline has passed two hours in.
	assert.False(t, invitation.IsExpiredAt(issued.Add(30*time.Minute)))
	assert.True(t, invitation.IsExpiredAt(issued.Add(2*time.Hour)))
	assert.True(t, invitation.IsPending())
}

func TestInvitationCanResend(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	cases := []struct {
		name      string
		status    InvitationStatus
		expiresAt time.Time
		want      bool
	}{
		{"pending", InvitationStatusPending, future, true},
		{"pending but expired", InvitationStatusPending, past, true},
		{"revoked", InvitationStatusRevoked, future, true},
		{"rejected expired", InvitationStatusRejectedExpired, past, true},
		{"accepted", InvitationStatusAccepted, future, false},
		{"rejected wrong user", InvitationStatusRejectedWrongUser, future, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			invitation := &Invitation{Status: tc.status, ExpiresAt: tc.expiresAt}
			assert.Equal(t, tc.want, invitation.CanResend())
		})
	}
}

func TestInvitationIsInactive(t *testing.T) {
	future := time.Now().UTC().Add(time.Hour)

	assert.False(t, (&Invitation{Status: InvitationStatusPending, ExpiresAt: future}).IsInactive())
	assert.True(t, (&Invitation{Status: InvitationStatusAccepted, ExpiresAt: future}).IsInactive())
	assert.True(t, (&Invitation{Status: InvitationStatusPending, ExpiresAt: time.Now().UTC().Add(-time.Minute)}).IsInactive())
}

func TestNewInvitationToken(t *testing.T) {
	a, err := NewInvitationToken()
	require.NoError(t, err)
	b, err := NewInvitationToken()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	// URL-safe: no padding or reserved characters.
	assert.NotContains(t, a, "=")
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}

func TestInvitationAuditResourceType(t *testing.T) {
	assert.Equal(t, "portfolio_invitation", (&Invitation{ResourceType: InvitationResourcePortfolio}).AuditResourceType())
	assert.Equal(t, "application_invitation", (&Invitation{ResourceType: InvitationResourceApplication}).AuditResourceType())
}

func TestPortfolioRoleDisplayStatus(t *testing.T) {
	future := time.Now().UTC().Add(time.Hour)

	assert.Equal(t, MemberStatusActive, (&PortfolioRole{Status: RoleStatusActive}).DisplayStatus())
	assert.Equal(t, MemberStatusDisabled, (&PortfolioRole{Status: RoleStatusDisabled}).DisplayStatus())
	assert.Equal(t, MemberStatusUnknown, (&PortfolioRole{Status: RoleStatusPending}).DisplayStatus())

	pendingWith := func(inv *Invitation) *PortfolioRole {
		return &PortfolioRole{Status: RoleStatusPending, LatestInvitation: inv}
	}
	assert.Equal(t, MemberStatusPending, pendingWith(&Invitation{Status: InvitationStatusPending, ExpiresAt: future}).DisplayStatus())
	assert.Equal(t, MemberStatusRevoked, pendingWith(&Invitation{Status: InvitationStatusRevoked, ExpiresAt: future}).DisplayStatus())
	assert.Equal(t, MemberStatusError, pendingWith(&Invitation{Status: InvitationStatusRejectedWrongUser, ExpiresAt: future}).DisplayStatus())
	assert.Equal(t, MemberStatusExpired, pendingWith(&Invitation{Status: InvitationStatusRejectedExpired}).DisplayStatus())
	assert.Equal(t, MemberStatusExpired, pendingWith(&Invitation{Status: InvitationStatusPending, ExpiresAt: time.Now().UTC().Add(-time.Minute)}).DisplayStatus())
}
