package service

import (
	"errors"
	"testing"
	"time"

	"github.com/wholesale-portal/internal/config"
	"github.com/wholesale-portal/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIssueAndParse(t *testing.T) {
	svc := NewSessionService(&config.SessionConfig{Secret: "test-secret", ExpireHours: 2, Issuer: "portal"})

	token, expiresAt, err := svc.Issue(Session{Role: constants.RoleRetailer, CompanyID: 12, UserID: 3})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), expiresAt, time.Minute)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, Session{Role: constants.RoleRetailer, CompanyID: 12, UserID: 3}, claims.Session())
}

func TestSessionParseRejectsWrongSecret(t *testing.T) {
	issuer := NewSessionService(&config.SessionConfig{Secret: "a"})
	parser := NewSessionService(&config.SessionConfig{Secret: "b"})

	token, _, err := issuer.Issue(Session{Role: constants.RoleAdmin, UserID: 1})
	require.NoError(t, err)
	_, err = parser.Parse(token)
	assert.Error(t, err)
}

func TestSessionParseRejectsExpiredToken(t *testing.T) {
	svc := NewSessionService(&config.SessionConfig{Secret: "s", ExpireHours: 1})
	svc.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	token, _, err := svc.Issue(Session{Role: constants.RoleSalesRep, UserID: 9})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.Parse(token)
	assert.Error(t, err)
}

func TestSessionIssueRequiresCompanyForRetailer(t *testing.T) {
	svc := NewSessionService(&config.SessionConfig{Secret: "s"})
	_, _, err := svc.Issue(Session{Role: constants.RoleRetailer, UserID: 1})
	assert.True(t, errors.Is(err, ErrInvalidSession))

	_, _, err = svc.Issue(Session{Role: "guest", CompanyID: 1, UserID: 1})
	assert.ErrorIs(t, err, ErrInvalidSession)
}
