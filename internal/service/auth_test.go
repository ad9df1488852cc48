package service

import (
	"context"
	"testing"
	"time"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (AuthService, security.TokenManager) {
	t.Helper()
	hash, err := security.HashPassword("correct horse")
	require.NoError(t, err)
	tokens := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	auth := security.NewAuthenticator([]config.AdminLogin{{Email: "Admin@GearShare.test", PasswordHash: hash}})
	return NewAuthService(auth, tokens), tokens
}

func TestAuthService_Login(t *testing.T) {
	svc, tokens := newAuthFixture(t)

	session, err := svc.Login(context.Background(), "admin@gearshare.test", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "admin@gearshare.test", session.Email)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	claims, err := tokens.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@gearshare.test", claims.Email)
}

func TestAuthService_LoginRejected(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "admin@gearshare.test", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@gearshare.test", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "not-an-email", "")
	assert.True(t, domain.IsValidation(err))
}
