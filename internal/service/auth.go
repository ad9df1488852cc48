package service

import (
	"context"
	"fmt"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/logger"
	"gearshare-backend/internal/security"
)

var ErrInvalidCredentials = security.ErrInvalidCredentials

type authService struct {
	authenticator *security.Authenticator
	tokens        security.TokenManager
}

func NewAuthService(authenticator *security.Authenticator, tokens security.TokenManager) AuthService {
	return &authService{authenticator: authenticator, tokens: tokens}
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	logger.EnterMethod("authService.Login", "email", email)

	if err := validateStruct(domain.LoginRequest{Email: email, Password: password}); err != nil {
		logger.ExitMethodWithError("authService.Login", err, "reason", "invalid request")
		return nil, err
	}

	canonical, err := s.authenticator.Verify(email, password)
	if err != nil {
		logger.WarnContext(ctx, "Admin login rejected", "email", email)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(canonical)
	if err != nil {
		logger.ExitMethodWithError("authService.Login", err, "reason", "failed to sign token")
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	logger.ExitMethod("authService.Login", "email", canonical)
	return &domain.Session{Token: token, ExpiresAt: expiresAt, Email: canonical}, nil
}
