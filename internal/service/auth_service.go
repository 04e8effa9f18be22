package service

import (
	"context"
	"fmt"

	"matchlink/internal/domain"
	"matchlink/internal/security"
)

// AuthService verifies credentials and mints the tokens the realtime channel
// later verifies. Account registration lives in the external account service.
type AuthService struct {
	profiles domain.ProfileRepository
	tokens   *security.TokenService
	hash     *security.PasswordHasher
}

func NewAuthService(profiles domain.ProfileRepository, tokens *security.TokenService, hash *security.PasswordHasher) *AuthService {
	return &AuthService{
		profiles: profiles,
		tokens:   tokens,
		hash:     hash,
	}
}

type LoginInput struct {
	Username string
	Password string
}

type TokenResponse struct {
	AccessToken string                 `json:"access_token"`
	TokenType   string                 `json:"token_type"`
	Profile     *domain.ProfileSummary `json:"profile"`
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	profile, err := s.profiles.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := s.hash.Verify(in.Password, profile.HashedPassword); err != nil {
		return nil, domain.ErrUnauthorized
	}

	token, err := s.tokens.CreateForUser(profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Profile:     profile.Summary(),
	}, nil
}
