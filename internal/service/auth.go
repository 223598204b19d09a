package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/repository"
	"vendor-service/pkg/jwtutil"
	"vendor-service/prometheus"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Tokens is the result of a successful login or refresh
type Tokens struct {
	Access           string     `json:"access"`
	AccessExpiresAt  time.Time  `json:"access_expires_at"`
	Refresh          string     `json:"refresh,omitempty"`
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty"`
}

// AuthService authenticates administrators
type AuthService struct {
	store *repository.Store
	log   *zap.Logger
}

// NewAuthService creates an auth service
func NewAuthService(store *repository.Store, log *zap.Logger) *AuthService {
	return &AuthService{store: store, log: log}
}

// EnsureAdmin creates the bootstrap administrator unless one with that name exists
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		s.log.Warn("No bootstrap admin configured")
		return nil
	}

	_, err := s.store.GetAdminByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	err = s.store.CreateAdmin(ctx, &model.AdminUser{Username: username, Password: string(hashed)})
	if errors.Is(err, repository.ErrDuplicate) {
		// another replica won the race
		return nil
	}
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	s.log.Info("Bootstrap admin created", zap.String("username", username))
	return nil
}

// Login checks the credentials and issues an access and a refresh token
func (s *AuthService) Login(ctx context.Context, username, password string) (*Tokens, error) {
	user, err := s.store.GetAdminByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		prometheus.RecordAuthError("user_not_found")
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return nil, ErrUnauthorized
	}

	tokens, err := s.issue(user.ID, user.Username, true)
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return nil, err
	}

	if err := s.store.TouchAdminLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.log.Warn("Failed to record last login", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	s.log.Info("Admin logged in", zap.String("username", user.Username))
	return tokens, nil
}

// Refresh exchanges a refresh token for a new access token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	claims, err := jwtutil.ValidateToken(refreshToken, jwtutil.TokenTypeRefresh)
	if err != nil {
		prometheus.RecordAuthError("invalid_refresh_token")
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	// the account may have been removed since the token was issued
	if _, err := s.store.GetAdminByUsername(ctx, claims.Username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			prometheus.RecordAuthError("user_not_found")
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	return s.issue(claims.UserID, claims.Username, false)
}

func (s *AuthService) issue(userID uint, username string, withRefresh bool) (*Tokens, error) {
	access, accessExp, err := jwtutil.GenerateAccessToken(userID, username)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	tokens := &Tokens{Access: access, AccessExpiresAt: accessExp}
	if !withRefresh {
		return tokens, nil
	}

	refresh, refreshExp, err := jwtutil.GenerateRefreshToken(userID, username)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	tokens.Refresh = refresh
	tokens.RefreshExpiresAt = &refreshExp
	return tokens, nil
}
