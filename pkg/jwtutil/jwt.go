package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"vendor-service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenTypeAccess authorizes API calls
	TokenTypeAccess = "access"
	// TokenTypeRefresh can only be exchanged for a new access token
	TokenTypeRefresh = "refresh"

	// RoleAdmin is the only role the service issues
	RoleAdmin = "admin"
)

var (
	jwtConfig *config.JWTConfig

	// ErrWrongTokenType is returned when a refresh token is used as an access token or vice versa
	ErrWrongTokenType = errors.New("wrong token type")
)

// AdminClaims identifies an administrator
type AdminClaims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Initialize sets up the JWT utility with configuration
func Initialize(config *config.JWTConfig) {
	jwtConfig = config
}

// GenerateAccessToken creates a short lived token for API calls
func GenerateAccessToken(userID uint, username string) (string, time.Time, error) {
	if jwtConfig == nil {
		return "", time.Time{}, errors.New("JWT configuration not initialized")
	}
	return generate(userID, username, TokenTypeAccess, time.Duration(jwtConfig.ExpirationHours)*time.Hour)
}

// GenerateRefreshToken creates a long lived token that can mint new access tokens
func GenerateRefreshToken(userID uint, username string) (string, time.Time, error) {
	if jwtConfig == nil {
		return "", time.Time{}, errors.New("JWT configuration not initialized")
	}
	return generate(userID, username, TokenTypeRefresh, time.Duration(jwtConfig.RefreshExpirationHours)*time.Hour)
}

func generate(userID uint, username, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := &AdminClaims{
		UserID:    userID,
		Username:  username,
		Role:      RoleAdmin,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtConfig.SigningKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken validates the token and checks that it is of the expected type
func ValidateToken(tokenString, tokenType string) (*AdminClaims, error) {
	if jwtConfig == nil {
		return nil, errors.New("JWT configuration not initialized")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&AdminClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtConfig.SigningKey), nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
