package handler

import (
	"net/http"

	"vendor-service/internal/service"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// LoginRequest holds administrator credentials
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest holds a refresh token
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// AuthHandler issues admin tokens
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login exchanges credentials for an access and a refresh token
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAuthAttempt()

	var req LoginRequest
	if err := bind(c, &req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return respondError(c, err, "Invalid login request")
	}

	tokens, err := h.auth.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err, "Failed to log in")
	}

	prometheus.RecordAuthSuccess()
	log.Info("Admin tokens issued", zap.String("username", req.Username))
	return c.JSON(http.StatusOK, echo.Map{"code": http.StatusOK, "data": tokens})
}

// Refresh exchanges a refresh token for a new access token
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "Invalid refresh request")
	}

	tokens, err := h.auth.Refresh(c.Request().Context(), req.Refresh)
	if err != nil {
		return respondError(c, err, "Failed to refresh token")
	}
	return c.JSON(http.StatusOK, tokens)
}
