package handler

import (
	"context"
	"net/http"
	"time"

	"vendor-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Pinger is anything whose liveness the health check reports
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness endpoints
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a health handler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Hello answers on the service root
func (h *HealthHandler) Hello(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "vendor-service"})
}

// Health reports whether the database is reachable
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logger.FromContext(c).Error("Health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "database": "down"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "database": "up"})
}
