package middleware

import (
	"vendor-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestIDKey is the header carrying the request id
const RequestIDKey = "X-Request-ID"

// RequestIDMiddleware reuses the caller's request id or assigns one, and binds a
// logger carrying it to both the echo and the request context
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(RequestIDKey)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Response().Header().Set(RequestIDKey, requestID)

		log := logger.FromContext(c).With(zap.String("request_id", requestID))
		c.Set("logger", log)
		c.SetRequest(c.Request().WithContext(logger.WithLogger(c.Request().Context(), log)))

		return next(c)
	}
}
