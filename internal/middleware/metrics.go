package middleware

import (
	"time"

	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MetricsMiddleware records every request under its route template and logs it
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)
		if err != nil {
			// let the error handler write the response so the status below is final
			c.Error(err)
		}

		duration := time.Since(start)
		status := c.Response().Status
		path := c.Path()
		if path == "" {
			path = "unmatched"
		}

		prometheus.RecordHTTPRequest(c.Request().Method, path, status, duration)

		logger.FromContext(c).Info("HTTP Request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", status),
			zap.Float64("duration_s", duration.Seconds()),
			zap.String("ip", c.RealIP()),
		)

		return nil
	}
}
