package middleware

import (
	"net/http"
	"strings"

	"vendor-service/pkg/jwtutil"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware only lets requests with a valid admin access token through
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		prometheus.RecordAuthAttempt()

		tokenString := c.Request().Header.Get("Authorization")
		if tokenString == "" {
			log.Warn("Missing authorization token")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}

		// Remove "Bearer " prefix if present
		if len(tokenString) > 7 && strings.ToUpper(tokenString[0:7]) == "BEARER " {
			tokenString = tokenString[7:]
		}

		claims, err := jwtutil.ValidateToken(tokenString, jwtutil.TokenTypeAccess)
		if err != nil {
			log.Warn("Invalid token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}
		if claims.Role != jwtutil.RoleAdmin {
			log.Warn("Token without admin role", zap.String("username", claims.Username))
			prometheus.RecordAuthError("forbidden")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
		}

		prometheus.RecordAuthSuccess()

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)

		log = log.With(
			zap.Uint("user_id", claims.UserID),
			zap.String("username", claims.Username),
		)
		c.Set("logger", log)
		c.SetRequest(c.Request().WithContext(logger.WithLogger(c.Request().Context(), log)))

		return next(c)
	}
}
