package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"vendor-service/internal/repository"
	"vendor-service/internal/service"
	"vendor-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP statuses. Client errors are echoed
// back; anything unexpected is logged and answered with msg.
func respondError(c echo.Context, err error, msg string) error {
	log := logger.FromContext(c)

	var status int
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrAlreadyAcknowledged):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	default:
		log.Error(msg, zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
	}

	log.Warn(msg, zap.Int("status", status), zap.Error(err))
	return c.JSON(status, echo.Map{"error": err.Error()})
}

// bind decodes the body into req and runs its validate tags.
// Both kinds of failure come back as service.ErrValidation.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: malformed request body", service.ErrValidation)
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", service.ErrValidation, err)
	}
	return nil
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", service.ErrValidation, name, c.Param(name))
	}
	return uint(id), nil
}

func parsePage(c echo.Context) repository.Page {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return repository.Page{Page: page, Limit: limit}.Normalize()
}

func paginated(data interface{}, total int64, page repository.Page) echo.Map {
	return echo.Map{
		"data": data,
		"pagination": echo.Map{
			"total":        total,
			"current_page": page.Page,
			"limit":        page.Limit,
			"total_pages":  (int(total) + page.Limit - 1) / page.Limit,
		},
	}
}
