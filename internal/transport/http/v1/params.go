package v1

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/companion/internal/domain"
	"github.com/xiaot623/companion/internal/service"
)

const (
	maxLimit             = 100
	defaultMessagesLimit = 20
	defaultSessionsLimit = 10
)

// sessionID returns the validated :session_id path parameter.
func sessionID(c echo.Context) (string, error) {
	id := c.Param("session_id")
	if err := service.ValidateSessionID(id); err != nil {
		return "", err
	}
	return id, nil
}

// intQuery parses an integer query parameter bounded to [min, max].
func intQuery(c echo.Context, name string, def, min, max int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	if v < min || (max > 0 && v > max) {
		if max > 0 {
			return 0, fmt.Errorf("%w: %s must be between %d and %d", domain.ErrValidation, name, min, max)
		}
		return 0, fmt.Errorf("%w: %s must be at least %d", domain.ErrValidation, name, min)
	}
	return v, nil
}
