package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	status, code := "healthy", http.StatusOK
	if err := h.service.Ping(c.Request().Context()); err != nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]interface{}{
		"status":      status,
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		"uptime":      time.Since(h.startedAt).Seconds(),
		"environment": h.environment,
		"version":     Version,
	})
}

// AIHealth checks the active provider.
func (h *Handler) AIHealth(c echo.Context) error {
	greeting, err := h.service.CheckProvider(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":     "unhealthy",
			"aiProvider": h.service.ProviderName(),
			"error":      err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":       "healthy",
		"aiProvider":   h.service.ProviderName(),
		"testResponse": greeting,
	})
}
