package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/companion/internal/domain"
	"github.com/xiaot623/companion/internal/service"
	"go.uber.org/zap"
)

// Error codes returned in the error body.
const (
	CodeValidation    = "validation_error"
	CodeNotFound      = "not_found"
	CodeAIUnavailable = "ai_unavailable"
	CodeInternal      = "internal_error"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Kind    string `json:"kind,omitempty"`
}

func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorBody{Error: ErrorDetail{Message: message, Code: code}})
}

// respondError maps a service error to its HTTP status. fallback is the message
// used for unexpected failures.
func (h *Handler) respondError(c echo.Context, err error, fallback string) error {
	var genErr *service.GenerationError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return errorJSON(c, http.StatusBadRequest, CodeValidation, validationMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, CodeNotFound, "Session not found")
	case errors.As(err, &genErr):
		return c.JSON(http.StatusServiceUnavailable, ErrorBody{Error: ErrorDetail{
			Message: genErr.UserMessage(),
			Code:    CodeAIUnavailable,
			Kind:    string(genErr.Kind),
		}})
	default:
		h.logger.Error(fallback, zap.String("path", c.Path()), zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, CodeInternal, fallback)
	}
}

// validationMessage strips the sentinel prefix from a validation error.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, domain.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(domain.ErrValidation.Error())+2:]
	}
	return msg
}
