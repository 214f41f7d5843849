package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/companion/internal/domain"
)

// GetSessionMessages retrieves one page of a session's messages, oldest first.
// GET /api/chat/sessions/:session_id/messages?page&limit
func (h *Handler) GetSessionMessages(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return h.respondError(c, err, "")
	}
	page, err := intQuery(c, "page", 1, 1, 0)
	if err != nil {
		return h.respondError(c, err, "")
	}
	limit, err := intQuery(c, "limit", defaultMessagesLimit, 1, maxLimit)
	if err != nil {
		return h.respondError(c, err, "")
	}

	messages, total, err := h.service.ListMessages(c.Request().Context(), id, page, limit)
	if err != nil {
		return h.respondError(c, err, "Failed to retrieve messages")
	}

	return c.JSON(http.StatusOK, domain.MessagesResponse{
		Messages: messages,
		Pagination: domain.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
		},
		Message: "Messages retrieved successfully",
	})
}

// SendMessage stores the user's message and returns it with the reply.
// POST /api/chat/sessions/:session_id/messages
func (h *Handler) SendMessage(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return h.respondError(c, err, "")
	}

	var req domain.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, CodeValidation, "invalid request body")
	}

	reply, err := h.service.Respond(c.Request().Context(), id, req)
	if err != nil {
		return h.respondError(c, err, "Failed to process message")
	}

	return c.JSON(http.StatusOK, domain.SendMessageResponse{
		UserMessage: reply.UserMessage,
		AIMessage:   reply.AIMessage,
		Fallback:    reply.Fallback,
		Message:     "Message sent and response generated successfully",
	})
}
