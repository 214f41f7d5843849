package v1

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/companion/internal/domain"
)

// CreateSession starts a session and returns its greeting.
// POST /api/chat/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	var req domain.CreateSessionRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, CodeValidation, "invalid request body")
		}
	}

	session, greeting, err := h.service.CreateSession(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err, "Failed to create chat session")
	}

	return c.JSON(http.StatusCreated, domain.CreateSessionResponse{
		SessionID: session.SessionID,
		Greeting:  greeting.Text,
		Message:   "New chat session created successfully",
	})
}

// GetSession returns a session.
// GET /api/chat/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return h.respondError(c, err, "")
	}

	session, err := h.service.GetSession(c.Request().Context(), id)
	if err != nil {
		return h.respondError(c, err, "Failed to retrieve session")
	}

	return c.JSON(http.StatusOK, domain.SessionResponse{
		Session: session,
		Message: "Session retrieved successfully",
	})
}

// ListSessions returns the most recently active sessions.
// GET /api/chat/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	limit, err := intQuery(c, "limit", defaultSessionsLimit, 1, maxLimit)
	if err != nil {
		return h.respondError(c, err, "")
	}

	sessions, err := h.service.ListRecentSessions(c.Request().Context(), limit)
	if err != nil {
		return h.respondError(c, err, "Failed to retrieve recent sessions")
	}

	return c.JSON(http.StatusOK, domain.SessionsResponse{
		Sessions: sessions,
		Message:  "Recent sessions retrieved successfully",
	})
}

// DeleteSession removes a session and its messages.
// DELETE /api/chat/sessions/:session_id
func (h *Handler) DeleteSession(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return h.respondError(c, err, "")
	}

	if err := h.service.DeleteSession(c.Request().Context(), id); err != nil {
		return h.respondError(c, err, "Failed to delete session")
	}
	return c.NoContent(http.StatusNoContent)
}

// SessionFeed upgrades to a websocket that receives the session's new messages.
// GET /api/chat/sessions/:session_id/feed
func (h *Handler) SessionFeed(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return h.respondError(c, err, "")
	}

	if _, err := h.service.GetSession(c.Request().Context(), id); err != nil {
		return h.respondError(c, err, fmt.Sprintf("Failed to open feed for session %s", id))
	}
	return h.feed.Serve(c, id)
}
