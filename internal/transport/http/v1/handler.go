// Package v1 provides HTTP handlers for the chat API.
package v1

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/companion/internal/feed"
	"github.com/xiaot623/companion/internal/service"
	"go.uber.org/zap"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Handler handles HTTP requests.
type Handler struct {
	service     *service.Service
	feed        *feed.Server
	environment string
	startedAt   time.Time
	logger      *zap.Logger
}

// NewHandler creates a new handler. feedServer may be nil, which disables the
// session feed route.
func NewHandler(service *service.Service, feedServer *feed.Server, environment string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:     service,
		feed:        feedServer,
		environment: environment,
		startedAt:   time.Now(),
		logger:      logger,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Chat API
	chat := e.Group("/api/chat")
	chat.POST("/sessions", h.CreateSession)
	chat.GET("/sessions", h.ListSessions)
	chat.GET("/sessions/:session_id", h.GetSession)
	chat.DELETE("/sessions/:session_id", h.DeleteSession)
	chat.GET("/sessions/:session_id/messages", h.GetSessionMessages)
	chat.POST("/sessions/:session_id/messages", h.SendMessage)
	if h.feed != nil {
		chat.GET("/sessions/:session_id/feed", h.SessionFeed)
	}

	// Health
	for _, prefix := range []string{"", "/api"} {
		e.GET(prefix+"/health", h.Health)
		e.GET(prefix+"/health/ai", h.AIHealth)
	}
}
