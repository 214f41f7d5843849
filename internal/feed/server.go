package feed

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/xiaot623/companion/internal/domain"
	"go.uber.org/zap"
)

const (
	writeTimeout   = 10 * time.Second
	readTimeout    = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 512
)

// Server upgrades feed requests and pumps hub events to the connection.
type Server struct {
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new feed server. allowedOrigins of "*" or empty accepts
// any origin.
func NewServer(h *Hub, allowedOrigins []string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		hub:    h,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Serve upgrades the request and follows sessionID until the client leaves.
// The session must already be known to exist.
func (s *Server) Serve(c echo.Context, sessionID string) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("failed to upgrade websocket", zap.Error(err))
		return nil
	}

	w := s.hub.NewWatcher(ws, sessionID)
	// Queued before registration so it always precedes session events.
	ready, _ := json.Marshal(domain.FeedEvent{
		Type:      domain.FeedEventReady,
		Ts:        time.Now().UnixMilli(),
		SessionID: sessionID,
	})
	w.Send <- ready

	if !s.hub.Register(w) {
		ws.Close()
		return nil
	}

	ws.SetReadLimit(maxMessageSize)

	go s.writePump(w)
	go s.readPump(w)

	return nil
}

// readPump only services control frames; watchers never send events.
func (s *Server) readPump(w *Watcher) {
	defer func() {
		s.hub.Unregister(w)
		w.Conn.Close()
	}()

	w.Conn.SetReadDeadline(time.Now().Add(readTimeout))
	w.Conn.SetPongHandler(func(string) error {
		w.Conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		if _, _, err := w.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket closed", zap.String("watcher_id", w.ID), zap.Error(err))
			}
			return
		}
	}
}

func (s *Server) writePump(w *Watcher) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		w.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-w.Send:
			w.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Hub closed the channel
				w.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := w.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Debug("failed to write feed event", zap.Error(err))
				return
			}

		case <-ticker.C:
			w.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := w.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
