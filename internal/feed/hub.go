// Package feed pushes persisted messages to websocket watchers of a session.
package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/xiaot623/companion/internal/domain"
	"go.uber.org/zap"
)

// Watcher is one websocket connection following a session.
type Watcher struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
	mu        sync.Mutex
}

// Hub fans session events out to watchers.
type Hub struct {
	// Watchers indexed by session_id, then watcher ID
	sessions map[string]map[string]*Watcher

	register   chan *Watcher
	unregister chan *Watcher
	broadcast  chan *sessionEvent

	logger *zap.Logger
	mu     sync.RWMutex
	done   chan struct{}
}

type sessionEvent struct {
	SessionID string
	Data      []byte
}

// NewHub creates a new Hub. Run must be started before watchers register.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions:   make(map[string]map[string]*Watcher),
		register:   make(chan *Watcher),
		unregister: make(chan *Watcher),
		broadcast:  make(chan *sessionEvent, 256),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is done, after closing every
// watcher's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for sessionID, watchers := range h.sessions {
				for _, w := range watchers {
					close(w.Send)
				}
				delete(h.sessions, sessionID)
			}
			h.mu.Unlock()
			return

		case w := <-h.register:
			h.mu.Lock()
			if h.sessions[w.SessionID] == nil {
				h.sessions[w.SessionID] = make(map[string]*Watcher)
			}
			h.sessions[w.SessionID][w.ID] = w
			h.mu.Unlock()
			h.logger.Debug("watcher registered", zap.String("watcher_id", w.ID), zap.String("session_id", w.SessionID))

		case w := <-h.unregister:
			h.remove(w)

		case ev := <-h.broadcast:
			h.mu.RLock()
			var slow []*Watcher
			for _, w := range h.sessions[ev.SessionID] {
				select {
				case w.Send <- ev.Data:
				default:
					slow = append(slow, w)
				}
			}
			h.mu.RUnlock()
			for _, w := range slow {
				h.logger.Warn("watcher buffer full, dropping", zap.String("watcher_id", w.ID))
				h.remove(w)
			}
		}
	}
}

func (h *Hub) remove(w *Watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	watchers, ok := h.sessions[w.SessionID]
	if !ok {
		return
	}
	if _, ok := watchers[w.ID]; !ok {
		return
	}
	delete(watchers, w.ID)
	if len(watchers) == 0 {
		delete(h.sessions, w.SessionID)
	}
	close(w.Send)
	h.logger.Debug("watcher unregistered", zap.String("watcher_id", w.ID))
}

// NewWatcher creates a watcher for sessionID. It is not registered yet.
func (h *Hub) NewWatcher(ws *websocket.Conn, sessionID string) *Watcher {
	return &Watcher{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Conn:      ws,
		Send:      make(chan []byte, 64),
	}
}

// Register adds a watcher. It returns false once the hub has stopped.
func (h *Hub) Register(w *Watcher) bool {
	select {
	case h.register <- w:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a watcher; removing an unknown watcher is a no-op.
func (h *Hub) Unregister(w *Watcher) {
	select {
	case h.unregister <- w:
	case <-h.done:
	}
}

// Publish implements service.Notifier. It never blocks the caller; events are
// dropped when the hub is saturated or stopped.
func (h *Hub) Publish(sessionID string, msg *domain.Message) {
	data, err := json.Marshal(domain.FeedEvent{
		Type:      domain.FeedEventMessageCreated,
		Ts:        time.Now().UnixMilli(),
		SessionID: sessionID,
		Message:   msg,
	})
	if err != nil {
		h.logger.Error("failed to encode feed event", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- &sessionEvent{SessionID: sessionID, Data: data}:
	case <-h.done:
	default:
		h.logger.Warn("feed broadcast queue full, dropping event", zap.String("session_id", sessionID))
	}
}

// WatcherCount returns the number of watchers of a session.
func (h *Hub) WatcherCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// WriteMessage writes a message to the connection with proper locking.
func (w *Watcher) WriteMessage(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteMessage(messageType, data)
}
