// Package store defines the storage interface and implementations.
package store

import (
	"context"
	"encoding/json"

	"github.com/xiaot623/companion/internal/domain"
)

// Store defines the interface for conversation persistence.
//
// AppendMessage keeps the owning session's message count and update time in step
// with the inserted row; callers never maintain those fields themselves.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, metadata json.RawMessage) (*domain.Session, error)
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ListRecentSessions(ctx context.Context, limit int) ([]domain.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Message operations
	AppendMessage(ctx context.Context, sessionID, text string, sender domain.Sender, metadata json.RawMessage) (*domain.Message, error)
	ListMessages(ctx context.Context, sessionID string, limit, offset int) ([]domain.Message, error)
	ListRecentMessages(ctx context.Context, sessionID string, n int) ([]domain.Message, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
