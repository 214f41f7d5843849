package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/xiaot623/companion/internal/domain"
	"go.uber.org/zap"
)

// CreateSession starts a session and persists its greeting as the first message.
func (s *Service) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.Session, *domain.Message, error) {
	name, err := normalizeDisplayName(req.Name())
	if err != nil {
		return nil, nil, err
	}

	var metadata json.RawMessage
	if name != "" {
		metadata, err = json.Marshal(domain.SessionMetadata{DisplayName: name})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode session metadata: %w", err)
		}
	}

	replyMeta, err := json.Marshal(domain.ReplyMetadata{Greeting: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode greeting metadata: %w", err)
	}

	session, err := s.store.CreateSession(ctx, metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	greeting, err := s.store.AppendMessage(ctx, session.SessionID, s.Greeting(name), domain.SenderAssistant, replyMeta)
	if err != nil {
		if delErr := s.store.DeleteSession(context.WithoutCancel(ctx), session.SessionID); delErr != nil {
			s.logger.Error("failed to remove session without greeting",
				zap.String("session_id", session.SessionID), zap.Error(delErr))
		}
		return nil, nil, fmt.Errorf("failed to save greeting: %w", err)
	}
	session.MessageCount++
	session.UpdatedAt = greeting.CreatedAt
	s.publish(greeting)

	s.logger.Info("session created",
		zap.String("session_id", session.SessionID),
		zap.Bool("personalized", name != ""))
	return session, greeting, nil
}

// GetSession returns the session or an error wrapping domain.ErrNotFound.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return session, nil
}

// ListMessages returns one page of a session's messages and the session's total.
func (s *Service) ListMessages(ctx context.Context, sessionID string, page, limit int) ([]domain.Message, int, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	// A page whose offset does not fit in an int is past any real history.
	if page-1 > math.MaxInt/limit {
		return []domain.Message{}, session.MessageCount, nil
	}
	messages, err := s.store.ListMessages(ctx, sessionID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, session.MessageCount, nil
}

// ListRecentSessions returns sessions by last activity, newest first.
func (s *Service) ListRecentSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	sessions, err := s.store.ListRecentSessions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session and its messages.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Info("session deleted", zap.String("session_id", sessionID))
	return nil
}

// displayName returns the name stored with the session, if any.
func displayName(session *domain.Session) string {
	if len(session.Metadata) == 0 {
		return ""
	}
	var meta domain.SessionMetadata
	if err := json.Unmarshal(session.Metadata, &meta); err != nil {
		return ""
	}
	return meta.DisplayName
}
