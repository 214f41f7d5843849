package domain

import (
	"encoding/json"
	"time"
)

// Session represents a conversation thread.
type Session struct {
	SessionID    string          `json:"id"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	MessageCount int             `json:"messageCount"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// Message represents a single message in a session.
type Message struct {
	MessageID string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Text      string          `json:"text"`
	Sender    Sender          `json:"sender"`
	CreatedAt time.Time       `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// SessionMetadata is the JSON document stored in sessions.metadata.
type SessionMetadata struct {
	DisplayName string `json:"displayName,omitempty"`
}

// Turn is one message in vendor-agnostic form.
type Turn struct {
	Role    Sender `json:"role"`
	Content string `json:"content"`
}

// TurnFromMessage maps a persisted message to a turn. Senders map 1:1 to roles.
func TurnFromMessage(m Message) Turn {
	return Turn{Role: m.Sender, Content: m.Text}
}
