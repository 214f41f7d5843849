package domain

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	DisplayName string `json:"displayName,omitempty"`
	// UserName is the field name the web client sends.
	UserName string `json:"userName,omitempty"`
}

// Name returns the display name from whichever field was set.
func (r CreateSessionRequest) Name() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.UserName
}

// CreateSessionResponse is returned after a session is started.
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	Greeting  string `json:"greeting"`
	Message   string `json:"message"`
}

// SendMessageRequest is the body of POST /sessions/:id/messages.
type SendMessageRequest struct {
	Text        string `json:"text"`
	DisplayName string `json:"displayName,omitempty"`
	UserName    string `json:"userName,omitempty"`
}

// Name returns the display name from whichever field was set.
func (r SendMessageRequest) Name() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.UserName
}

// SendMessageResponse carries both sides of a turn.
type SendMessageResponse struct {
	UserMessage *Message `json:"userMessage"`
	AIMessage   *Message `json:"aiMessage"`
	Fallback    bool     `json:"fallback,omitempty"`
	Message     string   `json:"message"`
}

// Pagination describes a page of messages.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// MessagesResponse is returned by GET /sessions/:id/messages.
type MessagesResponse struct {
	Messages   []Message  `json:"messages"`
	Pagination Pagination `json:"pagination"`
	Message    string     `json:"message"`
}

// SessionResponse is returned by GET /sessions/:id.
type SessionResponse struct {
	Session *Session `json:"session"`
	Message string   `json:"message"`
}

// SessionsResponse is returned by GET /sessions.
type SessionsResponse struct {
	Sessions []Session `json:"sessions"`
	Message  string    `json:"message"`
}

// SentimentAnalysis is stored as metadata on user messages.
type SentimentAnalysis struct {
	Sentiment Sentiment `json:"sentiment"`
	Urgency   Urgency   `json:"urgency"`
	Topics    []string  `json:"topics"`
}

// ReplyMetadata is stored as metadata on assistant messages.
type ReplyMetadata struct {
	Provider  string `json:"provider,omitempty"`
	LatencyMs int64  `json:"latencyMs,omitempty"`
	Fallback  bool   `json:"fallback,omitempty"`
	Greeting  bool   `json:"greeting,omitempty"`
}

// FeedEvent is pushed to websocket watchers of a session.
type FeedEvent struct {
	Type      FeedEventType `json:"type"`
	Ts        int64         `json:"ts"`
	SessionID string        `json:"sessionId"`
	Message   *Message      `json:"message,omitempty"`
}
