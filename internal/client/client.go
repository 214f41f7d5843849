// Package client provides a Go client for the companion chat API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xiaot623/companion/internal/domain"
)

// APIError is a non-success response from the API.
type APIError struct {
	StatusCode int
	Code       string
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error [%d %s]: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error [%d]: %s", e.StatusCode, e.Message)
}

// Client talks to the chat API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:3001.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// CreateSession starts a session. displayName may be empty.
func (c *Client) CreateSession(ctx context.Context, displayName string) (*domain.CreateSessionResponse, error) {
	var resp domain.CreateSessionResponse
	req := domain.CreateSessionRequest{DisplayName: displayName}
	if err := c.do(ctx, http.MethodPost, "/api/chat/sessions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendMessage posts text to a session and returns both stored messages.
func (c *Client) SendMessage(ctx context.Context, sessionID, text, displayName string) (*domain.SendMessageResponse, error) {
	var resp domain.SendMessageResponse
	req := domain.SendMessageRequest{Text: text, DisplayName: displayName}
	if err := c.do(ctx, http.MethodPost, "/api/chat/sessions/"+url.PathEscape(sessionID)+"/messages", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListMessages returns one page of a session's history.
func (c *Client) ListMessages(ctx context.Context, sessionID string, page, limit int) (*domain.MessagesResponse, error) {
	var resp domain.MessagesResponse
	path := fmt.Sprintf("/api/chat/sessions/%s/messages?page=%d&limit=%d", url.PathEscape(sessionID), page, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListSessions returns the most recently active sessions.
func (c *Client) ListSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	var resp domain.SessionsResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/chat/sessions?limit=%d", limit), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// Follow streams the session's feed events to fn until ctx is done, the server
// closes the feed, or fn returns an error.
func (c *Client) Follow(ctx context.Context, sessionID string, fn func(domain.FeedEvent) error) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/chat/sessions/" + url.PathEscape(sessionID) + "/feed"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read feed: %w", err)
		}
		var ev domain.FeedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var body struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
			Kind    string `json:"kind"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		apiErr.Code = body.Error.Code
		apiErr.Kind = body.Error.Kind
		apiErr.Message = body.Error.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(data))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
