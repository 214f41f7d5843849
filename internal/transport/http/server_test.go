package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/companion/internal/adapter/llm"
	"github.com/xiaot623/companion/internal/config"
	"github.com/xiaot623/companion/internal/domain"
	"github.com/xiaot623/companion/internal/feed"
	"github.com/xiaot623/companion/internal/service"
	"github.com/xiaot623/companion/policy"
	"github.com/xiaot623/companion/tests/helpers"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	cfg := &config.Config{
		Environment:   "test",
		CORSOrigins:   []string{"http://localhost:3000"},
		HistoryWindow: 10,
		LLMTimeout:    time.Second,
	}
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	require.NoError(t, err)

	hub := feed.NewHub(zap.NewNop())
	go hub.Run(ctx)

	svc := service.New(helpers.NewTestSQLiteStore(t), llm.NewMockProvider(), engine, hub, cfg, zap.NewNop())
	e := NewServer(svc, feed.NewServer(hub, cfg.CORSOrigins, zap.NewNop()), cfg, zap.NewNop())
	ts := httptest.NewServer(e)

	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return ts
}

func postJSON(t *testing.T, url, body string, out interface{}) int {
	t.Helper()
	resp, err := http.Post(url, echo.MIMEApplicationJSON, bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServer_HealthRoutes(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/health", "/api/health", "/health/ai", "/api/health/ai"} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get(echo.HeaderXRequestID))
		})
	}
}

func TestServer_CORS(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/chat/sessions", nil)
	require.NoError(t, err)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:3000")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get(echo.HeaderAccessControlAllowOrigin))
}

func TestServer_BodyLimit(t *testing.T) {
	ts := newTestServer(t)

	var created domain.CreateSessionResponse
	require.Equal(t, http.StatusCreated, postJSON(t, ts.URL+"/api/chat/sessions", "", &created))

	body := `{"text":"` + strings.Repeat("a", 70*1024) + `"}`
	status := postJSON(t, ts.URL+"/api/chat/sessions/"+created.SessionID+"/messages", body, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
}

func TestServer_ConversationFeed(t *testing.T) {
	ts := newTestServer(t)

	var created domain.CreateSessionResponse
	require.Equal(t, http.StatusCreated, postJSON(t, ts.URL+"/api/chat/sessions", `{"displayName":"Sam"}`, &created))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/chat/sessions/" + created.SessionID + "/feed"
	header := http.Header{}
	header.Set("Origin", "http://localhost:3000")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	read := func() domain.FeedEvent {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev domain.FeedEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	}
	require.Equal(t, domain.FeedEventReady, read().Type)

	var sent domain.SendMessageResponse
	status := postJSON(t, ts.URL+"/api/chat/sessions/"+created.SessionID+"/messages", `{"text":"hello there"}`, &sent)
	require.Equal(t, http.StatusOK, status)

	userEv := read()
	assert.Equal(t, domain.FeedEventMessageCreated, userEv.Type)
	require.NotNil(t, userEv.Message)
	assert.Equal(t, sent.UserMessage.MessageID, userEv.Message.MessageID)

	aiEv := read()
	require.NotNil(t, aiEv.Message)
	assert.Equal(t, domain.SenderAssistant, aiEv.Message.Sender)
	assert.Equal(t, sent.AIMessage.MessageID, aiEv.Message.MessageID)
}

func TestServer_FeedRejectsForeignOrigin(t *testing.T) {
	ts := newTestServer(t)

	var created domain.CreateSessionResponse
	require.Equal(t, http.StatusCreated, postJSON(t, ts.URL+"/api/chat/sessions", "", &created))

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/chat/sessions/" + created.SessionID + "/feed"
	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}
