package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/companion/internal/adapter/llm"
	"github.com/xiaot623/companion/internal/config"
	"github.com/xiaot623/companion/internal/domain"
	store "github.com/xiaot623/companion/internal/repository"
	"github.com/xiaot623/companion/internal/service"
	"github.com/xiaot623/companion/policy"
	"github.com/xiaot623/companion/tests/helpers"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, provider llm.Provider) (*Handler, store.Store) {
	t.Helper()
	cfg := &config.Config{Environment: "test", HistoryWindow: 10, LLMTimeout: time.Second}
	db := helpers.NewTestSQLiteStore(t)
	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	svc := service.New(db, provider, policyEngine, nil, cfg, zap.NewNop())
	return NewHandler(svc, nil, cfg.Environment, zap.NewNop()), db
}

func jsonRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func createSession(t *testing.T, h *Handler, body string) string {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/chat/sessions", body), rec)
	require.NoError(t, h.CreateSession(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp domain.CreateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.SessionID
}

func TestCreateSession(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t, llm.NewMockProvider())

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/chat/sessions", `{"displayName":"Ana"}`), rec)
	require.NoError(t, h.CreateSession(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp domain.CreateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Contains(t, resp.Greeting, "Ana")
	assert.Equal(t, "New chat session created successfully", resp.Message)

	messages, err := db.ListMessages(context.Background(), resp.SessionID, 10, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, domain.SenderAssistant, messages[0].Sender)
	assert.Equal(t, resp.Greeting, messages[0].Text)
}

func TestCreateSessionEmptyBody(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, llm.NewMockProvider())

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/chat/sessions", ""), rec)
	require.NoError(t, h.CreateSession(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateSessionInvalidBody(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, llm.NewMockProvider())

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/chat/sessions", `{"displayName":`), rec)
	require.NoError(t, h.CreateSession(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, decodeError(t, rec).Code)
}

func TestGetSession(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, llm.NewMockProvider())
	id := createSession(t, h, "")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/chat/sessions/"+id, nil), rec)
	c.SetParamNames("session_id")
	c.SetParamValues(id)
	require.NoError(t, h.GetSession(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Session)
	assert.Equal(t, id, resp.Session.SessionID)
	assert.Equal(t, 1, resp.Session.MessageCount)
	assert.Equal(t, "Session retrieved successfully", resp.Message)
}

func TestGetSessionErrors(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		status int
		code   string
	}{
		{name: "malformed id", id: "not-a-uuid", status: http.StatusBadRequest, code: CodeValidation},
		{name: "unknown id", id: "9b2f6a0e-4c1d-4f7e-8a3b-2d5c6e7f8a9b", status: http.StatusNotFound, code: CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			h, _ := newTestHandler(t, llm.NewMockProvider())

			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/chat/sessions/"+tt.id, nil), rec)
			c.SetParamNames("session_id")
			c.SetParamValues(tt.id)
			require.NoError(t, h.GetSession(c))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestListSessions(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, llm.NewMockProvider())
	for i := 0; i < 3; i++ {
		createSession(t, h, "")
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/chat/sessions?limit=2", nil), rec)
	require.NoError(t, h.ListSessions(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.SessionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Sessions, 2)
	assert.Equal(t, "Recent sessions retrieved successfully", resp.Message)
}

func TestListSessionsInvalidLimit(t *testing.T) {
	for _, limit := range []string{"0", "101", "abc"} {
		t.Run(limit, func(t *testing.T) {
			e := echo.New()
			h, _ := newTestHandler(t, llm.NewMockProvider())

			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/chat/sessions?limit="+limit, nil), rec)
			require.NoError(t, h.ListSessions(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestDeleteSession(t *testing.T) {
	e := echo.New()
	h, db := newTestHandler(t, llm.NewMockProvider())
	id := createSession(t, h, "")

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/chat/sessions/"+id, nil), rec)
	c.SetParamNames("session_id")
	c.SetParamValues(id)
	require.NoError(t, h.DeleteSession(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	session, err := db.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, session)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/chat/sessions/"+id, nil), rec)
	c.SetParamNames("session_id")
	c.SetParamValues(id)
	require.NoError(t, h.DeleteSession(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionFeedUnknownSession(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, llm.NewMockProvider())

	id := "9b2f6a0e-4c1d-4f7e-8a3b-2d5c6e7f8a9b"
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/chat/sessions/"+id+"/feed", nil), rec)
	c.SetParamNames("session_id")
	c.SetParamValues(id)
	require.NoError(t, h.SessionFeed(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
