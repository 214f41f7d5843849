package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/companion/internal/adapter/llm"
	"github.com/xiaot623/companion/internal/config"
	"github.com/xiaot623/companion/internal/domain"
	"github.com/xiaot623/companion/policy"
	"github.com/xiaot623/companion/tests/helpers"
	"go.uber.org/zap"
)

// stubProvider answers with respond and records what it was sent.
type stubProvider struct {
	respond func(ctx context.Context, turns []domain.Turn) (string, error)

	mu     sync.Mutex
	turns  []domain.Turn
	prompt string
	calls  int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Respond(ctx context.Context, turns []domain.Turn, systemPrompt string) (string, error) {
	p.mu.Lock()
	p.turns = append([]domain.Turn(nil), turns...)
	p.prompt = systemPrompt
	p.calls++
	p.mu.Unlock()
	return p.respond(ctx, turns)
}

func echoProvider() *stubProvider {
	return &stubProvider{respond: func(_ context.Context, turns []domain.Turn) (string, error) {
		return "echo: " + turns[len(turns)-1].Content, nil
	}}
}

func failingProvider(err error) *stubProvider {
	return &stubProvider{respond: func(context.Context, []domain.Turn) (string, error) {
		return "", err
	}}
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []*domain.Message
}

func (n *recordingNotifier) Publish(_ string, msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func testConfig() *config.Config {
	return &config.Config{HistoryWindow: 10, LLMTimeout: time.Second}
}

func newTestService(t *testing.T, provider llm.Provider, cfg *config.Config) (*Service, *recordingNotifier) {
	t.Helper()
	engine, err := policy.Load(context.Background(), "")
	require.NoError(t, err)
	notifier := &recordingNotifier{}
	svc := New(helpers.NewTestSQLiteStore(t), provider, engine, notifier, cfg, zap.NewNop())
	svc.intn = func(int) int { return 0 }
	return svc, notifier
}

func newSession(t *testing.T, svc *Service, metadata json.RawMessage) string {
	t.Helper()
	session, err := svc.store.CreateSession(context.Background(), metadata)
	require.NoError(t, err)
	return session.SessionID
}

func TestRespond_EchoPersistsBothMessages(t *testing.T) {
	ctx := context.Background()
	svc, notifier := newTestService(t, echoProvider(), testConfig())
	id := newSession(t, svc, nil)

	reply, err := svc.Respond(ctx, id, domain.SendMessageRequest{Text: "hello"})
	require.NoError(t, err)
	assert.False(t, reply.Fallback)
	assert.Equal(t, "hello", reply.UserMessage.Text)
	assert.Equal(t, domain.SenderUser, reply.UserMessage.Sender)
	assert.Equal(t, "echo: hello", reply.AIMessage.Text)
	assert.Equal(t, domain.SenderAssistant, reply.AIMessage.Sender)

	messages, err := svc.store.ListMessages(ctx, id, 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].Text)
	assert.Equal(t, "echo: hello", messages[1].Text)

	session, err := svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, session.MessageCount)

	var meta domain.ReplyMetadata
	require.NoError(t, json.Unmarshal(messages[1].Metadata, &meta))
	assert.Equal(t, "stub", meta.Provider)
	assert.False(t, meta.Fallback)

	var sentiment domain.SentimentAnalysis
	require.NoError(t, json.Unmarshal(messages[0].Metadata, &sentiment))
	assert.Equal(t, domain.SentimentNeutral, sentiment.Sentiment)

	require.Len(t, notifier.messages, 2)
	assert.Equal(t, reply.UserMessage.MessageID, notifier.messages[0].MessageID)
	assert.Equal(t, reply.AIMessage.MessageID, notifier.messages[1].MessageID)
}

func TestRespond_RateLimitedPersistsUserMessageOnly(t *testing.T) {
	ctx := context.Background()
	provErr := &llm.ProviderError{Provider: "stub", StatusCode: http.StatusTooManyRequests, Kind: llm.KindRateLimited, Message: "slow down"}
	svc, _ := newTestService(t, failingProvider(provErr), testConfig())
	id := newSession(t, svc, nil)

	reply, err := svc.Respond(ctx, id, domain.SendMessageRequest{Text: "hello"})
	require.Error(t, err)
	assert.Nil(t, reply)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, llm.KindRateLimited, genErr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, genErr.StatusCode)
	assert.True(t, llm.IsRateLimited(err))

	messages, err := svc.store.ListMessages(ctx, id, 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, domain.SenderUser, messages[0].Sender)
}

func TestRespond_ConfigurationErrorIsReturned(t *testing.T) {
	svc, _ := newTestService(t, failingProvider(&llm.ConfigurationError{Provider: "groq", Setting: "GROQ_API_KEY"}), testConfig())
	id := newSession(t, svc, nil)

	_, err := svc.Respond(context.Background(), id, domain.SendMessageRequest{Text: "hello"})
	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, llm.KindConfiguration, genErr.Kind)
	assert.Equal(t, "AI service configuration error", genErr.UserMessage())
}

func TestRespond_GenericFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	svc, notifier := newTestService(t, failingProvider(errors.New("connection reset")), testConfig())
	id := newSession(t, svc, nil)

	reply, err := svc.Respond(ctx, id, domain.SendMessageRequest{Text: "hello"})
	require.NoError(t, err)
	assert.True(t, reply.Fallback)
	assert.Equal(t, FallbackReply, reply.AIMessage.Text)
	assert.NotEmpty(t, reply.AIMessage.MessageID)

	messages, err := svc.store.ListMessages(ctx, id, 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Len(t, notifier.messages, 1)
}

func TestRespond_PersistFallback(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.PersistFallback = true
	svc, _ := newTestService(t, failingProvider(&llm.ProviderError{Provider: "stub", StatusCode: 500, Kind: llm.KindUpstream}), cfg)
	id := newSession(t, svc, nil)

	reply, err := svc.Respond(ctx, id, domain.SendMessageRequest{Text: "hello"})
	require.NoError(t, err)
	assert.True(t, reply.Fallback)

	messages, err := svc.store.ListMessages(ctx, id, 50, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, FallbackReply, messages[1].Text)

	var meta domain.ReplyMetadata
	require.NoError(t, json.Unmarshal(messages[1].Metadata, &meta))
	assert.True(t, meta.Fallback)
}

func TestRespond_TimeoutFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.LLMTimeout = 20 * time.Millisecond
	slow := &stubProvider{respond: func(ctx context.Context, _ []domain.Turn) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	svc, _ := newTestService(t, slow, cfg)
	id := newSession(t, svc, nil)

	reply, err := svc.Respond(context.Background(), id, domain.SendMessageRequest{Text: "hello"})
	require.NoError(t, err)
	assert.True(t, reply.Fallback)
}

func TestRespond_HistoryWindowAndPrompt(t *testing.T) {
	ctx := context.Background()
	provider := echoProvider()
	svc, _ := newTestService(t, provider, testConfig())
	id := newSession(t, svc, json.RawMessage(`{"displayName":"Sam"}`))

	for i := 0; i < 12; i++ {
		sender := domain.SenderUser
		if i%2 == 1 {
			sender = domain.SenderAssistant
		}
		_, err := svc.store.AppendMessage(ctx, id, "m"+string(rune('a'+i)), sender, nil)
		require.NoError(t, err)
	}

	_, err := svc.Respond(ctx, id, domain.SendMessageRequest{Text: "my anxiety is bad"})
	require.NoError(t, err)

	require.Len(t, provider.turns, 11)
	assert.Equal(t, "mc", provider.turns[0].Content)
	assert.Equal(t, domain.SenderUser, provider.turns[0].Role)
	assert.Equal(t, "ml", provider.turns[9].Content)
	assert.Equal(t, domain.SenderAssistant, provider.turns[9].Role)
	assert.Equal(t, domain.Turn{Role: domain.SenderUser, Content: "my anxiety is bad"}, provider.turns[10])

	assert.Contains(t, provider.prompt, "The user's name is Sam.")
	assert.Contains(t, provider.prompt, referencesHeading)
	assert.Contains(t, provider.prompt, "Anxiety treatment - CBT and exposure therapy have strong empirical support")
}

func TestRespond_RequestNameOverridesSession(t *testing.T) {
	provider := echoProvider()
	svc, _ := newTestService(t, provider, testConfig())
	id := newSession(t, svc, json.RawMessage(`{"displayName":"Sam"}`))

	_, err := svc.Respond(context.Background(), id, domain.SendMessageRequest{Text: "hi", UserName: "Alex"})
	require.NoError(t, err)
	assert.Contains(t, provider.prompt, "The user's name is Alex.")
	assert.NotContains(t, provider.prompt, "Sam")
}

func TestRespond_Validation(t *testing.T) {
	ctx := context.Background()
	provider := echoProvider()
	svc, _ := newTestService(t, provider, testConfig())
	id := newSession(t, svc, nil)

	tests := []struct {
		name string
		id   string
		req  domain.SendMessageRequest
		want error
	}{
		{"empty text", id, domain.SendMessageRequest{Text: "   "}, domain.ErrValidation},
		{"too long", id, domain.SendMessageRequest{Text: strings.Repeat("a", MaxTextLength+1)}, domain.ErrValidation},
		{"long name", id, domain.SendMessageRequest{Text: "hi", DisplayName: strings.Repeat("n", MaxDisplayNameLength+1)}, domain.ErrValidation},
		{"unknown session", "8d4c7a8e-0000-4000-8000-000000000000", domain.SendMessageRequest{Text: "hi"}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Respond(ctx, tt.id, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, 0, provider.calls)
	session, err := svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, session.MessageCount)
}

func TestRespond_TextIsTrimmed(t *testing.T) {
	svc, _ := newTestService(t, echoProvider(), testConfig())
	id := newSession(t, svc, nil)

	reply, err := svc.Respond(context.Background(), id, domain.SendMessageRequest{Text: "  hello  \n"})
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.UserMessage.Text)
}
