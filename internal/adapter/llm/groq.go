package llm

import (
	"context"
	"net/http"

	"github.com/xiaot623/companion/internal/domain"
)

// ProviderGroq is the Groq vendor name.
const ProviderGroq = "groq"

// GroqProvider talks to Groq's OpenAI-compatible chat completions endpoint.
type GroqProvider struct {
	chat chatCompletions
}

// NewGroqProvider creates a Groq provider. An empty apiKey is reported when the
// provider is used, not here.
func NewGroqProvider(opts VendorOptions, httpClient *http.Client) *GroqProvider {
	chat := newChatCompletions(ProviderGroq, "GROQ_API_KEY", opts, httpClient)
	chat.topP = true
	return &GroqProvider{chat: chat}
}

// Name implements Provider.
func (p *GroqProvider) Name() string { return ProviderGroq }

// Respond implements Provider.
func (p *GroqProvider) Respond(ctx context.Context, turns []domain.Turn, systemPrompt string) (string, error) {
	return p.chat.respond(ctx, turns, systemPrompt)
}

// Check implements HealthChecker.
func (p *GroqProvider) Check(ctx context.Context) error {
	return p.chat.check(ctx)
}
