package llm

import (
	"context"
	"fmt"

	"github.com/xiaot623/companion/internal/domain"
)

// ProviderMock is the name reported by the mock provider.
const ProviderMock = "mock"

// MockProvider is a Provider that needs no vendor, for local runs and tests.
type MockProvider struct{}

// NewMockProvider creates a new mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name implements Provider.
func (m *MockProvider) Name() string { return ProviderMock }

// Respond returns a canned reply quoting the last user turn.
func (m *MockProvider) Respond(ctx context.Context, turns []domain.Turn, systemPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", newTransportError(ProviderMock, err)
	}
	return m.generateMockResponse(turns), nil
}

// Check always succeeds.
func (m *MockProvider) Check(ctx context.Context) error {
	return nil
}

func (m *MockProvider) generateMockResponse(turns []domain.Turn) string {
	// Get the last user message
	var lastUserMessage string
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == domain.SenderUser {
			lastUserMessage = turns[i].Content
			break
		}
	}

	if lastUserMessage == "" {
		return "[MOCK] I hear you. Tell me more about what's going on?"
	}

	return fmt.Sprintf("[MOCK] I hear you: %q. How does that make you feel?", truncate(lastUserMessage, 100))
}
