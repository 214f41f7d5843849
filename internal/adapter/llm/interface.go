// Package llm provides the provider abstraction over the supported LLM vendors.
package llm

import (
	"context"

	"github.com/xiaot623/companion/internal/domain"
)

// Provider generates one assistant reply for a conversation.
type Provider interface {
	// Name returns the vendor name the provider was selected by.
	Name() string

	// Respond sends the turns, oldest first, with the system prompt and returns the
	// generated text trimmed of surrounding whitespace.
	Respond(ctx context.Context, turns []domain.Turn, systemPrompt string) (string, error)
}

// HealthChecker is implemented by providers that can check their vendor cheaply.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Generation parameters shared by every vendor.
const (
	defaultTemperature = 0.8
	defaultTopP        = 0.9
	defaultMaxTokens   = 300
)

// Ensure the providers implement Provider.
var (
	_ Provider = (*GroqProvider)(nil)
	_ Provider = (*OpenAIProvider)(nil)
	_ Provider = (*OllamaProvider)(nil)
	_ Provider = (*HuggingFaceProvider)(nil)
	_ Provider = (*MockProvider)(nil)

	_ HealthChecker = (*GroqProvider)(nil)
	_ HealthChecker = (*OpenAIProvider)(nil)
	_ HealthChecker = (*OllamaProvider)(nil)
	_ HealthChecker = (*HuggingFaceProvider)(nil)
	_ HealthChecker = (*MockProvider)(nil)
)
