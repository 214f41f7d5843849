package llm

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// EnvCompanionMode is the environment variable name for mode selection.
	EnvCompanionMode = "COMPANION_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// DefaultProvider is used when the configured vendor name is unknown.
const DefaultProvider = ProviderGroq

// VendorOptions are the per-vendor connection settings.
type VendorOptions struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Options selects and configures the active provider.
type Options struct {
	Provider    string
	Mode        string
	Timeout     time.Duration
	Groq        VendorOptions
	OpenAI      VendorOptions
	HuggingFace VendorOptions
	Ollama      VendorOptions
}

// NewProvider builds the single provider for this process. Mode MOCK wins over the
// vendor name; an unknown vendor name falls back to DefaultProvider.
func NewProvider(opts Options, logger *zap.Logger) Provider {
	if opts.Mode == ModeMock {
		logger.Info("mock mode detected, using mock provider", zap.String("env", EnvCompanionMode))
		return NewMockProvider()
	}

	httpClient := &http.Client{Timeout: opts.Timeout}

	name := strings.ToLower(strings.TrimSpace(opts.Provider))
	switch name {
	case ProviderGroq:
		return NewGroqProvider(opts.Groq, httpClient)
	case ProviderOpenAI:
		return NewOpenAIProvider(opts.OpenAI, httpClient)
	case ProviderHuggingFace:
		return NewHuggingFaceProvider(opts.HuggingFace, httpClient)
	case ProviderOllama:
		return NewOllamaProvider(opts.Ollama, httpClient)
	default:
		logger.Warn("unknown AI provider, using default",
			zap.String("provider", opts.Provider),
			zap.String("default", DefaultProvider))
		return NewGroqProvider(opts.Groq, httpClient)
	}
}
