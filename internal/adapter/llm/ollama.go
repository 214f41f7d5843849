package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/xiaot623/companion/internal/domain"
)

// ProviderOllama is the local Ollama vendor name.
const ProviderOllama = "ollama"

// OllamaProvider generates through a local Ollama server's generate endpoint.
type OllamaProvider struct {
	client *api.Client
	model  string
	err    error
}

// NewOllamaProvider creates an Ollama provider for the server at opts.BaseURL.
func NewOllamaProvider(opts VendorOptions, httpClient *http.Client) *OllamaProvider {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return &OllamaProvider{model: opts.Model, err: &ConfigurationError{Provider: ProviderOllama, Setting: "OLLAMA_URL"}}
	}
	return &OllamaProvider{client: api.NewClient(base, httpClient), model: opts.Model}
}

// Name implements Provider.
func (p *OllamaProvider) Name() string { return ProviderOllama }

// Respond implements Provider. The conversation is flattened into a single
// Human/Assistant transcript prompt.
func (p *OllamaProvider) Respond(ctx context.Context, turns []domain.Turn, systemPrompt string) (string, error) {
	if p.err != nil {
		return "", p.err
	}

	stream := false
	req := &api.GenerateRequest{
		Model:  p.model,
		Prompt: transcriptPrompt(turns, systemPrompt),
		Stream: &stream,
		Options: map[string]any{
			"temperature": defaultTemperature,
			"num_predict": defaultMaxTokens,
		},
	}

	var sb strings.Builder
	err := p.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", p.wrapError(err)
	}

	content := strings.TrimSpace(sb.String())
	if content == "" {
		return "", newEmptyResponseError(ProviderOllama)
	}
	return content, nil
}

// Check pings the Ollama server.
func (p *OllamaProvider) Check(ctx context.Context) error {
	if p.err != nil {
		return p.err
	}
	if err := p.client.Heartbeat(ctx); err != nil {
		return p.wrapError(err)
	}
	return nil
}

func (p *OllamaProvider) wrapError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		provErr := newStatusError(ProviderOllama, statusErr.StatusCode, statusErr.Error())
		provErr.Err = err
		return provErr
	}
	return newTransportError(ProviderOllama, err)
}

func transcriptPrompt(turns []domain.Turn, systemPrompt string) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		speaker := "Human"
		if t.Role == domain.SenderAssistant {
			speaker = "Assistant"
		}
		fmt.Fprintf(&sb, "%s: %s", speaker, t.Content)
	}
	sb.WriteString("\nAssistant:")
	return sb.String()
}
