package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/xiaot623/companion/internal/domain"
)

// ProviderOpenAI is the OpenAI vendor name.
const ProviderOpenAI = "openai"

// chatCompletions is an OpenAI-compatible chat completions backend shared by every
// vendor that speaks that wire format.
type chatCompletions struct {
	provider string
	setting  string
	client   openai.Client
	apiKey   string
	model    string
	topP     bool
}

// newChatCompletions builds the SDK client. SDK retries are disabled; a failed call
// surfaces immediately.
func newChatCompletions(provider, setting string, opts VendorOptions, httpClient *http.Client) chatCompletions {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(httpClient))
	}
	return chatCompletions{
		provider: provider,
		setting:  setting,
		client:   openai.NewClient(reqOpts...),
		apiKey:   opts.APIKey,
		model:    opts.Model,
	}
}

func (c *chatCompletions) configurationError() error {
	return &ConfigurationError{Provider: c.provider, Setting: c.setting}
}

func (c *chatCompletions) respond(ctx context.Context, turns []domain.Turn, systemPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", c.configurationError()
	}

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    toOpenAIMessages(turns, systemPrompt),
		Temperature: openai.Float(defaultTemperature),
		MaxTokens:   openai.Int(defaultMaxTokens),
	}
	if c.topP {
		params.TopP = openai.Float(defaultTopP)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", c.wrapError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", newEmptyResponseError(c.provider)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", newEmptyResponseError(c.provider)
	}
	return content, nil
}

// check lists models, which needs a valid key but costs no tokens.
func (c *chatCompletions) check(ctx context.Context) error {
	if c.apiKey == "" {
		return c.configurationError()
	}
	if _, err := c.client.Models.List(ctx); err != nil {
		return c.wrapError(ctx, err)
	}
	return nil
}

func (c *chatCompletions) wrapError(ctx context.Context, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error()
		}
		provErr := newStatusError(c.provider, apiErr.StatusCode, message)
		provErr.Err = err
		return provErr
	}
	provErr := newTransportError(c.provider, err)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		provErr.Kind = KindTimeout
	}
	return provErr
}

// OpenAIProvider uses the official OpenAI SDK.
type OpenAIProvider struct {
	chat chatCompletions
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(opts VendorOptions, httpClient *http.Client) *OpenAIProvider {
	return &OpenAIProvider{chat: newChatCompletions(ProviderOpenAI, "OPENAI_API_KEY", opts, httpClient)}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

// Respond implements Provider.
func (p *OpenAIProvider) Respond(ctx context.Context, turns []domain.Turn, systemPrompt string) (string, error) {
	return p.chat.respond(ctx, turns, systemPrompt)
}

// Check implements HealthChecker.
func (p *OpenAIProvider) Check(ctx context.Context) error {
	return p.chat.check(ctx)
}

func toOpenAIMessages(turns []domain.Turn, systemPrompt string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	for _, t := range turns {
		switch t.Role {
		case domain.SenderAssistant:
			messages = append(messages, openai.AssistantMessage(t.Content))
		default:
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}
	return messages
}
