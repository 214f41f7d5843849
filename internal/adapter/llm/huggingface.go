package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xiaot623/companion/internal/domain"
)

// ProviderHuggingFace is the Hugging Face inference API vendor name.
const ProviderHuggingFace = "huggingface"

// conversationalContext is how many past inputs and responses are replayed.
const conversationalContext = 3

// HuggingFaceProvider calls a conversational model on the Hugging Face inference API.
// The conversational task has no system role, so the system prompt is not sent.
type HuggingFaceProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewHuggingFaceProvider creates a Hugging Face provider.
func NewHuggingFaceProvider(opts VendorOptions, httpClient *http.Client) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		httpClient: httpClient,
	}
}

type conversationalRequest struct {
	Inputs     conversationalInputs     `json:"inputs"`
	Parameters conversationalParameters `json:"parameters"`
}

type conversationalInputs struct {
	PastUserInputs     []string `json:"past_user_inputs"`
	GeneratedResponses []string `json:"generated_responses"`
	Text               string   `json:"text"`
}

type conversationalParameters struct {
	MaxLength   int     `json:"max_length"`
	Temperature float64 `json:"temperature"`
	DoSample    bool    `json:"do_sample"`
}

type generatedText struct {
	GeneratedText string `json:"generated_text"`
}

// Name implements Provider.
func (p *HuggingFaceProvider) Name() string { return ProviderHuggingFace }

// Respond implements Provider.
func (p *HuggingFaceProvider) Respond(ctx context.Context, turns []domain.Turn, _ string) (string, error) {
	if p.apiKey == "" {
		return "", &ConfigurationError{Provider: ProviderHuggingFace, Setting: "HUGGINGFACE_API_KEY"}
	}

	body, err := json.Marshal(conversationalRequest{
		Inputs: buildConversationalInputs(turns),
		Parameters: conversationalParameters{
			MaxLength:   200,
			Temperature: defaultTemperature,
			DoSample:    true,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/"+p.model, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", newTransportError(ProviderHuggingFace, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newTransportError(ProviderHuggingFace, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", newStatusError(ProviderHuggingFace, resp.StatusCode, string(respBody))
	}

	content := strings.TrimSpace(parseGeneratedText(respBody))
	if content == "" {
		return "", newEmptyResponseError(ProviderHuggingFace)
	}
	return content, nil
}

// Check reports a missing API key. The inference API has no free status endpoint,
// so a configured key is not verified remotely.
func (p *HuggingFaceProvider) Check(_ context.Context) error {
	if p.apiKey == "" {
		return &ConfigurationError{Provider: ProviderHuggingFace, Setting: "HUGGINGFACE_API_KEY"}
	}
	return nil
}

func buildConversationalInputs(turns []domain.Turn) conversationalInputs {
	inputs := conversationalInputs{PastUserInputs: []string{}, GeneratedResponses: []string{}}
	for _, t := range turns {
		if t.Role == domain.SenderAssistant {
			inputs.GeneratedResponses = append(inputs.GeneratedResponses, t.Content)
		} else {
			inputs.PastUserInputs = append(inputs.PastUserInputs, t.Content)
		}
	}
	inputs.PastUserInputs = lastN(inputs.PastUserInputs, conversationalContext)
	inputs.GeneratedResponses = lastN(inputs.GeneratedResponses, conversationalContext)
	if len(turns) > 0 {
		inputs.Text = turns[len(turns)-1].Content
	}
	return inputs
}

// parseGeneratedText accepts both the object and the list response shapes.
func parseGeneratedText(body []byte) string {
	var single generatedText
	if err := json.Unmarshal(body, &single); err == nil {
		return single.GeneratedText
	}
	var list []generatedText
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		return list[0].GeneratedText
	}
	return ""
}

func lastN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
