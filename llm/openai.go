// OpenAI-compatible Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for the Chat Completions API
// - Extra headers required by aggregators such as OpenRouter
//
// OpenAI, DeepSeek and OpenRouter all speak this protocol and differ only in
// base URL and headers.

package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	openAIBaseURL     = "https://api.openai.com/v1"
	deepseekBaseURL   = "https://api.deepseek.com/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenAICompatProvider implements the Provider interface for any service
// exposing the OpenAI Chat Completions API.
type OpenAICompatProvider struct {
	name   string
	client *openai.Client
}

// NewOpenAICompatProvider creates a provider for an OpenAI-compatible API.
// headers are added to every request; hc may be nil.
func NewOpenAICompatProvider(name, apiKey, baseURL string, headers map[string]string, hc *http.Client) *OpenAICompatProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if hc == nil {
		hc = &http.Client{}
	}
	if len(headers) > 0 {
		hc = withHeaders(hc, headers)
	}
	config.HTTPClient = hc

	return &OpenAICompatProvider{
		name:   name,
		client: openai.NewClientWithConfig(config),
	}
}

// Name returns the provider name.
func (p *OpenAICompatProvider) Name() string {
	return p.name
}

// Complete sends a chat completion request.
func (p *OpenAICompatProvider) Complete(ctx context.Context, r Request) (LLMResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:     r.Model,
		Messages:  convertToOpenAIMessages(r.Messages),
		MaxTokens: int(r.MaxTokens),
	}
	if r.Temperature != nil {
		req.Temperature = *r.Temperature
		if req.Temperature == 0 {
			// the request field is omitempty; a literal 0 would never be sent
			req.Temperature = math.SmallestNonzeroFloat32
		}
	}
	if wantsJSON(r.Format) {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return LLMResponse{}, fmt.Errorf("%s returned no content: %w", p.name, ErrEmptyResponse)
	}

	usage := &TokenUsage{
		PromptTokens:     uint32(resp.Usage.PromptTokens),
		CompletionTokens: uint32(resp.Usage.CompletionTokens),
		TotalTokens:      uint32(resp.Usage.TotalTokens),
	}

	return LLMResponse{Content: resp.Choices[0].Message.Content, Model: resp.Model, Usage: usage}, nil
}

// convertToOpenAIMessages converts our ChatMessage to openai.ChatCompletionMessage
func convertToOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		result[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return result
}

// headerTransport sets fixed headers on every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

func withHeaders(hc *http.Client, headers map[string]string) *http.Client {
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	clone := *hc
	clone.Transport = &headerTransport{base: base, headers: copied}
	return &clone
}

// Verify OpenAICompatProvider implements Provider
var _ Provider = (*OpenAICompatProvider)(nil)
