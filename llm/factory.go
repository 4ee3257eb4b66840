// LLM Provider Factory - builder-first API for creating LLM providers.
//
// Quick Start:
//
//	// Simplest: read API key from environment
//	router, err := llm.ProviderOpenRouter.FromEnv()
//
//	// Explicit key, custom endpoint and extra headers
//	p, err := llm.NewProviderBuilder(llm.ProviderOpenRouter).
//	    BaseURL("http://localhost:8080/v1").
//	    Header("X-Title", "scribe").
//	    APIKey("sk-or-...")
//
// Model selection is not part of the provider: every Request names its model.
// Catalog maps short model names to provider-native identifiers.

package llm

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderOpenRouter is the OpenRouter aggregator (OpenAI-compatible API).
	ProviderOpenRouter ProviderType = iota
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderDeepSeek is the DeepSeek provider.
	ProviderDeepSeek
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOpenRouter:
		return "openrouter"
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// DisplayName returns the human-facing service name used in messages.
func (p ProviderType) DisplayName() string {
	switch p {
	case ProviderOpenRouter:
		return "OpenRouter"
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderAnthropic:
		return "Anthropic"
	case ProviderDeepSeek:
		return "DeepSeek"
	case ProviderGemini:
		return "Gemini"
	default:
		return "Unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOpenRouter:
		return ModelOpenRouterGPT4oMini
	case ProviderOpenAI:
		return ModelOpenAIGPT4oMini
	case ProviderAnthropic:
		return ModelAnthropicClaudeSonnet4
	case ProviderDeepSeek:
		return ModelDeepSeekChat
	case ProviderGemini:
		return ModelGeminiFlash2
	default:
		return ""
	}
}

// Catalog returns the fixed short-name to model-identifier table for this
// provider. The returned map is a fresh copy.
func (p ProviderType) Catalog() map[string]string {
	var src map[string]string
	switch p {
	case ProviderOpenRouter:
		src = openRouterCatalog
	case ProviderOpenAI:
		src = openAICatalog
	case ProviderAnthropic:
		src = anthropicCatalog
	case ProviderDeepSeek:
		src = deepseekCatalog
	case ProviderGemini:
		src = geminiCatalog
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openrouter", "":
		return ProviderOpenRouter, nil
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// FromEnv creates a provider with defaults, reading API key from environment.
func (p ProviderType) FromEnv() (Provider, error) {
	return NewProviderBuilder(p).FromEnv()
}

// APIKey creates a provider with an explicit API key (uses defaults for everything else).
func (p ProviderType) APIKey(key string) (Provider, error) {
	return NewProviderBuilder(p).APIKey(key)
}

// ProviderBuilder is a builder for configuring LLM providers.
type ProviderBuilder struct {
	providerType ProviderType
	baseURL      string
	headers      map[string]string
	httpClient   *http.Client
}

// NewProviderBuilder creates a new builder for the given provider.
func NewProviderBuilder(providerType ProviderType) *ProviderBuilder {
	return &ProviderBuilder{
		providerType: providerType,
		headers:      make(map[string]string),
	}
}

// BaseURL overrides the provider endpoint.
func (b *ProviderBuilder) BaseURL(url string) *ProviderBuilder {
	b.baseURL = url
	return b
}

// Header adds a header sent with every request. Ignored by providers whose
// SDK does not accept a custom transport.
func (b *ProviderBuilder) Header(key, value string) *ProviderBuilder {
	if value != "" {
		b.headers[key] = value
	}
	return b
}

// HTTPClient sets the HTTP client used for requests.
func (b *ProviderBuilder) HTTPClient(hc *http.Client) *ProviderBuilder {
	b.httpClient = hc
	return b
}

// FromEnv builds the provider, reading API key from environment.
func (b *ProviderBuilder) FromEnv() (Provider, error) {
	envVar := b.providerType.EnvVar()
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %s environment variable not set", b.providerType, envVar)
	}
	return b.build(apiKey)
}

// APIKey builds the provider with an explicit API key.
func (b *ProviderBuilder) APIKey(key string) (Provider, error) {
	return b.build(key)
}

func (b *ProviderBuilder) build(apiKey string) (Provider, error) {
	switch b.providerType {
	case ProviderOpenRouter:
		return NewOpenAICompatProvider("openrouter", apiKey, b.urlOr(openRouterBaseURL), b.headers, b.httpClient), nil
	case ProviderOpenAI:
		return NewOpenAICompatProvider("openai", apiKey, b.urlOr(openAIBaseURL), b.headers, b.httpClient), nil
	case ProviderDeepSeek:
		return NewOpenAICompatProvider("deepseek", apiKey, b.urlOr(deepseekBaseURL), b.headers, b.httpClient), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, b.baseURL, b.httpClient), nil
	case ProviderGemini:
		return NewGeminiProvider(apiKey, b.baseURL, b.httpClient), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", b.providerType)
	}
}

func (b *ProviderBuilder) urlOr(fallback string) string {
	if b.baseURL != "" {
		return b.baseURL
	}
	return fallback
}

// Model identifier constants for all supported providers.

// OpenRouter model identifiers
const (
	ModelOpenRouterGPT4o        = "openai/gpt-4o"
	ModelOpenRouterGPT4oMini    = "openai/gpt-4o-mini"
	ModelOpenRouterClaudeSonnet = "anthropic/claude-sonnet-4"
	ModelOpenRouterClaudeHaiku  = "anthropic/claude-3.5-haiku"
	ModelOpenRouterGeminiFlash  = "google/gemini-2.0-flash-001"
	ModelOpenRouterDeepSeek     = "deepseek/deepseek-chat"
	ModelOpenRouterLlama        = "meta-llama/llama-3.3-70b-instruct"
)

// OpenAI model identifiers
const (
	ModelOpenAIGPT4o     = "gpt-4o"
	ModelOpenAIGPT4oMini = "gpt-4o-mini"
	ModelOpenAIO3Mini    = "o3-mini"
)

// Anthropic model identifiers
const (
	ModelAnthropicClaudeSonnet4 = "claude-sonnet-4-20250514"
	ModelAnthropicClaudeHaiku35 = "claude-3-5-haiku-20241022"
)

// DeepSeek model identifiers
const (
	ModelDeepSeekChat     = "deepseek-chat"
	ModelDeepSeekReasoner = "deepseek-reasoner"
)

// Gemini model identifiers
const (
	ModelGeminiFlash2 = "gemini-2.0-flash"
	ModelGeminiPro25  = "gemini-2.5-pro"
)

var openRouterCatalog = map[string]string{
	"gpt-4o":        ModelOpenRouterGPT4o,
	"gpt-4o-mini":   ModelOpenRouterGPT4oMini,
	"claude-sonnet": ModelOpenRouterClaudeSonnet,
	"claude-haiku":  ModelOpenRouterClaudeHaiku,
	"gemini-flash":  ModelOpenRouterGeminiFlash,
	"deepseek":      ModelOpenRouterDeepSeek,
	"llama":         ModelOpenRouterLlama,
}

var openAICatalog = map[string]string{
	"gpt-4o":      ModelOpenAIGPT4o,
	"gpt-4o-mini": ModelOpenAIGPT4oMini,
	"o3-mini":     ModelOpenAIO3Mini,
}

var anthropicCatalog = map[string]string{
	"claude-sonnet": ModelAnthropicClaudeSonnet4,
	"claude-haiku":  ModelAnthropicClaudeHaiku35,
}

var deepseekCatalog = map[string]string{
	"deepseek":          ModelDeepSeekChat,
	"deepseek-chat":     ModelDeepSeekChat,
	"deepseek-reasoner": ModelDeepSeekReasoner,
}

var geminiCatalog = map[string]string{
	"gemini-flash": ModelGeminiFlash2,
	"gemini-pro":   ModelGeminiPro25,
}
