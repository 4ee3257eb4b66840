// Package gateway is the only component that talks to the reasoning service.
//
// Information Hiding:
// - Which provider SDK serves the request
// - Model alias resolution
// - Credential checking (done once, at construction)
// - Timeout handling and error classification
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/richinex/scribe/llm"
	"github.com/richinex/scribe/prompt"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 4096
)

var (
	// ErrMissingCredential is wrapped by the *ConfigError New returns when no
	// API key is configured.
	ErrMissingCredential = errors.New("missing API credential")

	// ErrMalformedResponse means the service answered without any usable
	// content.
	ErrMalformedResponse = errors.New("malformed response from AI service")
)

// ConfigError reports a configuration problem detected before any request.
// Its message is meant for end users.
type ConfigError struct {
	Service string
	EnvVar  string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s API key not found. Please set %s in the environment.", e.Service, e.EnvVar)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransportError wraps network failures, non-2xx replies, timeouts and
// cancellation.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return "request to the AI service failed: " + e.Cause.Error()
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Config is the explicit gateway configuration.
type Config struct {
	Provider     string // openrouter (default), openai, anthropic, deepseek, gemini
	APIKey       string
	BaseURL      string
	DefaultModel string
	Models       map[string]string // short name -> model identifier; nil uses the provider catalog
	Timeout      time.Duration
	MaxTokens    uint32
	Temperature  float32 // sent as is; 0 asks for deterministic output
	Referer      string  // OpenRouter HTTP-Referer
	Title        string  // OpenRouter X-Title
}

// Option customizes a Gateway.
type Option func(*options)

type options struct {
	provider   llm.Provider
	httpClient *http.Client
	logger     *slog.Logger
}

// WithProvider replaces the SDK-backed provider. The credential is still
// required.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithHTTPClient sets the HTTP client used by SDK-backed providers.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Gateway sends prompts to the configured provider. Safe for concurrent use.
type Gateway struct {
	cfg      Config
	kind     llm.ProviderType
	provider llm.Provider
	logger   *slog.Logger
}

// New validates cfg and builds the provider. It performs no network I/O.
func New(cfg Config, opts ...Option) (*Gateway, error) {
	kind, err := llm.ParseProviderType(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	if cfg.APIKey == "" {
		return nil, &ConfigError{
			Service: kind.DisplayName(),
			EnvVar:  kind.EnvVar(),
			Err:     ErrMissingCredential,
		}
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg.Provider = kind.String()
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = kind.DefaultModel()
	}
	if cfg.Models == nil {
		cfg.Models = kind.Catalog()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	provider := o.provider
	if provider == nil {
		b := llm.NewProviderBuilder(kind).BaseURL(cfg.BaseURL).HTTPClient(o.httpClient)
		if kind == llm.ProviderOpenRouter {
			b.Header("HTTP-Referer", cfg.Referer).Header("X-Title", cfg.Title)
		}
		provider, err = b.APIKey(cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("gateway: %w", err)
		}
	}

	return &Gateway{
		cfg:      cfg,
		kind:     kind,
		provider: provider,
		logger:   o.logger,
	}, nil
}

// ResolveModel maps a requested model name to a model identifier. Table keys
// and table values are recognized; anything else, including "", resolves to
// the default model.
func (g *Gateway) ResolveModel(name string) string {
	if id, ok := g.cfg.Models[name]; ok {
		return id
	}
	if name != "" {
		for _, id := range g.cfg.Models {
			if id == name {
				return id
			}
		}
		if name == g.cfg.DefaultModel {
			return name
		}
	}
	return g.cfg.DefaultModel
}

// Models returns the resolvable short names and their identifiers.
func (g *Gateway) Models() map[string]string {
	out := make(map[string]string, len(g.cfg.Models))
	for k, v := range g.cfg.Models {
		out[k] = v
	}
	return out
}

// DefaultModel returns the fallback model identifier.
func (g *Gateway) DefaultModel() string {
	return g.cfg.DefaultModel
}

// Provider returns the canonical provider name.
func (g *Gateway) Provider() string {
	return g.kind.String()
}

// Complete sends one payload and returns the raw reply text. There are no
// retries. Errors are *TransportError or wrap ErrMalformedResponse.
func (g *Gateway) Complete(ctx context.Context, p prompt.Payload) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	model := g.ResolveModel(p.Model)
	temperature := g.cfg.Temperature
	req := llm.Request{
		Model: model,
		Messages: []llm.ChatMessage{
			llm.SystemMessage(p.System),
			llm.UserMessage(p.User),
		},
		Format:      llm.NewJSONObjectFormat(),
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: &temperature,
	}

	start := time.Now()
	resp, err := g.provider.Complete(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyResponse) {
			g.logger.Warn("completion returned no content",
				"provider", g.provider.Name(), "model", model, "elapsed", elapsed)
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		g.logger.Warn("completion failed",
			"provider", g.provider.Name(), "model", model, "elapsed", elapsed, "error", err)
		return "", &TransportError{Cause: err}
	}

	attrs := []any{"provider", g.provider.Name(), "model", model, "elapsed", elapsed}
	if resp.Usage != nil {
		attrs = append(attrs, "total_tokens", resp.Usage.TotalTokens)
	}
	g.logger.Debug("completion finished", attrs...)

	return resp.Content, nil
}
