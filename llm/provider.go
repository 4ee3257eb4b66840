// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for LLM providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling

package llm

import (
	"context"
)

// Provider defines the abstract interface for LLM providers.
// Implementations hide provider-specific details while exposing
// a single completion call.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Complete sends one chat completion request. It returns
	// ErrEmptyResponse (possibly wrapped) when the service answers without
	// content, and any other error for transport or API failures.
	Complete(ctx context.Context, req Request) (LLMResponse, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, req Request) (LLMResponse, error)

// Name returns "func".
func (f ProviderFunc) Name() string {
	return "func"
}

// Complete calls f.
func (f ProviderFunc) Complete(ctx context.Context, req Request) (LLMResponse, error) {
	return f(ctx, req)
}
