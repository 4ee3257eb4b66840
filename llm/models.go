// Package llm provides shared data models for LLM providers.
package llm

import "errors"

// ErrEmptyResponse is returned when a provider answers without any choice or
// with empty content.
var ErrEmptyResponse = errors.New("empty response")

// ChatMessage represents a chat message with role and content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    "system",
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    "user",
		Content: content,
	}
}

// Request is a single completion request. Model is the provider-native model
// identifier; the provider does not resolve aliases.
type Request struct {
	Model       string
	Messages    []ChatMessage
	Format      *ResponseFormat
	MaxTokens   uint32
	Temperature *float32
}

// LLMResponse represents a response from an LLM provider.
type LLMResponse struct {
	Content string
	Model   string // model that actually served the request, when reported
	Usage   *TokenUsage
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// ResponseFormatType defines the type of response format.
type ResponseFormatType string

const (
	ResponseFormatText       ResponseFormatType = "text"
	ResponseFormatJSONObject ResponseFormatType = "json_object"
)

// ResponseFormat specifies how the LLM should format its response.
type ResponseFormat struct {
	Type ResponseFormatType `json:"type"`
}

// NewJSONObjectFormat creates a JSON object response format.
func NewJSONObjectFormat() *ResponseFormat {
	return &ResponseFormat{Type: ResponseFormatJSONObject}
}

// wantsJSON reports whether format asks for a JSON object.
func wantsJSON(format *ResponseFormat) bool {
	return format != nil && format.Type == ResponseFormatJSONObject
}

// splitSystem separates the system prompt from the conversation turns, for
// APIs that take the system prompt out of band.
func splitSystem(messages []ChatMessage) (string, []ChatMessage) {
	var system string
	turns := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == "system" {
			system = msg.Content
			continue
		}
		turns = append(turns, msg)
	}
	return system, turns
}
