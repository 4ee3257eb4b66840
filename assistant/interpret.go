package assistant

import (
	"errors"
	"fmt"

	jsonutil "github.com/richinex/scribe/internal/json"
	"github.com/richinex/scribe/suggestion"
)

// User-facing messages for the failure paths. Every failure produces the same
// Result shape: a message and an empty suggestion list.
const (
	decodeErrorPrefix = "Error parsing AI response: "
	malformedMessage  = "Error: the AI service returned a malformed response (no content)."
	transportPrefix   = "Error: request to the AI service failed: "
)

// Result is what a caller receives for every query, successful or not.
type Result struct {
	Message     string                  `json:"message"`
	Suggestions []suggestion.Suggestion `json:"suggestions"`
}

// errorResult builds a failure Result.
func errorResult(message string) Result {
	return Result{Message: message, Suggestions: []suggestion.Suggestion{}}
}

// errNotObject marks a reply that decoded as JSON null.
var errNotObject = errors.New("expected a JSON object, got null")

type reply struct {
	Message     string                  `json:"message"`
	Suggestions []suggestion.Suggestion `json:"suggestions"`
}

// Interpret decodes the service reply into an unvalidated Result. A single
// surrounding code fence is removed first. On a decode failure the returned
// Result is the decode error Result and err is non-nil.
func Interpret(text string) (Result, error) {
	decoded, err := jsonutil.Decode[*reply](text)
	if err == nil && decoded == nil {
		err = fmt.Errorf("failed to unmarshal JSON: %w", errNotObject)
	}
	if err != nil {
		detail := err
		if inner := errors.Unwrap(err); inner != nil {
			detail = inner
		}
		return errorResult(decodeErrorPrefix + detail.Error()), err
	}

	if decoded.Suggestions == nil {
		decoded.Suggestions = []suggestion.Suggestion{}
	}
	return Result{Message: decoded.Message, Suggestions: decoded.Suggestions}, nil
}
