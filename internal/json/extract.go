// Package json provides JSON extraction utilities for parsing LLM responses.
//
// LLMs often wrap JSON in markdown code fences even when asked not to.
// StripCodeFence removes one such fence; it is deliberately not a markdown
// parser and does not hunt for JSON embedded in surrounding prose.
package json

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

const fence = "```"

// StripCodeFence removes a markdown code fence around a response.
//
// A fence is detected when the trimmed response starts with ```. The text
// returned is what lies strictly between the first line break after the
// opening fence (which ends the optional language tag) and the last ```
// in the response. If no fence is detected, or the fence has no line break
// or no closing marker, the response is returned unchanged.
func StripCodeFence(response string) string {
	trimmed := strings.TrimSpace(response)
	if !strings.HasPrefix(trimmed, fence) {
		return response
	}

	newline := strings.Index(trimmed, "\n")
	closing := strings.LastIndex(trimmed, fence)
	if newline == -1 || closing <= newline {
		return response
	}
	return trimmed[newline+1 : closing]
}

// Decode strips a code fence from response and unmarshals the remainder
// into T.
func Decode[T any](response string) (T, error) {
	var result T
	if err := DecodeInto(response, &result); err != nil {
		return result, err
	}
	return result, nil
}

// DecodeInto is the non-generic form of Decode.
func DecodeInto(response string, result interface{}) error {
	body := StripCodeFence(response)
	if err := json.Unmarshal([]byte(body), result); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// Preview shortens a response to at most max bytes for log and error
// messages. The cut never splits a UTF-8 sequence.
func Preview(response string, max int) string {
	if len(response) <= max {
		return response
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(response[cut]) {
		cut--
	}
	return response[:cut] + "..."
}
