package json

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

type TestStruct struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json tag", "```json\n{\"a\":1}\n```", "{\"a\":1}\n"},
		{"no tag", "```\n{\"a\":1}\n```", "{\"a\":1}\n"},
		{"surrounding whitespace", "\n  ```json\n{\"a\":1}\n```  \n", "{\"a\":1}\n"},
		{"last fence wins", "```json\n{\"code\":\"```\"}\n```", "{\"code\":\"```\"}\n"},
		{"no newline", "```{\"a\":1}```", "```{\"a\":1}```"},
		{"no closing fence", "```json\n{\"a\":1}", "```json\n{\"a\":1}"},
		{"fence later in text", "Here:\n```json\n{}\n```", "Here:\n```json\n{}\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.in); got != tt.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPureJSON(t *testing.T) {
	response := `{"name": "test", "value": 42}`
	result, err := Decode[TestStruct](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "test" {
		t.Errorf("expected name 'test', got '%s'", result.Name)
	}
	if result.Value != 42 {
		t.Errorf("expected value 42, got %d", result.Value)
	}
}

func TestFencedJSONParsesLikeBareJSON(t *testing.T) {
	bare := `{"name": "test", "value": 42}`
	fenced := "```json\n" + bare + "\n```"

	a, err := Decode[TestStruct](bare)
	if err != nil {
		t.Fatalf("bare: %v", err)
	}
	b, err := Decode[TestStruct](fenced)
	if err != nil {
		t.Fatalf("fenced: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("fenced result %+v differs from bare %+v", b, a)
	}
}

func TestJSONWithPrefixIsRejected(t *testing.T) {
	response := `Here is the result: {"name": "test", "value": 42}`
	_, err := Decode[TestStruct](response)
	if err == nil {
		t.Fatal("expected error for prose around JSON, got nil")
	}
	if !strings.Contains(err.Error(), "failed to unmarshal JSON") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestInvalidJSON(t *testing.T) {
	response := `{"name": "test", value: }`
	_, err := Decode[TestStruct](response)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("short", 10); got != "short" {
		t.Errorf("expected unchanged, got %q", got)
	}
	if got := Preview("abcdefghij", 4); got != "abcd..." {
		t.Errorf("expected truncation, got %q", got)
	}
	// "é" is two bytes; a cut at byte 2 would split it
	got := Preview("aéb", 2)
	if got != "a..." {
		t.Errorf("expected cut before multi-byte rune, got %q", got)
	}
	if !utf8.ValidString(Preview("日本語テキスト", 4)) {
		t.Error("preview produced invalid UTF-8")
	}
}
