package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/richinex/scribe/gateway"
	"github.com/richinex/scribe/llm"
	"github.com/richinex/scribe/model"
	"github.com/richinex/scribe/prompt"
	"github.com/richinex/scribe/suggestion"
)

// stubCompleter returns a canned reply and records the payload it got.
type stubCompleter struct {
	reply string
	err   error

	mu      sync.Mutex
	calls   int
	payload prompt.Payload
}

func (s *stubCompleter) Complete(ctx context.Context, p prompt.Payload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.payload = p
	return s.reply, s.err
}

// countingRecorder tallies outcomes.
type countingRecorder struct {
	mu          sync.Mutex
	outcomes    []string
	kept        int
	dropped     int
	completions int
}

func (r *countingRecorder) RecordQuery(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *countingRecorder) RecordValidation(report suggestion.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kept += len(report.Kept)
	r.dropped += len(report.Dropped)
}

func (r *countingRecorder) RecordCompletion(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions++
}

const helloWorld = "Hello\nWorld"

func TestAdditionWithinRangeIsKept(t *testing.T) {
	stub := &stubCompleter{reply: `{"message":"Added greeting","suggestions":[{"type":"addition","block_index":0,"content":"Hi there!","reason":"greeting"}]}`}

	result := New(stub).ProcessQuery(context.Background(), Query{
		Document: helloWorld,
		Text:     "add a greeting",
	})

	if result.Message != "Added greeting" {
		t.Errorf("message = %q", result.Message)
	}
	if len(result.Suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(result.Suggestions))
	}
	got := result.Suggestions[0]
	if got.Kind != suggestion.KindAddition || got.Content != "Hi there!" || got.Reason != "greeting" {
		t.Errorf("suggestion changed: %+v", got)
	}
	if n, ok := got.BlockIndex.Int(); !ok || n != 0 {
		t.Errorf("block_index = %s", got.BlockIndex)
	}
}

func TestOutOfRangeModificationIsDropped(t *testing.T) {
	stub := &stubCompleter{reply: `{"message":"ok","suggestions":[{"type":"modification","block_index":5,"content":"x","reason":"y"}]}`}
	rec := &countingRecorder{}

	result := New(stub, WithRecorder(rec)).ProcessQuery(context.Background(), Query{Document: helloWorld, Text: "fix"})

	if result.Message != "ok" {
		t.Errorf("message = %q", result.Message)
	}
	if result.Suggestions == nil || len(result.Suggestions) != 0 {
		t.Errorf("suggestions = %#v, want empty non-nil", result.Suggestions)
	}
	if rec.dropped != 1 || rec.kept != 0 {
		t.Errorf("recorder kept=%d dropped=%d", rec.kept, rec.dropped)
	}
}

func TestMissingCredentialMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	stub := llm.ProviderFunc(func(ctx context.Context, req llm.Request) (llm.LLMResponse, error) {
		calls.Add(1)
		return llm.LLMResponse{Content: "{}"}, nil
	})
	rec := &countingRecorder{}

	a := FromConfig(gateway.Config{Provider: "openrouter"},
		[]gateway.Option{gateway.WithProvider(stub)}, WithRecorder(rec))
	if !errors.Is(a.Err(), gateway.ErrMissingCredential) {
		t.Fatalf("Err() = %v", a.Err())
	}

	result := a.ProcessQuery(context.Background(), Query{Document: helloWorld, Text: "hi"})

	want := "OpenRouter API key not found. Please set OPENROUTER_API_KEY in the environment."
	if result.Message != want {
		t.Errorf("message = %q, want %q", result.Message, want)
	}
	if len(result.Suggestions) != 0 {
		t.Errorf("suggestions = %v", result.Suggestions)
	}
	if calls.Load() != 0 {
		t.Errorf("provider called %d times", calls.Load())
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != OutcomeConfigError {
		t.Errorf("outcomes = %v", rec.outcomes)
	}
}

func TestFromConfigWorks(t *testing.T) {
	stub := llm.ProviderFunc(func(ctx context.Context, req llm.Request) (llm.LLMResponse, error) {
		if req.Format == nil || req.Format.Type != llm.ResponseFormatJSONObject {
			t.Errorf("JSON output not requested")
		}
		return llm.LLMResponse{Content: `{"message":"fine","suggestions":[]}`}, nil
	})

	a := FromConfig(gateway.Config{APIKey: "k"}, []gateway.Option{gateway.WithProvider(stub)})
	if a.Err() != nil {
		t.Fatalf("Err() = %v", a.Err())
	}
	result := a.ProcessQuery(context.Background(), Query{Document: "x", Text: "y"})
	if result.Message != "fine" {
		t.Errorf("message = %q", result.Message)
	}
}

// An empty document is one empty block, so block_index 0 is in range and
// block_index 1 is not. The prompt asks for replace_all.
func TestEmptyDocumentHasOneBlock(t *testing.T) {
	stub := &stubCompleter{reply: `{"message":"draft","suggestions":[
		{"type":"modification","block_index":0,"content":"Title","reason":"a"},
		{"type":"addition","block_index":1,"content":"Body","reason":"b"},
		{"type":"replace_all","content":"Title\nBody","reason":"c"}
	]}`}

	result := New(stub).ProcessQuery(context.Background(), Query{Document: "", Text: "write something"})

	if !strings.Contains(stub.payload.User, `Use "replace_all"`) {
		t.Errorf("prompt lacks replace_all notice:\n%s", stub.payload.User)
	}
	if !strings.Contains(stub.payload.User, "block count: 1") {
		t.Errorf("prompt should report one block:\n%s", stub.payload.User)
	}

	if len(result.Suggestions) != 2 {
		t.Fatalf("got %d suggestions, want 2: %+v", len(result.Suggestions), result.Suggestions)
	}
	if result.Suggestions[0].Kind != suggestion.KindModification {
		t.Errorf("first kept = %v", result.Suggestions[0].Kind)
	}
	if result.Suggestions[1].Kind != suggestion.KindReplaceAll {
		t.Errorf("second kept = %v", result.Suggestions[1].Kind)
	}
}

func TestFencedReplyMatchesBare(t *testing.T) {
	bare := `{"message":"m","suggestions":[{"type":"deletion","block_index":1,"content":"","reason":"r"}]}`
	fenced := "```json\n" + bare + "\n```"

	a := New(&stubCompleter{reply: bare}).ProcessQuery(context.Background(), Query{Document: helloWorld})
	b := New(&stubCompleter{reply: fenced}).ProcessQuery(context.Background(), Query{Document: helloWorld})

	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	if string(aj) != string(bj) {
		t.Errorf("fenced result differs:\n%s\n%s", aj, bj)
	}
	if len(b.Suggestions) != 1 {
		t.Errorf("got %d suggestions, want 1", len(b.Suggestions))
	}
}

func TestErrorResults(t *testing.T) {
	tests := []struct {
		name        string
		stub        *stubCompleter
		wantMessage string
		wantPrefix  string
		wantOutcome string
	}{
		{
			name:        "decode",
			stub:        &stubCompleter{reply: "Sure! Here are my suggestions."},
			wantPrefix:  "Error parsing AI response: ",
			wantOutcome: OutcomeDecodeError,
		},
		{
			name:        "decode after fence",
			stub:        &stubCompleter{reply: "```json\n{not json}\n```"},
			wantPrefix:  "Error parsing AI response: ",
			wantOutcome: OutcomeDecodeError,
		},
		{
			name:        "malformed",
			stub:        &stubCompleter{err: fmt.Errorf("%w: empty", gateway.ErrMalformedResponse)},
			wantMessage: "Error: the AI service returned a malformed response (no content).",
			wantOutcome: OutcomeMalformed,
		},
		{
			name:        "transport",
			stub:        &stubCompleter{err: &gateway.TransportError{Cause: errors.New("dial tcp: connection refused")}},
			wantMessage: "Error: request to the AI service failed: dial tcp: connection refused",
			wantOutcome: OutcomeTransportError,
		},
		{
			name:        "timeout",
			stub:        &stubCompleter{err: &gateway.TransportError{Cause: context.DeadlineExceeded}},
			wantMessage: "Error: request to the AI service failed: context deadline exceeded",
			wantOutcome: OutcomeTransportError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &countingRecorder{}
			result := New(tt.stub, WithRecorder(rec)).ProcessQuery(context.Background(), Query{Document: helloWorld, Text: "q"})

			if tt.wantMessage != "" && result.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", result.Message, tt.wantMessage)
			}
			if tt.wantPrefix != "" && !strings.HasPrefix(result.Message, tt.wantPrefix) {
				t.Errorf("message = %q, want prefix %q", result.Message, tt.wantPrefix)
			}
			if result.Suggestions == nil || len(result.Suggestions) != 0 {
				t.Errorf("suggestions = %#v, want empty non-nil", result.Suggestions)
			}
			if len(rec.outcomes) != 1 || rec.outcomes[0] != tt.wantOutcome {
				t.Errorf("outcomes = %v, want [%s]", rec.outcomes, tt.wantOutcome)
			}

			out, _ := json.Marshal(result)
			if !strings.HasSuffix(string(out), `"suggestions":[]}`) {
				t.Errorf("JSON = %s", out)
			}
		})
	}
}

func TestCurrentDocumentBlockCount(t *testing.T) {
	reply := `{"message":"m","suggestions":[
		{"type":"modification","block_index":2,"content":"x","reason":"r"},
		{"type":"modification","block_index":0,"content":"y","reason":"r"}
	]}`

	t.Run("shrunk document", func(t *testing.T) {
		result := New(&stubCompleter{reply: reply}).ProcessQuery(context.Background(), Query{
			Document:        "a\nb\nc",
			CurrentDocument: func() (string, error) { return "a", nil },
		})
		if len(result.Suggestions) != 1 || result.Suggestions[0].Content != "y" {
			t.Errorf("suggestions = %+v, want only block 0", result.Suggestions)
		}
	})

	t.Run("hook error falls back to snapshot", func(t *testing.T) {
		result := New(&stubCompleter{reply: reply}).ProcessQuery(context.Background(), Query{
			Document:        "a\nb\nc",
			CurrentDocument: func() (string, error) { return "", errors.New("gone") },
		})
		if len(result.Suggestions) != 2 {
			t.Errorf("got %d suggestions, want 2", len(result.Suggestions))
		}
	})
}

func TestPromptCarriesHistoryAndModel(t *testing.T) {
	stub := &stubCompleter{reply: `{"message":"ok"}`}
	ProcessQuery(context.Background(), stub, Query{
		Document: helloWorld,
		History:  []model.Entry{model.UserEntry("earlier"), model.AIEntry("reply")},
		Text:     "now",
		Model:    "claude-sonnet",
	})

	if stub.calls != 1 {
		t.Fatalf("calls = %d", stub.calls)
	}
	if stub.payload.Model != "claude-sonnet" {
		t.Errorf("model = %q", stub.payload.Model)
	}
	for _, want := range []string{"[0] Hello", "[1] World", "USER: earlier", "AI: reply", "USER QUERY:\nnow"} {
		if !strings.Contains(stub.payload.User, want) {
			t.Errorf("prompt missing %q:\n%s", want, stub.payload.User)
		}
	}
}

func TestNilCompleter(t *testing.T) {
	result := New(nil).ProcessQuery(context.Background(), Query{})
	if !strings.HasPrefix(result.Message, "Error:") || len(result.Suggestions) != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestConcurrentQueries(t *testing.T) {
	a := New(&stubCompleter{reply: `{"message":"m","suggestions":[{"type":"deletion","block_index":0,"content":"","reason":"r"}]}`})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := a.ProcessQuery(context.Background(), Query{Document: helloWorld, Text: "q"})
			if len(result.Suggestions) != 1 {
				t.Errorf("got %d suggestions", len(result.Suggestions))
			}
		}()
	}
	wg.Wait()
}
