// Package assistant runs the suggestion pipeline for one user query.
//
// The pipeline is linear and holds no state between requests:
//
//	document.Index -> prompt.Build -> Completer.Complete -> Interpret -> suggestion.Audit
//
// Information Hiding:
// - Stage ordering
// - Conversion of every failure into an error Result
// - Which document snapshot the validator counts blocks from
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/richinex/scribe/document"
	"github.com/richinex/scribe/gateway"
	jsonutil "github.com/richinex/scribe/internal/json"
	"github.com/richinex/scribe/model"
	"github.com/richinex/scribe/prompt"
	"github.com/richinex/scribe/suggestion"
)

// Query outcomes, as reported to a Recorder.
const (
	OutcomeOK             = "ok"
	OutcomeConfigError    = "config_error"
	OutcomeTransportError = "transport_error"
	OutcomeMalformed      = "malformed"
	OutcomeDecodeError    = "decode_error"
)

// Completer sends a prompt to the reasoning service. *gateway.Gateway
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, p prompt.Payload) (string, error)
}

// Recorder receives pipeline measurements.
type Recorder interface {
	RecordQuery(outcome string)
	RecordValidation(report suggestion.Report)
	RecordCompletion(elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordQuery(string)                 {}
func (nopRecorder) RecordValidation(suggestion.Report) {}
func (nopRecorder) RecordCompletion(time.Duration)     {}

// Query is one user request against a document snapshot.
type Query struct {
	Document string
	History  []model.Entry
	Text     string
	Model    string

	// CurrentDocument, when set, returns the document as it is at validation
	// time. Suggestions are checked against its block count instead of the
	// snapshot in Document. An error falls back to the snapshot.
	CurrentDocument func() (string, error)
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Assistant) {
		if r != nil {
			a.recorder = r
		}
	}
}

// Assistant answers queries. Safe for concurrent use.
type Assistant struct {
	completer Completer
	initErr   error // construction failure, reported on every query
	logger    *slog.Logger
	recorder  Recorder
}

// New creates an Assistant around an existing Completer.
func New(c Completer, opts ...Option) *Assistant {
	a := &Assistant{
		completer: c,
		logger:    slog.Default(),
		recorder:  nopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FromConfig builds the gateway from cfg. A configuration error does not
// fail construction; every query then returns the configuration error Result
// without any network call.
func FromConfig(cfg gateway.Config, gwOpts []gateway.Option, opts ...Option) *Assistant {
	a := New(nil, opts...)
	gwOpts = append([]gateway.Option{gateway.WithLogger(a.logger)}, gwOpts...)
	gw, err := gateway.New(cfg, gwOpts...)
	if err != nil {
		a.initErr = err
		a.logger.Warn("assistant unavailable", "error", err)
		return a
	}
	a.completer = gw
	return a
}

// Err returns the construction error, if any.
func (a *Assistant) Err() error {
	return a.initErr
}

// ProcessQuery runs the whole pipeline with a throwaway Assistant.
func ProcessQuery(ctx context.Context, c Completer, q Query) Result {
	return New(c).ProcessQuery(ctx, q)
}

// ProcessQuery runs the pipeline for q. It never returns an error: failures
// become a Result with a message and no suggestions.
func (a *Assistant) ProcessQuery(ctx context.Context, q Query) Result {
	if a.initErr != nil {
		return a.fail(OutcomeConfigError, configMessage(a.initErr))
	}
	if a.completer == nil {
		return a.fail(OutcomeConfigError, "Error: no AI service configured.")
	}

	blocks := document.Index(q.Document)
	payload := prompt.Build(blocks, q.History, q.Text, q.Model)

	start := time.Now()
	text, err := a.completer.Complete(ctx, payload)
	a.recorder.RecordCompletion(time.Since(start))
	if err != nil {
		outcome, message := classify(err)
		a.logger.Warn("completion failed", "outcome", outcome, "model", q.Model, "error", err)
		return a.fail(outcome, message)
	}

	result, err := Interpret(text)
	if err != nil {
		a.logger.Warn("could not decode reply", "error", err, "reply", jsonutil.Preview(text, 200))
		return a.fail(OutcomeDecodeError, result.Message)
	}

	total := len(blocks)
	if q.CurrentDocument != nil {
		current, err := q.CurrentDocument()
		if err != nil {
			a.logger.Warn("current document unavailable, validating against snapshot", "error", err)
		} else {
			total = document.Count(current)
		}
	}

	report := suggestion.Audit(result.Suggestions, total)
	a.recorder.RecordValidation(report)
	a.recorder.RecordQuery(OutcomeOK)
	for _, r := range report.Dropped {
		a.logger.Debug("suggestion dropped",
			"position", r.Position, "type", r.Suggestion.Type(),
			"block_index", r.Suggestion.BlockIndex.String(), "reason", string(r.Reason))
	}
	a.logger.Debug("query processed",
		"model", q.Model, "blocks", total,
		"kept", len(report.Kept), "dropped", len(report.Dropped))

	result.Suggestions = report.Kept
	return result
}

func (a *Assistant) fail(outcome, message string) Result {
	a.recorder.RecordQuery(outcome)
	return errorResult(message)
}

// classify maps a Completer error to an outcome and a user message.
func classify(err error) (string, string) {
	var cfgErr *gateway.ConfigError
	if errors.As(err, &cfgErr) {
		return OutcomeConfigError, cfgErr.Error()
	}
	if errors.Is(err, gateway.ErrMalformedResponse) {
		return OutcomeMalformed, malformedMessage
	}
	var tErr *gateway.TransportError
	if errors.As(err, &tErr) {
		return OutcomeTransportError, transportPrefix + tErr.Cause.Error()
	}
	return OutcomeTransportError, transportPrefix + err.Error()
}

func configMessage(err error) string {
	var cfgErr *gateway.ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Error()
	}
	return "Error: " + err.Error()
}
