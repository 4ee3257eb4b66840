// Command execution for CLI commands.
//
// Information Hiding:
// - Store and assistant setup from settings
// - History file format
// - Output formatting

package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/richinex/scribe/assistant"
	"github.com/richinex/scribe/config"
	"github.com/richinex/scribe/document"
	"github.com/richinex/scribe/llm"
	"github.com/richinex/scribe/model"
	"github.com/richinex/scribe/observability"
	"github.com/richinex/scribe/server"
	"github.com/richinex/scribe/storage"
)

// Querier runs one assistant query.
type Querier interface {
	ProcessQuery(ctx context.Context, q assistant.Query) assistant.Result
}

// AskOptions holds the inputs of a one-shot query.
type AskOptions struct {
	File        string // document file; "-" reads stdin
	Query       string
	Model       string
	HistoryFile string // optional JSON array of {"role", "content"}
}

// OpenStore opens the configured document store.
func OpenStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite":
		store, err := storage.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}

// NewAssistant builds an assistant from settings. A missing API key is not
// an error here: every query answers with the configuration message instead.
func NewAssistant(settings config.Settings, logger *slog.Logger, rec assistant.Recorder) *assistant.Assistant {
	opts := []assistant.Option{assistant.WithLogger(logger)}
	if rec != nil {
		opts = append(opts, assistant.WithRecorder(rec))
	}
	return assistant.FromConfig(settings.Gateway(), nil, opts...)
}

// Serve runs the HTTP API until ctx is cancelled.
func Serve(ctx context.Context, settings config.Settings, logger *slog.Logger) error {
	store, err := OpenStore(settings.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics := observability.New()
	asst := NewAssistant(settings, logger, metrics)
	if err := asst.Err(); err != nil {
		logger.Warn("chat endpoint will report a configuration error", "error", err)
	}

	logger.Info("starting scribe",
		"provider", settings.LLM.Provider,
		"storage", settings.Storage.Backend,
		"addr", settings.Server.Addr)

	srv := server.New(store, asst,
		server.WithMetrics(metrics),
		server.WithLogger(logger),
		server.WithChatRateLimit(settings.Server.ChatRate, int(settings.Server.ChatBurst)))
	return srv.Run(ctx, settings.Server.Addr)
}

// Ask runs the pipeline once and writes the Result as indented JSON.
func Ask(ctx context.Context, q Querier, opts AskOptions, w io.Writer) error {
	if strings.TrimSpace(opts.Query) == "" {
		return fmt.Errorf("--query is required")
	}
	content, err := readDocument(opts.File)
	if err != nil {
		return err
	}
	history, err := loadHistory(opts.HistoryFile)
	if err != nil {
		return err
	}

	result := q.ProcessQuery(ctx, assistant.Query{
		Document: content,
		History:  history,
		Text:     opts.Query,
		Model:    opts.Model,
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// Chat starts an interactive session about one document. History is kept in
// memory for the length of the session; the document is not modified.
func Chat(ctx context.Context, q Querier, file, modelName string, in io.Reader, out io.Writer) error {
	content, err := readDocument(file)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Chat about %s (%d blocks). Type 'exit' to quit.\n\n", file, document.Count(content))

	var history []model.Entry
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		result := q.ProcessQuery(ctx, assistant.Query{
			Document: content,
			History:  history,
			Text:     input,
			Model:    modelName,
		})
		printResult(out, result)

		history = append(history, model.UserEntry(input), model.AIEntry(result.Message))
	}

	return scanner.Err()
}

// Blocks writes the indexed blocks of a document, one per line.
func Blocks(file string, w io.Writer) error {
	content, err := readDocument(file)
	if err != nil {
		return err
	}
	for _, b := range document.Index(content) {
		fmt.Fprintf(w, "[%d] (id=%d) %s\n", b.Position, b.ID, b.Content)
	}
	return nil
}

// ListModels writes the model short names the configured provider resolves.
func ListModels(settings config.Settings, w io.Writer) error {
	kind, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return err
	}
	catalog := settings.LLM.Models
	if len(catalog) == 0 {
		catalog = kind.Catalog()
	}
	defaultModel := settings.LLM.Model
	if defaultModel == "" {
		defaultModel = kind.DefaultModel()
	}

	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "Models for %s:\n\n", kind.DisplayName())
	for _, name := range names {
		marker := " "
		if catalog[name] == defaultModel {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %-20s %s\n", marker, name, catalog[name])
	}
	fmt.Fprintf(w, "\nDefault: %s\n", defaultModel)
	return nil
}

// Helper functions

func readDocument(file string) (string, error) {
	if file == "" {
		return "", fmt.Errorf("--file is required")
	}
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}

func loadHistory(path string) ([]model.Entry, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	var raw []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}

	history := make([]model.Entry, 0, len(raw))
	for i, r := range raw {
		role, ok := model.ParseRole(r.Role)
		if !ok {
			return nil, fmt.Errorf("history entry %d: unknown role %q", i, r.Role)
		}
		history = append(history, model.Entry{Role: role, Content: r.Content})
	}
	return history, nil
}

const maxContentPreviewLen = 120

func printResult(w io.Writer, result assistant.Result) {
	fmt.Fprintf(w, "\n%s\n", result.Message)
	if len(result.Suggestions) == 0 {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintln(w, "--- Suggestions ---")
	for i, s := range result.Suggestions {
		if s.Kind.BlockAddressed() {
			fmt.Fprintf(w, "%d. %s at [%s]\n", i+1, s.Type(), s.BlockIndex.String())
		} else {
			fmt.Fprintf(w, "%d. %s\n", i+1, s.Type())
		}
		if s.Content != "" {
			fmt.Fprintf(w, "   Content: %s\n", truncateString(s.Content, maxContentPreviewLen))
		}
		if s.Reason != "" {
			fmt.Fprintf(w, "   Reason: %s\n", s.Reason)
		}
	}
	fmt.Fprintln(w, "-------------------")
	fmt.Fprintln(w)
}

// truncateString truncates a string to maxLen runes, preserving UTF-8 boundaries.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
