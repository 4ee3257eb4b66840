// Package main provides the scribe CLI entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/scribe/cli"
	"github.com/richinex/scribe/config"
	"github.com/richinex/scribe/internal/logging"
)

var (
	// Global flags
	provider string
	logLevel string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "scribe",
		Short: "AI edit suggestions for block-addressed documents",
		Long: `A service that asks an AI model for edits to a document and returns them
as suggestions addressed to the document's blocks (one block per line).

Suggestions that reference a missing or out-of-range block are dropped
before they reach the caller.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider ("+strings.Join(config.SupportedProviders(), ", ")+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level debug")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(blocksCmd())
	rootCmd.AddCommand(modelsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads settings and installs the default logger. One-shot commands
// log to stderr so stdout carries only command output.
func setup() (config.Settings, *slog.Logger, error) {
	if provider != "" {
		if err := os.Setenv("LLM_PROVIDER", provider); err != nil {
			return config.Settings{}, nil, err
		}
	}

	settings, err := config.New()
	if err != nil {
		return config.Settings{}, nil, err
	}

	level := settings.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	if verbose {
		level = "debug"
	}

	logger, err := logging.New(os.Stderr, level, settings.Logging.Format)
	if err != nil {
		return config.Settings{}, nil, err
	}
	slog.SetDefault(logger)
	return settings, logger, nil
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, logger, err := setup()
			if err != nil {
				return err
			}
			if addr != "" {
				settings.Server.Addr = addr
			}
			return cli.Serve(cmd.Context(), settings, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides SCRIBE_ADDR)")

	return cmd
}

func askCmd() *cobra.Command {
	var opts cli.AskOptions

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Run one query against a document file and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, logger, err := setup()
			if err != nil {
				return err
			}
			asst := cli.NewAssistant(settings, logger, nil)
			return cli.Ask(cmd.Context(), asst, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Document file (- for stdin)")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "What to change")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Model short name or identifier")
	cmd.Flags().StringVar(&opts.HistoryFile, "history", "", "JSON file with prior chat messages")

	return cmd
}

func chatCmd() *cobra.Command {
	var file, modelName string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session about a document file",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, logger, err := setup()
			if err != nil {
				return err
			}
			asst := cli.NewAssistant(settings, logger, nil)
			return cli.Chat(cmd.Context(), asst, file, modelName, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Document file")
	cmd.Flags().StringVar(&modelName, "model", "", "Model short name or identifier")

	return cmd
}

func blocksCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Print the blocks of a document file as the AI service sees them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Blocks(file, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Document file (- for stdin)")

	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List model short names for the configured provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := setup()
			if err != nil {
				return err
			}
			return cli.ListModels(settings, cmd.OutOrStdout())
		},
	}
}
