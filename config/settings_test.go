package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every variable New reads so tests do not depend on the
// caller's environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SCRIBE_CONFIG", "LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "LLM_TIMEOUT",
		"LLM_MAX_TOKENS", "LLM_TEMPERATURE", "OPENROUTER_REFERER", "OPENROUTER_TITLE",
		"SCRIBE_ADDR", "SCRIBE_CHAT_RATE", "SCRIBE_CHAT_BURST", "SCRIBE_STORE", "SCRIBE_DB", "LOG_LEVEL", "LOG_FORMAT",
		"OPENROUTER_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "DEEPSEEK_API_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scribe.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewDefaults(t *testing.T) {
	clearEnv(t)

	settings, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "openrouter" {
		t.Errorf("expected provider 'openrouter', got %q", settings.LLM.Provider)
	}
	if settings.LLM.Timeout != 60*time.Second {
		t.Errorf("expected 60s timeout, got %v", settings.LLM.Timeout)
	}
	if settings.Server.Addr != ":8000" {
		t.Errorf("expected :8000, got %q", settings.Server.Addr)
	}
	if settings.Storage.Backend != "memory" {
		t.Errorf("expected memory store, got %q", settings.Storage.Backend)
	}
	if settings.LLM.APIKey != "" {
		t.Errorf("expected no API key, got %q", settings.LLM.APIKey)
	}
	if settings.Server.ChatRate != 0 || settings.Logging.Format != "auto" {
		t.Errorf("expected unlimited chat and auto log format, got %v / %q", settings.Server.ChatRate, settings.Logging.Format)
	}
}

func TestNewWithAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	settings, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "anthropic" {
		t.Errorf("expected provider 'anthropic' (normalized from 'claude'), got %q", settings.LLM.Provider)
	}
	if settings.LLM.APIKey != "sk-ant" {
		t.Errorf("expected key from ANTHROPIC_API_KEY, got %q", settings.LLM.APIKey)
	}
}

func TestNewZeroTemperatureReachesGateway(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_TEMPERATURE", "0")

	settings, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := settings.Gateway().Temperature; got != 0 {
		t.Errorf("expected temperature 0, got %v", got)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "unknown_provider")

	if _, err := New(); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewWithInvalidEnvVar(t *testing.T) {
	tests := []struct {
		key string
		val string
	}{
		{"LLM_MAX_TOKENS", "not-a-number"},
		{"LLM_TEMPERATURE", "warm"},
		{"LLM_TIMEOUT", "soon"},
		{"SCRIBE_STORE", "postgres"},
		{"SCRIBE_CHAT_RATE", "-1"},
		{"SCRIBE_CHAT_BURST", "many"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			if _, err := New(); err == nil {
				t.Errorf("expected error for invalid %s", tt.key)
			}
		})
	}
}

func TestYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
llm:
  provider: deepseek
  model: deepseek-chat
  timeout: 15s
  max_tokens: 1024
  models:
    fast: deepseek-chat
server:
  addr: ":9000"
  chat_rate: 0.5
  chat_burst: 2
storage:
  backend: sqlite
  path: /tmp/scribe-test.db
logging:
  level: debug
  format: json
`)
	t.Setenv("SCRIBE_CONFIG", path)
	t.Setenv("SCRIBE_ADDR", ":9100")
	t.Setenv("DEEPSEEK_API_KEY", "sk-ds")

	settings, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settings.LLM.Provider != "deepseek" || settings.LLM.APIKey != "sk-ds" {
		t.Errorf("provider/key = %q/%q", settings.LLM.Provider, settings.LLM.APIKey)
	}
	if settings.LLM.Timeout != 15*time.Second || settings.LLM.MaxTokens != 1024 {
		t.Errorf("timeout/max_tokens = %v/%d", settings.LLM.Timeout, settings.LLM.MaxTokens)
	}
	if settings.LLM.Temperature != 0.7 {
		t.Errorf("unset yaml field should keep default, got %v", settings.LLM.Temperature)
	}
	if settings.Server.Addr != ":9100" {
		t.Errorf("env should override yaml, got %q", settings.Server.Addr)
	}
	if settings.Server.ChatRate != 0.5 || settings.Server.ChatBurst != 2 {
		t.Errorf("chat limit = %v/%d", settings.Server.ChatRate, settings.Server.ChatBurst)
	}
	if settings.Storage.Backend != "sqlite" || settings.Logging.Format != "json" {
		t.Errorf("storage/logging = %+v / %+v", settings.Storage, settings.Logging)
	}

	gw := settings.Gateway()
	if gw.Models["fast"] != "deepseek-chat" || gw.DefaultModel != "deepseek-chat" || gw.APIKey != "sk-ds" {
		t.Errorf("gateway config = %+v", gw)
	}
}

func TestLoadMissingFile(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != DefaultSettings().LLM.Provider {
		t.Errorf("expected defaults, got %+v", settings.LLM)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "llm: [unterminated")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSupportedProviders(t *testing.T) {
	providers := SupportedProviders()
	if len(providers) != 5 || providers[0] != "openrouter" {
		t.Errorf("unexpected providers: %v", providers)
	}
}
