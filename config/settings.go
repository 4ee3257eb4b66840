// Package config provides application settings loaded from an optional YAML
// file and environment variables.
//
// Settings are created via New() which handles:
// - Defaults, then the YAML file named by SCRIBE_CONFIG, then env overrides
// - Environment variable parsing with validation
// - Provider-specific API key lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/richinex/scribe/gateway"
	"github.com/richinex/scribe/llm"
)

// Settings holds all application configuration.
type Settings struct {
	LLM     LLMConfig     `yaml:"llm"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig holds LLM provider configuration. The API key is only ever read
// from the environment.
type LLMConfig struct {
	Provider    string            `yaml:"provider"`
	APIKey      string            `yaml:"-"`
	BaseURL     string            `yaml:"base_url"`
	Model       string            `yaml:"model"`  // default model identifier
	Models      map[string]string `yaml:"models"` // short name -> identifier; empty uses the provider catalog
	Timeout     time.Duration     `yaml:"timeout"`
	MaxTokens   uint32            `yaml:"max_tokens"`
	Temperature float64           `yaml:"temperature"`
	Referer     string            `yaml:"referer"`
	Title       string            `yaml:"title"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr      string  `yaml:"addr"`
	ChatRate  float64 `yaml:"chat_rate"`  // chat requests per second; 0 disables the limit
	ChatBurst uint32  `yaml:"chat_burst"` // requests allowed at once above ChatRate
}

// StorageConfig selects the document store.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "memory" or "sqlite"
	Path    string `yaml:"path"`    // SQLite database file
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text", "json" or "auto"
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		LLM: LLMConfig{
			Provider:    "openrouter",
			Timeout:     60 * time.Second,
			MaxTokens:   4096,
			Temperature: 0.7,
			Title:       "scribe",
		},
		Server: ServerConfig{
			Addr:      ":8000",
			ChatBurst: 5,
		},
		Storage: StorageConfig{
			Backend: "memory",
			Path:    "scribe.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults.
func Load(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return settings, nil
}

// New creates settings from defaults, the file named by SCRIBE_CONFIG (if
// any) and environment variables, in that order of increasing precedence.
// Returns an error if the provider is unknown or a variable holds an invalid
// value. A missing API key is not an error here; the gateway reports it.
func New() (Settings, error) {
	settings := DefaultSettings()
	if path := os.Getenv("SCRIBE_CONFIG"); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return Settings{}, err
		}
		settings = loaded
	}

	if err := applyEnv(&settings); err != nil {
		return Settings{}, err
	}

	kind, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return Settings{}, err
	}
	settings.LLM.Provider = kind.String()
	settings.LLM.APIKey = os.Getenv(kind.EnvVar())

	switch settings.Storage.Backend {
	case "memory", "sqlite":
	default:
		return Settings{}, fmt.Errorf("unknown storage backend: %q", settings.Storage.Backend)
	}

	return settings, nil
}

// Gateway converts the LLM settings into a gateway configuration.
func (s Settings) Gateway() gateway.Config {
	var models map[string]string
	if len(s.LLM.Models) > 0 {
		models = make(map[string]string, len(s.LLM.Models))
		for k, v := range s.LLM.Models {
			models[k] = v
		}
	}
	return gateway.Config{
		Provider:     s.LLM.Provider,
		APIKey:       s.LLM.APIKey,
		BaseURL:      s.LLM.BaseURL,
		DefaultModel: s.LLM.Model,
		Models:       models,
		Timeout:      s.LLM.Timeout,
		MaxTokens:    s.LLM.MaxTokens,
		Temperature:  float32(s.LLM.Temperature),
		Referer:      s.LLM.Referer,
		Title:        s.LLM.Title,
	}
}

func applyEnv(s *Settings) error {
	var err error

	s.LLM.Provider = getEnvString("LLM_PROVIDER", s.LLM.Provider)
	s.LLM.Model = getEnvString("LLM_MODEL", s.LLM.Model)
	s.LLM.BaseURL = getEnvString("LLM_BASE_URL", s.LLM.BaseURL)
	s.LLM.Referer = getEnvString("OPENROUTER_REFERER", s.LLM.Referer)
	s.LLM.Title = getEnvString("OPENROUTER_TITLE", s.LLM.Title)

	if s.LLM.Timeout, err = getEnvDuration("LLM_TIMEOUT", s.LLM.Timeout); err != nil {
		return err
	}
	if s.LLM.MaxTokens, err = getEnvUint32("LLM_MAX_TOKENS", s.LLM.MaxTokens); err != nil {
		return err
	}
	if s.LLM.Temperature, err = getEnvFloat64("LLM_TEMPERATURE", s.LLM.Temperature); err != nil {
		return err
	}

	s.Server.Addr = getEnvString("SCRIBE_ADDR", s.Server.Addr)
	if s.Server.ChatRate, err = getEnvFloat64("SCRIBE_CHAT_RATE", s.Server.ChatRate); err != nil {
		return err
	}
	if s.Server.ChatBurst, err = getEnvUint32("SCRIBE_CHAT_BURST", s.Server.ChatBurst); err != nil {
		return err
	}
	if s.Server.ChatRate < 0 {
		return fmt.Errorf("invalid value for SCRIBE_CHAT_RATE: %v", s.Server.ChatRate)
	}
	s.Storage.Backend = strings.ToLower(getEnvString("SCRIBE_STORE", s.Storage.Backend))
	s.Storage.Path = getEnvString("SCRIBE_DB", s.Storage.Path)
	s.Logging.Level = getEnvString("LOG_LEVEL", s.Logging.Level)
	s.Logging.Format = getEnvString("LOG_FORMAT", s.Logging.Format)
	return nil
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	return []string{
		llm.ProviderOpenRouter.String(),
		llm.ProviderOpenAI.String(),
		llm.ProviderAnthropic.String(),
		llm.ProviderDeepSeek.String(),
		llm.ProviderGemini.String(),
	}
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return d, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
