// Package config loads and validates the article analyzer configuration
// from the environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dshills/article-analyzer/model/anthropic"
	"github.com/dshills/article-analyzer/model/google"
	"github.com/dshills/article-analyzer/model/openai"
)

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig
	Providers ProviderConfig
	Log       LogConfig

	// JournalDSN selects the step journal: "sqlite:<path>", "mysql:<dsn>",
	// or empty for none.
	JournalDSN string

	// Tracing emits pipeline events as OpenTelemetry spans.
	Tracing bool
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string
}

// ProviderConfig holds credentials, model names and slot assignment.
type ProviderConfig struct {
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GoogleAPIKey    string

	OpenAIModel    string
	AnthropicModel string
	GoogleModel    string

	// A, B and Synthesis name the provider used for each call.
	A         string
	B         string
	Synthesis string

	MaxOutputTokens int
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

// ConfigurationError is returned by Load when the configuration is
// missing required values or holds invalid ones.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "configuration validation failed:\n" + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Load reads the configuration from the environment.
//
// With no arguments a .env file in the working directory is loaded if it
// exists. Named files must exist. Variables already set in the
// environment take precedence over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("load env file: %w", err)}
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnvOrDefault("SERVER_ADDRESS", ":8000"),
		},
		Providers: ProviderConfig{
			OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
			AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
			GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
			OpenAIModel:     getEnvOrDefault("OPENAI_MODEL", openai.DefaultModel),
			AnthropicModel:  getEnvOrDefault("ANTHROPIC_MODEL", anthropic.DefaultModel),
			GoogleModel:     getEnvOrDefault("GOOGLE_MODEL", google.DefaultModel),
			A:               strings.ToLower(getEnvOrDefault("PROVIDER_A", openai.ProviderName)),
			B:               strings.ToLower(getEnvOrDefault("PROVIDER_B", anthropic.ProviderName)),
			Synthesis:       strings.ToLower(getEnvOrDefault("SYNTHESIS_PROVIDER", openai.ProviderName)),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text")),
		},
		JournalDSN: os.Getenv("JOURNAL_DSN"),
	}

	var errs []error

	maxTokens, err := strconv.Atoi(getEnvOrDefault("MAX_OUTPUT_TOKENS", "4096"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid MAX_OUTPUT_TOKENS: %w", err))
	}
	cfg.Providers.MaxOutputTokens = maxTokens

	tracing, err := strconv.ParseBool(getEnvOrDefault("OTEL_TRACING", "false"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid OTEL_TRACING: %w", err))
	}
	cfg.Tracing = tracing

	if err := cfg.validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, &ConfigurationError{Err: errors.Join(errs...)}
	}
	return cfg, nil
}

// validate collects every problem instead of stopping at the first one.
func (c *Config) validate() error {
	var errs []error

	known := map[string]string{
		openai.ProviderName:    "OPENAI_API_KEY",
		anthropic.ProviderName: "ANTHROPIC_API_KEY",
		google.ProviderName:    "GOOGLE_API_KEY",
	}
	keys := map[string]string{
		openai.ProviderName:    c.Providers.OpenAIAPIKey,
		anthropic.ProviderName: c.Providers.AnthropicAPIKey,
		google.ProviderName:    c.Providers.GoogleAPIKey,
	}

	missing := make(map[string]bool)
	for _, slot := range []struct{ env, name string }{
		{"PROVIDER_A", c.Providers.A},
		{"PROVIDER_B", c.Providers.B},
		{"SYNTHESIS_PROVIDER", c.Providers.Synthesis},
	} {
		keyVar, ok := known[slot.name]
		if !ok {
			errs = append(errs, fmt.Errorf("%s must be one of: openai, anthropic, google (got: %s)", slot.env, slot.name))
			continue
		}
		if keys[slot.name] == "" && !missing[keyVar] {
			missing[keyVar] = true
			errs = append(errs, fmt.Errorf("%s is required", keyVar))
		}
	}

	if c.Providers.MaxOutputTokens < 0 {
		errs = append(errs, errors.New("MAX_OUTPUT_TOKENS must not be negative"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error (got: %s)", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: text, json (got: %s)", c.Log.Format))
	}

	if c.JournalDSN != "" && !strings.HasPrefix(c.JournalDSN, "sqlite:") && !strings.HasPrefix(c.JournalDSN, "mysql:") {
		errs = append(errs, errors.New("JOURNAL_DSN must start with sqlite: or mysql:"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
