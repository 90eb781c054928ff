package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/text/language"
)

// Environment wiring.
const (
	EnvPrefix = "WINE_"
	EnvFile   = "WINE_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if WINE_CONFIG is set
//  3. env (prefix WINE_)
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// WINE_MODEL_PATH -> model_path. Underscores are kept to match the flat
	// koanf tags; WINE_CONFIG itself is not a config key.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		if s == EnvFile {
			return ""
		}
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be expressed in the struct types.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.ModelPath) == "":
		return fmt.Errorf("%w: model_path must not be empty", ErrInvalidConfig)
	case !oneOf(c.ModelFormat, "auto", "xgboost", "onnx"):
		return fmt.Errorf("%w: model_format %q", ErrInvalidConfig, c.ModelFormat)
	case !oneOf(c.OutOfRange, "clamp", "reject"):
		return fmt.Errorf("%w: out_of_range %q", ErrInvalidConfig, c.OutOfRange)
	case !oneOf(c.LogFormat, "text", "json"):
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	case !oneOf(c.LogLevel, "debug", "info", "warn", "warning", "error"):
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}
	if _, err := language.Parse(c.DefaultLang); err != nil {
		return fmt.Errorf("%w: default_lang %q: %w", ErrInvalidConfig, c.DefaultLang, err)
	}
	return c.validateMetrics()
}

func oneOf(v string, allowed ...string) bool {
	return slices.Contains(allowed, strings.ToLower(strings.TrimSpace(v)))
}
