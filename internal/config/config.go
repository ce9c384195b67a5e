package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"

	"github.com/codexautotest/internal/apperr"
	"github.com/codexautotest/internal/llm"
	"github.com/codexautotest/internal/prompts"
)

const (
	// DefaultPath is the configuration file looked up in the working directory.
	DefaultPath = ".codex-autotest.yaml"
	// EnvPrefix marks environment overrides. A double underscore separates
	// nesting levels: CODEX_AUTOTEST_MODEL__NAME sets model.name.
	EnvPrefix = "CODEX_AUTOTEST_"
)

// Config represents the application configuration
type Config struct {
	SrcPath   string            `koanf:"src_path"`
	Language  string            `koanf:"language"`
	Framework string            `koanf:"framework"`
	Prompts   map[string]string `koanf:"prompts"`
	Model     ModelConfig       `koanf:"model"`

	// Path is the file the configuration was read from, empty when only
	// defaults and environment were used.
	Path string `koanf:"-"`
}

// ModelConfig selects and tunes the completion model.
type ModelConfig struct {
	Provider          string        `koanf:"provider"`
	Name              string        `koanf:"name"`
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	MaxTokens         int           `koanf:"max_tokens"`
	Temperature       float64       `koanf:"temperature"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerMinute int           `koanf:"requests_per_minute"`
	MaxRetries        int           `koanf:"max_retries"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"language":                  "python",
		"framework":                 "pytest",
		"model.provider":            string(llm.ProviderOpenAI),
		"model.temperature":         0.2,
		"model.timeout":             "2m",
		"model.requests_per_minute": 0,
		"model.max_retries":         3,
	}
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml", "":
		return koanfyaml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format %q (use .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// LoadConfig loads the configuration from configPath, which must exist. An
// empty path means DefaultPath. A missing file is a ConfigNotFound error.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}
	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.KindConfigNotFound,
				"Configuration not found at %s. Please run \"codex-autotest init\" first", configPath).WithItem(configPath)
		}
		return nil, apperr.Wrap(err, apperr.KindConfigNotFound, "cannot read configuration %s", configPath).WithItem(configPath)
	}
	return load(configPath)
}

// LoadOrDefault loads configPath when it exists and otherwise returns the
// built-in defaults with environment overrides applied.
func LoadOrDefault(configPath string) (*Config, error) {
	cfg, err := LoadConfig(configPath)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, apperr.ErrConfigNotFound) {
		return nil, err
	}
	log.Debug().Str("path", configPath).Msg("No configuration file, using defaults")
	return load("")
}

func load(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		parser, err := parserFor(configPath)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(configPath), parser); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	config.Path = configPath

	log.Debug().Str("path", configPath).Strs("keys", k.Keys()).Msg("Configuration loaded")
	return &config, nil
}

// Prompt returns the configured template for key, falling back to the
// built-in template when the key is absent or blank.
func (c *Config) Prompt(key string) string {
	if tpl, ok := c.Prompts[key]; ok && strings.TrimSpace(tpl) != "" {
		return tpl
	}
	t, _ := prompts.Default(key)
	return t.Body
}

// Source returns flagPath when set, otherwise the configured src_path. With
// neither it fails with MissingInput.
func (c *Config) Source(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if c != nil && c.SrcPath != "" {
		return c.SrcPath, nil
	}
	return "", apperr.New(apperr.KindMissingInput, "Source path must be provided or defined in config")
}

// Validate validates the configuration. Every problem found is reported.
func Validate(config *Config) error {
	var errs []error

	if _, err := llm.ParseProvider(config.Model.Provider); err != nil {
		errs = append(errs, fmt.Errorf("model.provider: %w", err))
	}
	if config.Model.Temperature < 0 || config.Model.Temperature > 2 {
		errs = append(errs, fmt.Errorf("model.temperature must be between 0 and 2, got %v", config.Model.Temperature))
	}
	if config.Model.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("model.max_tokens must not be negative"))
	}
	if config.Model.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("model.requests_per_minute must not be negative"))
	}
	if config.Model.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("model.max_retries must not be negative"))
	}

	for _, key := range sortedKeys(config.Prompts) {
		tpl := config.Prompts[key]
		if _, ok := prompts.Default(key); !ok {
			errs = append(errs, fmt.Errorf("prompts.%s: unknown prompt", key))
			continue
		}
		unknown, err := prompts.UnknownFields(tpl, prompts.Vocabulary(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("prompts.%s: %w", key, err))
			continue
		}
		if len(unknown) > 0 {
			errs = append(errs, fmt.Errorf("prompts.%s: unknown placeholder(s) %s (available: %s)",
				key, strings.Join(unknown, ", "), strings.Join(prompts.Vocabulary(key), ", ")))
		}
	}

	return errors.Join(errs...)
}
