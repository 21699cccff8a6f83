// Package config provides configuration management for chatmem.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/catwalk/pkg/catwalk"
	"github.com/tidwall/sjson"
)

const appName = "chatmem"

// Defaults applied to missing settings.
const (
	DefaultTokenLimit       = 1000
	DefaultSummarizeTimeout = "60s"
	DefaultTokenEstimator   = "grapheme"
	DefaultProviderType     = catwalk.TypeOpenAICompat
	DefaultBaseURL          = "http://localhost:11434/v1"
	DefaultModel            = "gemma3"
	DefaultSystemPrompt     = "You are a helpful assistant. Keep answers short and friendly."
)

// Config is the top-level configuration structure.
type Config struct {
	Memory  *MemoryConfig `json:"memory,omitempty"`
	Model   *ModelConfig  `json:"model,omitempty"`
	Options *Options      `json:"options,omitempty"`
}

// MemoryConfig controls when history gets compacted.
type MemoryConfig struct {
	TokenLimit       int    `json:"token_limit,omitempty"`
	SummarizeTimeout string `json:"summarize_timeout,omitempty"`
	TokenEstimator   string `json:"token_estimator,omitempty"`
}

// Timeout parses SummarizeTimeout.
func (m *MemoryConfig) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(m.SummarizeTimeout)
	if err != nil {
		return 0, fmt.Errorf("parsing summarize_timeout: %w", err)
	}
	return d, nil
}

// ModelConfig selects the language model used for replies and summaries.
//
//nolint:govet // Field order is intentional for JSON readability.
type ModelConfig struct {
	ProviderType    catwalk.Type      `json:"provider_type,omitempty"`
	BaseURL         string            `json:"base_url,omitempty"`
	APIKey          string            `json:"api_key,omitempty"`
	ExtraHeaders    map[string]string `json:"extra_headers,omitempty"`
	Model           string            `json:"model,omitempty"`
	SystemPrompt    string            `json:"system_prompt,omitempty"`
	MaxOutputTokens int64             `json:"max_output_tokens,omitempty"`

	// resolvedAPIKey is APIKey with environment references expanded.
	resolvedAPIKey string
}

// ResolvedAPIKey returns the API key with $VAR references expanded.
func (m *ModelConfig) ResolvedAPIKey() string {
	return m.resolvedAPIKey
}

// Options holds optional configuration settings.
//
//nolint:govet // Field order is intentional for JSON readability.
type Options struct {
	DataDir string `json:"data_directory,omitempty"`
	Debug   bool   `json:"debug,omitempty"`
}

// NewConfig creates a new Config with initialized sections.
func NewConfig() *Config {
	return &Config{
		Memory:  &MemoryConfig{},
		Model:   &ModelConfig{},
		Options: &Options{},
	}
}

// GlobalConfigPath returns the path to the global configuration file.
func GlobalConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, configFileName)
}

// DataDir returns the data directory path from configuration.
func (c *Config) DataDir() string {
	if c.Options != nil && c.Options.DataDir != "" {
		return c.Options.DataDir
	}
	return filepath.Join(xdg.DataHome, appName)
}

// DBPath returns the path of the conversation database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir(), appName+".db")
}

// LogPath returns the path of the debug log.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir(), "debug.log")
}

// SetConfigField updates a single field in the global config file using
// JSON path notation.
func (c *Config) SetConfigField(key string, value any) error {
	return SetField(GlobalConfigPath(), key, value)
}

// SetField updates a single field in the config file at path. It uses
// sjson for surgical updates, so every other field is left as written.
func SetField(path, key string, value any) error {
	//nolint:gosec // G304: path is a trusted config location, not user input.
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("reading config file: %w", err)
		}
		data = []byte("{}")
	}

	newData, err := sjson.Set(string(data), key, value)
	if err != nil {
		return fmt.Errorf("setting config field %q: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	//nolint:gosec // 0o600 is intentionally restrictive for security.
	if err := os.WriteFile(path, []byte(newData), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ParseValue converts a command-line value to the JSON type it most
// likely means: integer, boolean, or string.
func ParseValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
