package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const configFileName = "chatmem.json"

// Load finds and loads configuration from standard locations.
// It merges the global config with the nearest project config (project
// takes precedence), applies defaults and resolves the API key.
func Load() (*Config, error) {
	cfg := NewConfig()
	if err := loadFile(GlobalConfigPath(), cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading global config: %w", err)
	}

	if cwd, err := os.Getwd(); err == nil {
		if projectPath := findProjectConfig(cwd); projectPath != "" {
			projectCfg := NewConfig()
			if err := loadFile(projectPath, projectCfg); err != nil {
				return nil, fmt.Errorf("loading project config: %w", err)
			}
			ensureSections(cfg)
			mergeConfig(cfg, projectCfg)
		}
	}

	return finish(cfg, NewResolver())
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}
	return finish(cfg, NewResolver())
}

func finish(cfg *Config, resolver *Resolver) (*Config, error) {
	applyDefaults(cfg)

	if err := configureModel(cfg.Model, resolver); err != nil {
		return nil, err
	}
	if res := Validate(cfg); !res.IsValid {
		return nil, res.Error()
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	//nolint:gosec // G304: Path is from trusted config locations, not user input.
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// findProjectConfig walks up from dir looking for chatmem.json or
// .chatmem.json.
func findProjectConfig(dir string) string {
	for {
		path := filepath.Join(dir, configFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		hiddenPath := filepath.Join(dir, "."+configFileName)
		if _, err := os.Stat(hiddenPath); err == nil {
			return hiddenPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func mergeConfig(dst, src *Config) {
	if src.Memory != nil {
		if src.Memory.TokenLimit != 0 {
			dst.Memory.TokenLimit = src.Memory.TokenLimit
		}
		if src.Memory.SummarizeTimeout != "" {
			dst.Memory.SummarizeTimeout = src.Memory.SummarizeTimeout
		}
		if src.Memory.TokenEstimator != "" {
			dst.Memory.TokenEstimator = src.Memory.TokenEstimator
		}
	}

	if src.Model != nil {
		m := dst.Model
		if src.Model.ProviderType != "" {
			m.ProviderType = src.Model.ProviderType
		}
		if src.Model.BaseURL != "" {
			m.BaseURL = src.Model.BaseURL
		}
		if src.Model.APIKey != "" {
			m.APIKey = src.Model.APIKey
		}
		if len(src.Model.ExtraHeaders) > 0 {
			m.ExtraHeaders = src.Model.ExtraHeaders
		}
		if src.Model.Model != "" {
			m.Model = src.Model.Model
		}
		if src.Model.SystemPrompt != "" {
			m.SystemPrompt = src.Model.SystemPrompt
		}
		if src.Model.MaxOutputTokens != 0 {
			m.MaxOutputTokens = src.Model.MaxOutputTokens
		}
	}

	if src.Options != nil {
		if src.Options.DataDir != "" {
			dst.Options.DataDir = src.Options.DataDir
		}
		if src.Options.Debug {
			dst.Options.Debug = true
		}
	}
}

func ensureSections(cfg *Config) {
	if cfg.Memory == nil {
		cfg.Memory = &MemoryConfig{}
	}
	if cfg.Model == nil {
		cfg.Model = &ModelConfig{}
	}
	if cfg.Options == nil {
		cfg.Options = &Options{}
	}
}

func applyDefaults(cfg *Config) {
	ensureSections(cfg)

	if cfg.Memory.TokenLimit == 0 {
		cfg.Memory.TokenLimit = DefaultTokenLimit
	}
	if cfg.Memory.SummarizeTimeout == "" {
		cfg.Memory.SummarizeTimeout = DefaultSummarizeTimeout
	}
	if cfg.Memory.TokenEstimator == "" {
		cfg.Memory.TokenEstimator = DefaultTokenEstimator
	}

	if cfg.Model.ProviderType == "" {
		cfg.Model.ProviderType = DefaultProviderType
	}
	if cfg.Model.BaseURL == "" {
		cfg.Model.BaseURL = DefaultBaseURL
	}
	if cfg.Model.Model == "" {
		cfg.Model.Model = DefaultModel
	}
	if cfg.Model.SystemPrompt == "" {
		cfg.Model.SystemPrompt = DefaultSystemPrompt
	}
}

// configureModel resolves environment references in the API key and base URL.
func configureModel(m *ModelConfig, resolver *Resolver) error {
	if m.APIKey != "" {
		resolved, err := resolver.Resolve(m.APIKey)
		if err != nil {
			return fmt.Errorf("resolving api_key: %w", err)
		}
		m.resolvedAPIKey = resolved
	}
	if resolved, err := resolver.Resolve(m.BaseURL); err == nil {
		m.BaseURL = resolved
	}
	return nil
}
