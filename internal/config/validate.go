package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/catwalk/pkg/catwalk"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationWarning represents a validation warning (non-fatal).
type ValidationWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (vw ValidationWarning) String() string {
	return fmt.Sprintf("%s: %s", vw.Field, vw.Message)
}

// ValidationResult holds the result of validating a configuration.
type ValidationResult struct {
	IsValid  bool                `json:"is_valid"`
	Errors   []ValidationError   `json:"errors,omitempty"`
	Warnings []ValidationWarning `json:"warnings,omitempty"`
}

func (vr *ValidationResult) fail(field, format string, args ...any) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	vr.IsValid = false
}

func (vr *ValidationResult) warn(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationWarning{Field: field, Message: message})
}

// Validate checks a configuration with defaults applied.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if cfg.Memory.TokenLimit <= 0 {
		result.fail("memory.token_limit", "must be positive, got %d", cfg.Memory.TokenLimit)
	}
	if d, err := time.ParseDuration(cfg.Memory.SummarizeTimeout); err != nil {
		result.fail("memory.summarize_timeout", "invalid duration %q", cfg.Memory.SummarizeTimeout)
	} else if d <= 0 {
		result.fail("memory.summarize_timeout", "must be positive, got %s", d)
	}
	switch cfg.Memory.TokenEstimator {
	case "grapheme", "word":
	default:
		result.fail("memory.token_estimator", "unknown estimator %q, must be grapheme or word", cfg.Memory.TokenEstimator)
	}

	if !isValidProviderType(cfg.Model.ProviderType) {
		result.fail("model.provider_type", "unsupported provider type %q, must be one of: anthropic, openai, openai-compat",
			cfg.Model.ProviderType)
	}
	if err := validateURL(cfg.Model.BaseURL); err != nil {
		result.fail("model.base_url", "%v", err)
	}
	if strings.TrimSpace(cfg.Model.Model) == "" {
		result.fail("model.model", "model name is required")
	}
	if cfg.Model.ProviderType != catwalk.TypeOpenAICompat && cfg.Model.APIKey == "" {
		result.warn("model.api_key", "no API key configured, requests will likely be rejected")
	}

	return result
}

// SupportedProviderTypes lists the provider types a model can be built for.
func SupportedProviderTypes() []catwalk.Type {
	return []catwalk.Type{catwalk.TypeOpenAICompat, catwalk.TypeOpenAI, catwalk.TypeAnthropic}
}

// isValidProviderType checks if the provider type is supported.
func isValidProviderType(providerType catwalk.Type) bool {
	return slices.Contains(SupportedProviderTypes(), providerType)
}

// validateURL validates that a string is a valid URL.
func validateURL(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme == "" {
		return fmt.Errorf("URL must include a scheme (http:// or https://)")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}

// Error returns a combined error message from all validation errors.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}

	msg := "invalid configuration:"
	for _, err := range vr.Errors {
		msg += "\n  - " + err.Error()
	}
	return fmt.Errorf("%s", msg)
}

// WarningStrings returns all warnings as strings.
func (vr *ValidationResult) WarningStrings() []string {
	warnings := make([]string, len(vr.Warnings))
	for i, w := range vr.Warnings {
		warnings[i] = w.String()
	}
	return warnings
}
