// Package provider builds fantasy language models from configuration.
package provider

import (
	"context"
	"fmt"
	"maps"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
	"github.com/charmbracelet/catwalk/pkg/catwalk"

	"github.com/guilhermegouw/chatmem/internal/config"
)

// Model wraps a fantasy language model with the configuration it came from.
type Model struct {
	// Model is the fantasy language model interface.
	Model fantasy.LanguageModel
	// Config holds the user's model configuration.
	Config config.ModelConfig
}

// Builder creates fantasy providers from configuration.
type Builder struct {
	cfg   *config.ModelConfig
	cache map[catwalk.Type]fantasy.Provider
}

// NewBuilder creates a new provider Builder.
func NewBuilder(cfg *config.ModelConfig) *Builder {
	return &Builder{
		cfg:   cfg,
		cache: make(map[catwalk.Type]fantasy.Provider),
	}
}

// BuildModel creates the configured language model. It does not contact
// the provider.
func (b *Builder) BuildModel(ctx context.Context) (Model, error) {
	provider, err := b.getOrBuildProvider()
	if err != nil {
		return Model{}, err
	}

	lm, err := provider.LanguageModel(ctx, b.cfg.Model)
	if err != nil {
		return Model{}, fmt.Errorf("getting language model %q: %w", b.cfg.Model, err)
	}

	return Model{
		Model:  lm,
		Config: *b.cfg,
	}, nil
}

// getOrBuildProvider returns a cached provider or builds a new one.
func (b *Builder) getOrBuildProvider() (fantasy.Provider, error) {
	if p, ok := b.cache[b.cfg.ProviderType]; ok {
		return p, nil
	}

	p, err := b.buildProvider()
	if err != nil {
		return nil, err
	}

	b.cache[b.cfg.ProviderType] = p
	return p, nil
}

// buildProvider creates a fantasy provider from configuration.
func (b *Builder) buildProvider() (fantasy.Provider, error) {
	headers := maps.Clone(b.cfg.ExtraHeaders)
	apiKey := b.cfg.ResolvedAPIKey()
	baseURL := b.cfg.BaseURL

	//nolint:exhaustive // Only openai and anthropic wire formats are supported.
	switch b.cfg.ProviderType {
	case openai.Name, catwalk.TypeOpenAICompat:
		return buildOpenAIProvider(baseURL, apiKey, headers)
	case anthropic.Name:
		return buildAnthropicProvider(baseURL, apiKey, headers)
	default:
		return nil, fmt.Errorf("unsupported provider type: %q", b.cfg.ProviderType)
	}
}

// buildOpenAIProvider creates an OpenAI fantasy provider. Local
// OpenAI-compatible servers usually accept any key, so none is required.
func buildOpenAIProvider(baseURL, apiKey string, headers map[string]string) (fantasy.Provider, error) {
	var opts []openai.Option

	if apiKey != "" {
		opts = append(opts, openai.WithAPIKey(apiKey))
	}
	if len(headers) > 0 {
		opts = append(opts, openai.WithHeaders(headers))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	return openai.New(opts...)
}

// buildAnthropicProvider creates an Anthropic fantasy provider.
func buildAnthropicProvider(baseURL, apiKey string, headers map[string]string) (fantasy.Provider, error) {
	var opts []anthropic.Option

	if apiKey != "" {
		opts = append(opts, anthropic.WithAPIKey(apiKey))
	}
	if len(headers) > 0 {
		opts = append(opts, anthropic.WithHeaders(headers))
	}
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}

	return anthropic.New(opts...)
}
