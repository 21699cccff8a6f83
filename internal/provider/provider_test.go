package provider

import (
	"context"
	"testing"

	"github.com/charmbracelet/catwalk/pkg/catwalk"

	"github.com/guilhermegouw/chatmem/internal/config"
)

func TestBuilder_BuildModel(t *testing.T) {
	tests := []struct {
		name     string
		provider catwalk.Type
		baseURL  string
		wantErr  bool
	}{
		{"openai compatible", catwalk.TypeOpenAICompat, "http://localhost:11434/v1", false},
		{"openai", catwalk.TypeOpenAI, "https://api.openai.com/v1", false},
		{"anthropic", catwalk.TypeAnthropic, "https://api.anthropic.com", false},
		{"unsupported", catwalk.TypeBedrock, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.ModelConfig{
				ProviderType: tt.provider,
				BaseURL:      tt.baseURL,
				Model:        "some-model",
			}
			model, err := NewBuilder(cfg).BuildModel(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildModel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if model.Model == nil {
				t.Fatal("BuildModel() returned nil language model")
			}
			if model.Config.Model != "some-model" {
				t.Errorf("Config.Model = %q", model.Config.Model)
			}
		})
	}
}

func TestBuilder_CachesProvider(t *testing.T) {
	cfg := &config.ModelConfig{ProviderType: catwalk.TypeOpenAICompat, BaseURL: "http://localhost:1/v1", Model: "m"}
	b := NewBuilder(cfg)

	for range 2 {
		if _, err := b.BuildModel(context.Background()); err != nil {
			t.Fatalf("BuildModel() error = %v", err)
		}
	}
	if len(b.cache) != 1 {
		t.Errorf("cache has %d providers, want 1", len(b.cache))
	}
}
