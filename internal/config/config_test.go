package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/catwalk/pkg/catwalk"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "chatmem.json", `{}`)

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error = %v", err)
		}
		if cfg.Memory.TokenLimit != DefaultTokenLimit {
			t.Errorf("TokenLimit = %d, want %d", cfg.Memory.TokenLimit, DefaultTokenLimit)
		}
		if d, err := cfg.Memory.Timeout(); err != nil || d != 60*time.Second {
			t.Errorf("Timeout() = %v, %v; want 60s", d, err)
		}
		if cfg.Memory.TokenEstimator != "grapheme" {
			t.Errorf("TokenEstimator = %q", cfg.Memory.TokenEstimator)
		}
		if cfg.Model.ProviderType != catwalk.TypeOpenAICompat || cfg.Model.BaseURL != DefaultBaseURL || cfg.Model.Model != DefaultModel {
			t.Errorf("Model = %+v", cfg.Model)
		}
		if cfg.Model.SystemPrompt == "" {
			t.Error("SystemPrompt should default")
		}
	})

	t.Run("null sections get defaults", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "chatmem.json", `{"memory": null, "model": null}`)
		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error = %v", err)
		}
		if cfg.Memory.TokenLimit != DefaultTokenLimit {
			t.Errorf("TokenLimit = %d", cfg.Memory.TokenLimit)
		}
	})

	t.Run("reads every section", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, dir, "chatmem.json", `{
  "memory": {"token_limit": 4000, "summarize_timeout": "5s", "token_estimator": "word"},
  "model": {"provider_type": "anthropic", "base_url": "https://api.anthropic.com", "api_key": "sk-test", "model": "claude-x"},
  "options": {"data_directory": "`+filepath.ToSlash(dir)+`", "debug": true}
}`)

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error = %v", err)
		}
		if cfg.Memory.TokenLimit != 4000 || cfg.Memory.TokenEstimator != "word" {
			t.Errorf("Memory = %+v", cfg.Memory)
		}
		if cfg.Model.ResolvedAPIKey() != "sk-test" {
			t.Errorf("ResolvedAPIKey() = %q", cfg.Model.ResolvedAPIKey())
		}
		if cfg.DataDir() != filepath.ToSlash(dir) || !cfg.Options.Debug {
			t.Errorf("Options = %+v", cfg.Options)
		}
		if cfg.DBPath() != filepath.Join(cfg.DataDir(), "chatmem.db") {
			t.Errorf("DBPath() = %q", cfg.DBPath())
		}
		if cfg.LogPath() != filepath.Join(cfg.DataDir(), "debug.log") {
			t.Errorf("LogPath() = %q", cfg.LogPath())
		}
	})

	t.Run("resolves api key from environment", func(t *testing.T) {
		t.Setenv("CHATMEM_TEST_KEY", "from-env")
		path := writeConfig(t, t.TempDir(), "chatmem.json", `{"model": {"api_key": "${CHATMEM_TEST_KEY}"}}`)

		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error = %v", err)
		}
		if cfg.Model.ResolvedAPIKey() != "from-env" {
			t.Errorf("ResolvedAPIKey() = %q, want from-env", cfg.Model.ResolvedAPIKey())
		}
		if cfg.Model.APIKey != "${CHATMEM_TEST_KEY}" {
			t.Errorf("APIKey = %q, want the reference kept", cfg.Model.APIKey)
		}
	})

	t.Run("unset api key variable fails", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "chatmem.json", `{"model": {"api_key": "$CHATMEM_SURELY_UNSET_VAR"}}`)
		if _, err := LoadFromFile(path); err == nil {
			t.Error("expected error for unset variable")
		}
	})

	t.Run("rejects invalid settings", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "chatmem.json", `{
  "memory": {"token_limit": -1, "summarize_timeout": "soon", "token_estimator": "bpe"},
  "model": {"provider_type": "carrier-pigeon", "base_url": "ftp://x"}
}`)
		_, err := LoadFromFile(path)
		if err == nil {
			t.Fatal("expected validation error")
		}
		for _, field := range []string{
			"memory.token_limit", "memory.summarize_timeout", "memory.token_estimator",
			"model.provider_type", "model.base_url",
		} {
			if !strings.Contains(err.Error(), field) {
				t.Errorf("error missing %s:\n%v", field, err)
			}
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "chatmem.json", `{`)
		if _, err := LoadFromFile(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
		if !os.IsNotExist(err) {
			t.Errorf("error = %v, want not exist", err)
		}
	})
}

func TestValidate_Warnings(t *testing.T) {
	cfg := NewConfig()
	applyDefaults(cfg)
	cfg.Model.ProviderType = catwalk.TypeOpenAI

	res := Validate(cfg)
	if !res.IsValid {
		t.Fatalf("Validate() errors = %v", res.Errors)
	}
	if len(res.WarningStrings()) != 1 || !strings.HasPrefix(res.WarningStrings()[0], "model.api_key") {
		t.Errorf("warnings = %v, want api key warning", res.WarningStrings())
	}
	if res.Error() != nil {
		t.Errorf("Error() = %v, want nil", res.Error())
	}
}

func TestFindProjectConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := findProjectConfig(nested); got != "" && strings.HasPrefix(got, root) {
		t.Errorf("findProjectConfig() = %q before any config exists", got)
	}

	hidden := writeConfig(t, filepath.Join(root, "a"), ".chatmem.json", `{}`)
	if got := findProjectConfig(nested); got != hidden {
		t.Errorf("findProjectConfig() = %q, want %q", got, hidden)
	}

	visible := writeConfig(t, filepath.Join(root, "a"), "chatmem.json", `{}`)
	if got := findProjectConfig(nested); got != visible {
		t.Errorf("findProjectConfig() = %q, want %q", got, visible)
	}
}

func TestMergeConfig(t *testing.T) {
	dst := NewConfig()
	dst.Memory.TokenLimit = 1000
	dst.Model.Model = "global-model"
	dst.Model.APIKey = "global-key"

	src := NewConfig()
	src.Memory.TokenLimit = 200
	src.Model.Model = "project-model"
	src.Options.Debug = true

	mergeConfig(dst, src)

	if dst.Memory.TokenLimit != 200 || dst.Model.Model != "project-model" {
		t.Errorf("project values not applied: %+v %+v", dst.Memory, dst.Model)
	}
	if dst.Model.APIKey != "global-key" {
		t.Errorf("APIKey = %q, want global value kept", dst.Model.APIKey)
	}
	if !dst.Options.Debug {
		t.Error("Debug not merged")
	}
}

func TestSetField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chatmem.json")

	if err := SetField(path, "memory.token_limit", ParseValue("2500")); err != nil {
		t.Fatalf("SetField() error = %v", err)
	}
	if err := SetField(path, "model.api_key", ParseValue("$OPENAI_API_KEY")); err != nil {
		t.Fatalf("SetField() error = %v", err)
	}
	if err := SetField(path, "options.debug", ParseValue("true")); err != nil {
		t.Fatalf("SetField() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	var got struct {
		Memory  MemoryConfig `json:"memory"`
		Model   ModelConfig  `json:"model"`
		Options Options      `json:"options"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Memory.TokenLimit != 2500 || got.Model.APIKey != "$OPENAI_API_KEY" || !got.Options.Debug {
		t.Errorf("config = %s", data)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"42", int64(42)},
		{"-3", int64(-3)},
		{"true", true},
		{"false", false},
		{"60s", "60s"},
		{"gemma3", "gemma3"},
	}
	for _, tt := range tests {
		if got := ParseValue(tt.in); got != tt.want {
			t.Errorf("ParseValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestSaveToFile_KeepsReferences(t *testing.T) {
	t.Setenv("CHATMEM_SAVE_KEY", "secret")
	path := writeConfig(t, t.TempDir(), "chatmem.json", `{"model": {"api_key": "$CHATMEM_SAVE_KEY"}}`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	out := filepath.Join(t.TempDir(), "saved.json")
	if err := SaveToFile(cfg, out); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("resolved key written to disk:\n%s", data)
	}
	if !strings.Contains(string(data), "$CHATMEM_SAVE_KEY") {
		t.Errorf("reference missing:\n%s", data)
	}
}

func TestResolver(t *testing.T) {
	r := &Resolver{lookup: func(name string) (string, bool) {
		if name == "SET" {
			return "value", true
		}
		return "", false
	}}

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "plain", false},
		{"$SET", "value", false},
		{"${SET}", "value", false},
		{"$UNSET", "", true},
		{"$", "$", false},
		{"$with space", "$with space", false},
	}
	for _, tt := range tests {
		got, err := r.Resolve(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Resolve(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
