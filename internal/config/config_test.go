package config

import (
	"os"
	"strings"
	"testing"
)

func TestApplyOverrides(t *testing.T) {
	cfg := &Config{
		Provider: "anthropic",
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-6",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-5.2",
		},
		XAI: XAIConfig{
			Model: "grok-4-1-fast",
		},
	}

	cfg.ApplyOverrides("openai", "gpt-4o")
	if cfg.Provider != "openai" {
		t.Fatalf("provider=%q, want %q", cfg.Provider, "openai")
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("openai model=%q, want %q", cfg.OpenAI.Model, "gpt-4o")
	}
	if cfg.Anthropic.Model != "claude-sonnet-4-6" {
		t.Fatalf("anthropic model changed unexpectedly: %q", cfg.Anthropic.Model)
	}

	cfg.ApplyOverrides("", "gpt-5.2-mini")
	if cfg.Provider != "openai" {
		t.Fatalf("provider changed unexpectedly: %q", cfg.Provider)
	}
	if cfg.OpenAI.Model != "gpt-5.2-mini" {
		t.Fatalf("openai model=%q, want %q", cfg.OpenAI.Model, "gpt-5.2-mini")
	}

	cfg.ApplyOverrides("xai", "grok-4-1")
	if cfg.XAI.Model != "grok-4-1" {
		t.Fatalf("xai model=%q, want %q", cfg.XAI.Model, "grok-4-1")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("NOTION_LLM_TEST_KEY", "secret-value")

	cases := []struct {
		in   string
		want string
	}{
		{"${NOTION_LLM_TEST_KEY}", "secret-value"},
		{"$NOTION_LLM_TEST_KEY", "secret-value"},
		{"literal-key", "literal-key"},
		{"", ""},
	}
	for _, c := range cases {
		if got := expandEnv(c.in); got != c.want {
			t.Errorf("expandEnv(%q)=%q, want %q", c.in, got, c.want)
		}
	}
}

func TestResolveNotionCredentialsEnvFallback(t *testing.T) {
	t.Setenv("NOTION_API_KEY", "ntn_from_env")

	cfg := NotionConfig{}
	resolveNotionCredentials(&cfg)
	if cfg.APIKey != "ntn_from_env" {
		t.Fatalf("api key=%q, want env fallback", cfg.APIKey)
	}

	cfg = NotionConfig{APIKey: "ntn_explicit"}
	resolveNotionCredentials(&cfg)
	if cfg.APIKey != "ntn_explicit" {
		t.Fatalf("api key=%q, want explicit value kept", cfg.APIKey)
	}
}

func TestGetConfigDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir: %v", err)
	}
	if dir != "/tmp/xdg-test/notion-llm" {
		t.Fatalf("dir=%q, want /tmp/xdg-test/notion-llm", dir)
	}
}

func TestGetDataDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data-test")

	dir := GetDataDir()
	if dir != "/tmp/xdg-data-test/notion-llm" {
		t.Fatalf("dir=%q, want /tmp/xdg-data-test/notion-llm", dir)
	}
}

func TestSaveWritesConfig(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	cfg := &Config{
		Provider:  "anthropic",
		Notion:    NotionConfig{Version: "2022-06-28"},
		Anthropic: AnthropicConfig{Model: "claude-sonnet-4-6"},
		OpenAI:    OpenAIConfig{Model: "gpt-5.2"},
		Gemini:    GeminiConfig{Model: "gemini-3-flash-preview"},
		XAI:       XAIConfig{Model: "grok-4-1-fast"},
		Enhance:   EnhanceConfig{PacingMs: 200},
		Scrape:    ScrapeConfig{MaxDepth: 8},
		History:   HistoryConfig{Enabled: true},
	}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		"provider: anthropic",
		"version: 2022-06-28",
		"model: claude-sonnet-4-6",
		"pacing_ms: 200",
		"max_depth: 8",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("saved config missing %q", want)
		}
	}
}
