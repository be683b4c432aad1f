package llm

import (
	"strings"
	"testing"

	"github.com/samsaffron/notion-llm/internal/config"
)

func TestParseProviderModel(t *testing.T) {
	cases := []struct {
		in           string
		wantProvider string
		wantModel    string
		wantErr      bool
	}{
		{"anthropic", "anthropic", "", false},
		{"openai:gpt-5.2", "openai", "gpt-5.2", false},
		{"xai:grok-4-1-fast", "xai", "grok-4-1-fast", false},
		{"gemini: gemini-3-flash-preview ", "gemini", "gemini-3-flash-preview", false},
		{"mistral", "", "", true},
		{"", "", "", true},
	}
	for _, c := range cases {
		provider, model, err := ParseProviderModel(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseProviderModel(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseProviderModel(%q): %v", c.in, err)
			continue
		}
		if provider != c.wantProvider || model != c.wantModel {
			t.Errorf("ParseProviderModel(%q)=(%q,%q), want (%q,%q)",
				c.in, provider, model, c.wantProvider, c.wantModel)
		}
	}
}

func TestNewProviderMissingKey(t *testing.T) {
	cfg := &config.Config{Provider: "anthropic"}
	_, err := NewProvider(cfg)
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Errorf("error should mention env var: %v", err)
	}
}

func TestNewProviderUnknown(t *testing.T) {
	cfg := &config.Config{Provider: "mistral"}
	_, err := NewProvider(cfg)
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestNewProviderByNameWrapsRetry(t *testing.T) {
	cfg := &config.Config{
		Provider:  "anthropic",
		Anthropic: config.AnthropicConfig{APIKey: "sk-test", Model: "claude-sonnet-4-6"},
	}
	p, err := NewProviderByName(cfg, "anthropic")
	if err != nil {
		t.Fatalf("NewProviderByName: %v", err)
	}
	if _, ok := p.(*RetryProvider); !ok {
		t.Fatalf("expected *RetryProvider, got %T", p)
	}
	if got := p.Name(); !strings.Contains(got, "Anthropic") {
		t.Errorf("Name()=%q, want the wrapped Anthropic name", got)
	}
}

func TestNewProviderAliases(t *testing.T) {
	cfg := &config.Config{
		Anthropic: config.AnthropicConfig{APIKey: "sk-a"},
		XAI:       config.XAIConfig{APIKey: "sk-x"},
	}
	if _, err := NewProviderByName(cfg, "claude"); err != nil {
		t.Errorf("claude alias: %v", err)
	}
	if _, err := NewProviderByName(cfg, "grok"); err != nil {
		t.Errorf("grok alias: %v", err)
	}
}

func TestActiveModel(t *testing.T) {
	cfg := &config.Config{
		Provider: "xai",
		XAI:      config.XAIConfig{Model: "grok-4-1-fast"},
	}
	if got := ActiveModel(cfg); got != "grok-4-1-fast" {
		t.Errorf("ActiveModel=%q, want grok-4-1-fast", got)
	}
	cfg.Provider = "nope"
	if got := ActiveModel(cfg); got != "" {
		t.Errorf("ActiveModel for unknown provider=%q, want empty", got)
	}
}
