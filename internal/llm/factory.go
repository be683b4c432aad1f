package llm

import (
	"fmt"
	"strings"

	"github.com/samsaffron/notion-llm/internal/config"
)

// ProviderNames lists the providers the factory can construct.
func ProviderNames() []string {
	return []string{"anthropic", "openai", "gemini", "xai"}
}

// ParseProviderModel parses "provider:model" or just "provider" from a flag value.
// Returns (provider, model, error). Model will be empty if not specified.
func ParseProviderModel(s string) (string, string, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) == 0 || strings.TrimSpace(parts[0]) == "" {
		return "", "", fmt.Errorf("invalid provider format: %q", s)
	}
	provider := strings.TrimSpace(parts[0])
	model := ""
	if len(parts) == 2 {
		model = strings.TrimSpace(parts[1])
	}
	for _, name := range ProviderNames() {
		if provider == name {
			return provider, model, nil
		}
	}
	return "", "", fmt.Errorf("unknown provider: %s", provider)
}

// NewProvider creates a new LLM provider based on the config.
// Providers are wrapped with automatic retry for rate limits (429) and transient errors.
func NewProvider(cfg *config.Config) (Provider, error) {
	return NewProviderByName(cfg, cfg.Provider)
}

// NewProviderByName creates a provider by name from the config.
// This is useful for per-command provider overrides.
func NewProviderByName(cfg *config.Config, name string) (Provider, error) {
	provider, err := createProvider(cfg, name)
	if err != nil {
		return nil, err
	}
	// Wrap with retry logic (enabled by default)
	return WrapWithRetry(provider, DefaultRetryConfig()), nil
}

// createProvider creates the underlying provider without retry wrapper.
func createProvider(cfg *config.Config, name string) (Provider, error) {
	switch name {
	case "anthropic", "claude":
		if cfg.Anthropic.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key not configured. Set ANTHROPIC_API_KEY or add to config")
		}
		return NewAnthropicProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model), nil
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai API key not configured. Set OPENAI_API_KEY or add to config")
		}
		return NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured. Set GEMINI_API_KEY or add to config")
		}
		return NewGeminiProvider(cfg.Gemini.APIKey, cfg.Gemini.Model), nil
	case "xai", "grok":
		if cfg.XAI.APIKey == "" {
			return nil, fmt.Errorf("xai API key not configured. Set XAI_API_KEY or add to config")
		}
		return NewXAIProvider(cfg.XAI.APIKey, cfg.XAI.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}

// ActiveModel returns the configured model for the active provider.
func ActiveModel(cfg *config.Config) string {
	switch cfg.Provider {
	case "anthropic", "claude":
		return cfg.Anthropic.Model
	case "openai":
		return cfg.OpenAI.Model
	case "gemini":
		return cfg.Gemini.Model
	case "xai", "grok":
		return cfg.XAI.Model
	default:
		return ""
	}
}
