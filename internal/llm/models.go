package llm

import (
	"sort"
	"strings"
)

// ProviderModels contains the curated list of common models per provider,
// used for flag completion and the providers listing.
var ProviderModels = map[string][]string{
	"anthropic": {
		"claude-sonnet-4-6",
		"claude-opus-4-6",
		"claude-haiku-4-5",
	},
	"openai": {
		"gpt-5.2",
		"gpt-5.1",
		"gpt-5",
		"gpt-5-mini",
		"gpt-5-nano",
	},
	"gemini": {
		"gemini-3-pro-preview",
		"gemini-3-flash-preview",
		"gemini-2.5-flash",
		"gemini-2.5-flash-lite",
	},
	"xai": {
		"grok-4-1-fast",
		"grok-4",
		"grok-3",
		"grok-3-mini",
	},
}

// ModelsFor returns the curated models for a provider name, resolving the
// aliases the factory accepts.
func ModelsFor(provider string) []string {
	switch provider {
	case "claude":
		provider = "anthropic"
	case "grok":
		provider = "xai"
	}
	return ProviderModels[provider]
}

// ModelCompletions returns "provider:model" completions matching a partial
// flag value, sorted for stable shell output.
func ModelCompletions(toComplete string) []string {
	var out []string
	for _, name := range ProviderNames() {
		for _, model := range ProviderModels[name] {
			candidate := name + ":" + model
			if strings.HasPrefix(candidate, toComplete) || strings.HasPrefix(name, toComplete) {
				out = append(out, candidate)
			}
		}
	}
	sort.Strings(out)
	return out
}

// SafeModelName converts a model identifier into a form safe for file
// names. Output files carry the model so runs with different models never
// overwrite each other.
func SafeModelName(model string) string {
	return strings.NewReplacer(".", "_", "/", "_", "-", "_").Replace(model)
}
