package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samsaffron/notion-llm/internal/config"
	"github.com/samsaffron/notion-llm/internal/llm"
	"github.com/spf13/cobra"
)

var (
	providersJSON       bool
	providersConfigured bool
)

// ProviderInfo describes a provider for external consumption
type ProviderInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	EnvVar      string   `json:"env_var"`
	Model       string   `json:"model,omitempty"`
	Models      []string `json:"models,omitempty"`
	Configured  bool     `json:"configured"`
	Active      bool     `json:"active"`
}

// providerMeta contains metadata about the supported providers
var providerMeta = map[string]struct {
	envVar      string
	description string
}{
	"anthropic": {
		envVar:      "ANTHROPIC_API_KEY",
		description: "Anthropic API (Claude models)",
	},
	"openai": {
		envVar:      "OPENAI_API_KEY",
		description: "OpenAI API (GPT models)",
	},
	"gemini": {
		envVar:      "GEMINI_API_KEY",
		description: "Google Gemini API",
	},
	"xai": {
		envVar:      "XAI_API_KEY",
		description: "xAI API (Grok models)",
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers [name]",
	Short: "List available AI providers",
	Long: `List the supported AI providers, their configured models, and whether
an API key is present.

Examples:
  notion-llm providers                  # list all providers
  notion-llm providers --json           # JSON output for scripting
  notion-llm providers --configured     # only providers with a key
  notion-llm providers anthropic        # details for one provider`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.Flags().BoolVar(&providersJSON, "json", false, "Output as JSON")
	providersCmd.Flags().BoolVar(&providersConfigured, "configured", false, "Show only providers with a key configured")
}

func runProviders(cmd *cobra.Command, args []string) error {
	// Load config (may fail if not set up, that's OK)
	cfg, _ := config.Load()

	providers := buildProviderList(cfg)

	if len(args) == 1 {
		return showProviderDetails(args[0], providers)
	}

	var filtered []ProviderInfo
	for _, p := range providers {
		if providersConfigured && !p.Configured {
			continue
		}
		filtered = append(filtered, p)
	}

	if providersJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(filtered)
	}

	if len(filtered) == 0 {
		fmt.Println("No providers configured. Set one of the provider API key environment variables.")
		return nil
	}

	fmt.Println("Providers:")
	for _, p := range filtered {
		printProviderLine(p)
	}
	fmt.Println()
	fmt.Println("* marks the active provider; change it with 'notion-llm config set provider <name>'.")
	return nil
}

func buildProviderList(cfg *config.Config) []ProviderInfo {
	var providers []ProviderInfo
	for _, name := range llm.ProviderNames() {
		meta := providerMeta[name]
		info := ProviderInfo{
			Name:        name,
			Description: meta.description,
			EnvVar:      meta.envVar,
			Models:      llm.ProviderModels[name],
		}
		if cfg != nil {
			info.Model, info.Configured = providerState(cfg, name)
			info.Active = cfg.Provider == name
		}
		providers = append(providers, info)
	}
	return providers
}

// providerState returns the configured model and key presence for one
// provider. Keys resolve from the environment during config load, so a
// non-empty key means the provider is usable.
func providerState(cfg *config.Config, name string) (string, bool) {
	switch name {
	case "anthropic":
		return cfg.Anthropic.Model, cfg.Anthropic.APIKey != ""
	case "openai":
		return cfg.OpenAI.Model, cfg.OpenAI.APIKey != ""
	case "gemini":
		return cfg.Gemini.Model, cfg.Gemini.APIKey != ""
	case "xai":
		return cfg.XAI.Model, cfg.XAI.APIKey != ""
	}
	return "", false
}

func printProviderLine(p ProviderInfo) {
	marker := " "
	if p.Active {
		marker = "*"
	}
	key := "no key"
	if p.Configured {
		key = "key set"
	}
	fmt.Printf("%s %-10s %-28s %-8s %s\n", marker, p.Name, p.Model, key, p.Description)
}

func showProviderDetails(name string, providers []ProviderInfo) error {
	var provider *ProviderInfo
	for i := range providers {
		if providers[i].Name == name {
			provider = &providers[i]
			break
		}
	}
	if provider == nil {
		return fmt.Errorf("provider '%s' not found. Use 'notion-llm providers' to list available providers", name)
	}

	if providersJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(provider)
	}

	fmt.Printf("Provider: %s\n", provider.Name)
	fmt.Printf("  Description:    %s\n", provider.Description)
	fmt.Printf("  Env variable:   %s\n", provider.EnvVar)
	fmt.Printf("  Configured:     %v\n", provider.Configured)
	fmt.Printf("  Active:         %v\n", provider.Active)
	if provider.Model != "" {
		fmt.Printf("  Model:          %s\n", provider.Model)
	}
	if len(provider.Models) > 0 {
		fmt.Printf("\n  Available models:\n")
		for _, m := range provider.Models {
			fmt.Printf("    %s\n", m)
		}
	}
	return nil
}
