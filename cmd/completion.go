package cmd

import (
	"strings"

	"github.com/samsaffron/notion-llm/internal/llm"
	"github.com/samsaffron/notion-llm/internal/prompt"
	"github.com/spf13/cobra"
)

// ProviderFlagCompletion handles --provider flag completion
func ProviderFlagCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	completions := llm.ModelCompletions(toComplete)

	// If completing provider name (no colon), don't add space so user can type ":"
	if !strings.Contains(toComplete, ":") {
		return completions, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// PromptSectionCompletion completes --prompt flag values and the
// "prompts show" positional argument: the built-in sections plus any
// extras from the active prompts file.
func PromptSectionCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	names := builtinSections()
	if cfg, err := loadConfig(); err == nil && cfg.Prompts.File != "" {
		extras, err := prompt.Sections(cfg.Prompts.File)
		if err == nil {
			for _, name := range extras {
				known := false
				for _, have := range names {
					if strings.EqualFold(have, name) {
						known = true
						break
					}
				}
				if !known {
					names = append(names, name)
				}
			}
		}
	}
	var completions []string
	for _, name := range names {
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(toComplete)) {
			completions = append(completions, name)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
