package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "notion-llm",
	Short: "Enhance Notion pages with AI while preserving their formatting",
	Long: `notion-llm scrapes Notion pages, rewrites their text with an AI
provider, and writes the result back block by block without disturbing
bold, links, colors, or page structure.

Examples:
  notion-llm scrape 25372d5af2de80b99157e291f353611b
  notion-llm enhance <page> --dry-run --diff
  notion-llm translate <page> --to Japanese
  notion-llm questions <page> --insert
  notion-llm batch pages.txt --steps scrape,enhance,questions

  notion-llm config                     # view configuration
  notion-llm config completion zsh      # shell completions`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
