package cmd

import (
	"fmt"

	"github.com/samsaffron/notion-llm/internal/enhance"
	"github.com/spf13/cobra"
)

var (
	translateFlags rewriteFlags
	translateTo    string
)

var translateCmd = &cobra.Command{
	Use:   "translate <page>",
	Short: "Translate a page in place, preserving formatting",
	Long: `Rewrite every text block into the target language while keeping bold,
links, colors, and block structure intact. The language is free-form
text and is passed to the AI provider as-is.

Examples:
  notion-llm translate <page> --to Japanese
  notion-llm translate <page> --to "Brazilian Portuguese" --dry-run --diff
  notion-llm translate <page> --to Spanish -p gemini`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)
	addRewriteFlags(translateCmd, &translateFlags)
	translateCmd.Flags().StringVar(&translateTo, "to", "", "Target language (required)")
	if err := translateCmd.MarkFlagRequired("to"); err != nil {
		panic("failed to mark --to required: " + err.Error())
	}
}

func runTranslate(cmd *cobra.Command, args []string) error {
	if translateTo == "" {
		return fmt.Errorf("--to is required")
	}
	return runRewrite(args[0], enhance.ModeTranslation, translateTo, &translateFlags)
}
