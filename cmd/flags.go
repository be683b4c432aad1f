package cmd

import (
	"github.com/spf13/cobra"
)

// AddProviderFlag adds the --provider/-p flag with completion
func AddProviderFlag(cmd *cobra.Command, dest *string) {
	cmd.Flags().StringVarP(dest, "provider", "p", "", "Override provider, optionally with model (e.g., openai:gpt-5-mini)")
	if err := cmd.RegisterFlagCompletionFunc("provider", ProviderFlagCompletion); err != nil {
		panic("failed to register provider completion: " + err.Error())
	}
}

// AddDebugFlag adds the --debug/-d flag
func AddDebugFlag(cmd *cobra.Command, dest *bool) {
	cmd.Flags().BoolVarP(dest, "debug", "d", false, "Log every AI prompt and response to the debug dir")
}

// AddDryRunFlag adds the --dry-run flag
func AddDryRunFlag(cmd *cobra.Command, dest *bool) {
	cmd.Flags().BoolVar(dest, "dry-run", false, "Show what would change without writing to Notion")
}

// AddMaxDepthFlag adds the --max-depth flag
func AddMaxDepthFlag(cmd *cobra.Command, dest *int, defaultValue int) {
	cmd.Flags().IntVar(dest, "max-depth", defaultValue, "Max block tree depth to fetch (0 = config default)")
}
