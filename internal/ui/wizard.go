package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/samsaffron/notion-llm/internal/config"
)

// RunSetupWizard runs the first-time setup wizard and returns the config
func RunSetupWizard() (*config.Config, error) {
	// Use /dev/tty for output to bypass redirections
	tty, ttyErr := getTTY()
	if ttyErr == nil {
		defer tty.Close()
		fmt.Fprintf(tty, "Welcome to notion-llm! Let's get you set up.\n\n")
	} else {
		fmt.Fprintf(os.Stderr, "Welcome to notion-llm! Let's get you set up.\n\n")
	}

	// The workspace token is required no matter which provider answers.
	if os.Getenv("NOTION_API_KEY") == "" {
		return nil, fmt.Errorf("NOTION_API_KEY environment variable is not set\n\nCreate an integration at notion.so/my-integrations, then:\n  export NOTION_API_KEY=your-integration-token")
	}

	var provider string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which AI provider do you want to use?").
				Options(
					huh.NewOption("Anthropic (Claude)", "anthropic"),
					huh.NewOption("OpenAI", "openai"),
					huh.NewOption("Google (Gemini)", "gemini"),
					huh.NewOption("xAI (Grok)", "xai"),
				).
				Value(&provider),
		),
	)

	if ttyErr == nil {
		tty2, _ := getTTY() // need fresh handle after form might close it
		defer tty2.Close()
		form = form.WithInput(tty2).WithOutput(tty2)
	}

	if err := form.Run(); err != nil {
		return nil, err
	}

	// Check for env var
	var envVar string
	switch provider {
	case "anthropic":
		envVar = "ANTHROPIC_API_KEY"
	case "openai":
		envVar = "OPENAI_API_KEY"
	case "gemini":
		envVar = "GEMINI_API_KEY"
	case "xai":
		envVar = "XAI_API_KEY"
	}

	if os.Getenv(envVar) == "" {
		return nil, fmt.Errorf("%s environment variable is not set\n\nPlease set it:\n  export %s=your-api-key", envVar, envVar)
	}

	// Start from the defaults so the starter file carries real values.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	cfg.Provider = provider

	if err := config.Save(cfg); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	path, _ := config.GetConfigPath()
	if tty, err := getTTY(); err == nil {
		fmt.Fprintf(tty, "Config saved to %s\n\n", path)
		tty.Close()
	} else {
		fmt.Fprintf(os.Stderr, "Config saved to %s\n\n", path)
	}

	// Reload to pick up the env vars
	return config.Load()
}
