package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/samsaffron/notion-llm/internal/prompt"
	"github.com/samsaffron/notion-llm/internal/ui"
	"github.com/spf13/cobra"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List and inspect prompt sections",
	Long: `List the prompt sections driving each command: the built-ins plus any
overrides from the configured prompts file.

Sections in the prompts file use a markdown-style header and a
triple-quoted body:

  # Reading:
  """
  You are an expert in making content accessible...
  """

Examples:
  notion-llm prompts
  notion-llm prompts show Reading
  notion-llm prompts show "Trainer Questions"`,
	RunE: runPromptsList,
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available prompt sections",
	RunE:  runPromptsList,
}

var promptsShowCmd = &cobra.Command{
	Use:               "show <name>",
	Short:             "Print a prompt section's template",
	Args:              cobra.ExactArgs(1),
	RunE:              runPromptsShow,
	ValidArgsFunction: PromptSectionCompletion,
}

func init() {
	rootCmd.AddCommand(promptsCmd)
	promptsCmd.AddCommand(promptsListCmd)
	promptsCmd.AddCommand(promptsShowCmd)
}

func builtinSections() []string {
	return []string{
		prompt.SectionReading,
		prompt.SectionTranslation,
		prompt.SectionCulture,
		prompt.SectionQuestions,
	}
}

// builtinTemplate returns the built-in template for a section with its
// placeholders intact.
func builtinTemplate(name string) string {
	switch name {
	case prompt.SectionReading:
		return prompt.Reading("", "{content}")
	case prompt.SectionTranslation:
		return prompt.Translation("", "{target_language}", "{content}")
	case prompt.SectionCulture:
		return prompt.Culture("", "{content}")
	case prompt.SectionQuestions:
		return prompt.Questions("", "{content}")
	}
	return ""
}

func runPromptsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initThemeFromConfig(cfg)
	styles := ui.DefaultStyles()

	overridden := make(map[string]bool)
	var extras []string
	if cfg.Prompts.File != "" {
		names, err := prompt.Sections(cfg.Prompts.File)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read prompts file: %w", err)
		}
		for _, name := range names {
			matched := ""
			for _, builtin := range builtinSections() {
				if strings.EqualFold(builtin, name) {
					matched = builtin
					break
				}
			}
			if matched != "" {
				overridden[matched] = true
			} else {
				extras = append(extras, name)
			}
		}
	}

	fmt.Println(styles.Title.Render("Prompt sections"))
	for _, name := range builtinSections() {
		source := "built-in"
		if overridden[name] {
			source = "overridden in " + cfg.Prompts.File
		}
		fmt.Printf("  %-20s %s\n", name, styles.Muted.Render(source))
	}
	for _, name := range extras {
		fmt.Printf("  %-20s %s\n", name, styles.Muted.Render(cfg.Prompts.File))
	}
	if cfg.Prompts.File == "" {
		fmt.Println()
		fmt.Println(styles.Muted.Render("Set prompts.file in the config to override the built-ins."))
	}
	return nil
}

func runPromptsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initThemeFromConfig(cfg)
	styles := ui.DefaultStyles()
	name := args[0]

	if cfg.Prompts.File != "" {
		if template, err := prompt.LoadSection(cfg.Prompts.File, name); err == nil {
			fmt.Println(styles.Title.Render(name) + " " + styles.Muted.Render("("+cfg.Prompts.File+")"))
			fmt.Println(ui.Wrap(template, templateWidth()))
			return nil
		}
	}

	for _, builtin := range builtinSections() {
		if strings.EqualFold(builtin, name) {
			fmt.Println(styles.Title.Render(builtin) + " " + styles.Muted.Render("(built-in)"))
			fmt.Println(ui.Wrap(builtinTemplate(builtin), templateWidth()))
			return nil
		}
	}

	available := builtinSections()
	if cfg.Prompts.File != "" {
		if names, err := prompt.Sections(cfg.Prompts.File); err == nil {
			available = append(available, names...)
		}
	}
	if suggestion := prompt.Suggest(name, available); suggestion != "" {
		return fmt.Errorf("unknown prompt section %q (did you mean %q?)", name, suggestion)
	}
	return fmt.Errorf("unknown prompt section %q", name)
}

// templateWidth caps template output at the terminal width so long prompt
// lines stay readable.
func templateWidth() int {
	width := getTerminalWidth()
	if width > 100 {
		width = 100
	}
	return width
}
