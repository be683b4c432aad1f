package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/samsaffron/notion-llm/internal/config"
	"github.com/samsaffron/notion-llm/internal/llm"
	"github.com/samsaffron/notion-llm/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage notion-llm configuration",
	Long: `View or edit your notion-llm configuration.

Examples:
  notion-llm config                     # show current config
  notion-llm config edit                # edit in $EDITOR
  notion-llm config set provider openai
  notion-llm config completion zsh      # generate shell completions`,
	RunE: configShow, // Default to show
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file in $EDITOR",
	RunE:  configEdit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file path",
	RunE:  configPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration file",
	RunE:  configInit,
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset configuration to defaults",
	Long:  `Reset the configuration file to default values. This will overwrite any existing configuration.`,
	RunE:  configReset,
}

var configCompletionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script and print setup instructions.

Examples:
  notion-llm config completion bash
  notion-llm config completion zsh --install`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:      configCompletion,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value while preserving comments.

Examples:
  notion-llm config set provider gemini
  notion-llm config set anthropic.model claude-sonnet-4-5
  notion-llm config set enhance.block_limit 50
  notion-llm config set theme.name nord`,
	Args:              cobra.ExactArgs(2),
	RunE:              configSet,
	ValidArgsFunction: configSetCompletion,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value.

Examples:
  notion-llm config get provider
  notion-llm config get anthropic.model`,
	Args:              cobra.ExactArgs(1),
	RunE:              configGet,
	ValidArgsFunction: configGetCompletion,
}

var installCompletions bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configResetCmd)
	configCmd.AddCommand(configCompletionCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCompletionCmd.Flags().BoolVar(&installCompletions, "install", false, "Install completions to standard location")
}

// configView mirrors Config for display. API keys are replaced with their
// status so secrets never reach the terminal.
type configView struct {
	Provider string `yaml:"provider"`
	Notion   struct {
		APIKey  string `yaml:"api_key"`
		Version string `yaml:"version"`
		BaseURL string `yaml:"base_url,omitempty"`
	} `yaml:"notion"`
	Anthropic providerView `yaml:"anthropic"`
	OpenAI    providerView `yaml:"openai"`
	Gemini    providerView `yaml:"gemini"`
	XAI       providerView `yaml:"xai"`
	Enhance   struct {
		Provider      string  `yaml:"provider,omitempty"`
		Model         string  `yaml:"model,omitempty"`
		BlockLimit    int     `yaml:"block_limit,omitempty"`
		PacingMs      int     `yaml:"pacing_ms"`
		MaxTokens     int     `yaml:"max_tokens,omitempty"`
		Temperature   float32 `yaml:"temperature,omitempty"`
		ContextWindow int     `yaml:"context_window"`
		MinLength     int     `yaml:"min_length"`
		Instructions  string  `yaml:"instructions,omitempty"`
	} `yaml:"enhance"`
	Scrape struct {
		OutputDir string `yaml:"output_dir,omitempty"`
		MaxDepth  int    `yaml:"max_depth"`
		CleanURLs bool   `yaml:"clean_urls"`
	} `yaml:"scrape"`
	Prompts struct {
		File string `yaml:"file,omitempty"`
	} `yaml:"prompts,omitempty"`
	History struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path,omitempty"`
	} `yaml:"history"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id,omitempty"`
	} `yaml:"telegram"`
	Debug struct {
		Enabled bool   `yaml:"enabled"`
		Dir     string `yaml:"dir,omitempty"`
	} `yaml:"debug"`
	Theme struct {
		Name      string `yaml:"name,omitempty"`
		Primary   string `yaml:"primary,omitempty"`
		Secondary string `yaml:"secondary,omitempty"`
		Success   string `yaml:"success,omitempty"`
		Error     string `yaml:"error,omitempty"`
		Warning   string `yaml:"warning,omitempty"`
		Muted     string `yaml:"muted,omitempty"`
		Text      string `yaml:"text,omitempty"`
		Spinner   string `yaml:"spinner,omitempty"`
	} `yaml:"theme,omitempty"`
}

type providerView struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model,omitempty"`
}

func newConfigView(cfg *config.Config) *configView {
	v := &configView{Provider: cfg.Provider}

	v.Notion.APIKey = keyStatus(cfg.Notion.APIKey, "NOTION_API_KEY")
	v.Notion.Version = cfg.Notion.Version
	v.Notion.BaseURL = cfg.Notion.BaseURL

	v.Anthropic = providerView{keyStatus(cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY"), cfg.Anthropic.Model}
	v.OpenAI = providerView{keyStatus(cfg.OpenAI.APIKey, "OPENAI_API_KEY"), cfg.OpenAI.Model}
	v.Gemini = providerView{keyStatus(cfg.Gemini.APIKey, "GEMINI_API_KEY"), cfg.Gemini.Model}
	v.XAI = providerView{keyStatus(cfg.XAI.APIKey, "XAI_API_KEY"), cfg.XAI.Model}

	v.Enhance.Provider = cfg.Enhance.Provider
	v.Enhance.Model = cfg.Enhance.Model
	v.Enhance.BlockLimit = cfg.Enhance.BlockLimit
	v.Enhance.PacingMs = cfg.Enhance.PacingMs
	v.Enhance.MaxTokens = cfg.Enhance.MaxTokens
	v.Enhance.Temperature = cfg.Enhance.Temperature
	v.Enhance.ContextWindow = cfg.Enhance.ContextWindow
	v.Enhance.MinLength = cfg.Enhance.MinLength
	v.Enhance.Instructions = cfg.Enhance.Instructions

	v.Scrape.OutputDir = cfg.Scrape.OutputDir
	v.Scrape.MaxDepth = cfg.Scrape.MaxDepth
	v.Scrape.CleanURLs = cfg.Scrape.CleanURLs

	v.Prompts.File = cfg.Prompts.File

	v.History.Enabled = cfg.History.Enabled
	v.History.Path = cfg.History.Path

	v.Telegram.BotToken = keyStatus(cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	v.Telegram.ChatID = cfg.Telegram.ChatID

	v.Debug.Enabled = cfg.Debug.Enabled
	v.Debug.Dir = cfg.Debug.Dir

	v.Theme.Name = cfg.Theme.Name
	v.Theme.Primary = cfg.Theme.Primary
	v.Theme.Secondary = cfg.Theme.Secondary
	v.Theme.Success = cfg.Theme.Success
	v.Theme.Error = cfg.Theme.Error
	v.Theme.Warning = cfg.Theme.Warning
	v.Theme.Muted = cfg.Theme.Muted
	v.Theme.Text = cfg.Theme.Text
	v.Theme.Spinner = cfg.Theme.Spinner

	return v
}

func keyStatus(apiKey, envVar string) string {
	if apiKey != "" {
		return fmt.Sprintf("[set via %s]", envVar)
	}
	return fmt.Sprintf("[NOT SET - export %s]", envVar)
}

func configShow(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		fmt.Printf("# No config file (using defaults)\n")
		fmt.Printf("# Create one with: notion-llm config init\n\n")
	} else {
		fmt.Printf("# %s\n\n", configPath)
	}

	data, err := yaml.Marshal(newConfigView(cfg))
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func configEdit(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Create default config if it doesn't exist
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeDefaultConfig(); err != nil {
			return err
		}
	}

	// Get editor from environment
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	return editorCmd.Run()
}

func configPath(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func configInit(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if config.Exists() {
		return fmt.Errorf("config already exists at %s (use 'notion-llm config reset' to overwrite)", path)
	}
	if err := writeDefaultConfig(); err != nil {
		return err
	}
	fmt.Printf("Created %s\n", path)
	return nil
}

func configReset(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove config file: %w", err)
	}
	if err := writeDefaultConfig(); err != nil {
		return err
	}
	fmt.Printf("Config reset to defaults: %s\n", path)
	return nil
}

// writeDefaultConfig saves the commented starter file. Loading without a
// config file yields pure defaults, and Save never writes API keys.
func writeDefaultConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func configCompletion(cmd *cobra.Command, args []string) error {
	shell := args[0]

	if installCompletions {
		return installShellCompletion(shell)
	}

	// Just output to stdout
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletion(os.Stdout)
	case "zsh":
		return rootCmd.GenZshCompletion(os.Stdout)
	case "fish":
		return rootCmd.GenFishCompletion(os.Stdout, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
	}
	return nil
}

func installShellCompletion(shell string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	var path string
	var content []byte
	var buf = new(bytes.Buffer)

	switch shell {
	case "bash":
		path = filepath.Join(home, ".bash_completion.d", "notion-llm")
		if err := rootCmd.GenBashCompletion(buf); err != nil {
			return err
		}
		content = buf.Bytes()

	case "zsh":
		// Use ~/.local/share/zsh/site-functions which is the XDG standard
		path = filepath.Join(home, ".local", "share", "zsh", "site-functions", "_notion-llm")
		if err := rootCmd.GenZshCompletion(buf); err != nil {
			return err
		}
		content = buf.Bytes()

	case "fish":
		path = filepath.Join(home, ".config", "fish", "completions", "notion-llm.fish")
		if err := rootCmd.GenFishCompletion(buf, true); err != nil {
			return err
		}
		content = buf.Bytes()

	case "powershell":
		path = filepath.Join(home, ".config", "powershell", "completions", "notion-llm.ps1")
		if err := rootCmd.GenPowerShellCompletionWithDesc(buf); err != nil {
			return err
		}
		content = buf.Bytes()

	default:
		return fmt.Errorf("unknown shell: %s", shell)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write completion file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Installed completions to %s\n", path)

	switch shell {
	case "bash":
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Add to ~/.bashrc:")
		fmt.Fprintf(os.Stderr, "  source %s\n", path)
	case "zsh":
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Ensure ~/.zshrc has (before compinit):")
		fmt.Fprintf(os.Stderr, "  fpath+=(%s)\n", dir)
		fmt.Fprintln(os.Stderr, "  autoload -U compinit && compinit")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Then restart your shell")
	case "fish":
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Completions will be loaded automatically.")
		fmt.Fprintln(os.Stderr, "Restart your shell or run: exec fish")
	case "powershell":
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Add to your PowerShell profile:")
		fmt.Fprintf(os.Stderr, "  . %s\n", path)
	}

	return nil
}

// configSet sets a configuration value while preserving comments
func configSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Read existing file or create empty document
	var root yaml.Node
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			root = yaml.Node{
				Kind: yaml.DocumentNode,
				Content: []*yaml.Node{{
					Kind: yaml.MappingNode,
				}},
			}
		} else {
			return fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}

	keyParts := strings.Split(key, ".")
	if err := setYAMLValue(&root, keyParts, value); err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(configPath, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("%s = %s\n", key, value)
	return nil
}

// setYAMLValue navigates/creates the path in a yaml.Node tree and sets the value
func setYAMLValue(root *yaml.Node, path []string, value string) error {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid document structure")
	}

	current := root.Content[0]
	if current.Kind != yaml.MappingNode {
		return fmt.Errorf("root is not a mapping")
	}

	for i, part := range path {
		isLast := i == len(path)-1

		found := false
		for j := 0; j < len(current.Content); j += 2 {
			keyNode := current.Content[j]
			if keyNode.Value == part {
				if isLast {
					valueNode := current.Content[j+1]
					valueNode.Value = value
					valueNode.Tag = ""
					valueNode.Kind = yaml.ScalarNode
				} else {
					current = current.Content[j+1]
					if current.Kind != yaml.MappingNode {
						// Convert to mapping if needed
						current.Kind = yaml.MappingNode
						current.Content = nil
						current.Value = ""
						current.Tag = ""
					}
				}
				found = true
				break
			}
		}

		if !found {
			keyNode := &yaml.Node{
				Kind:  yaml.ScalarNode,
				Value: part,
			}

			if isLast {
				valueNode := &yaml.Node{
					Kind:  yaml.ScalarNode,
					Value: value,
				}
				current.Content = append(current.Content, keyNode, valueNode)
			} else {
				newMapping := &yaml.Node{
					Kind: yaml.MappingNode,
				}
				current.Content = append(current.Content, keyNode, newMapping)
				current = newMapping
			}
		}
	}

	return nil
}

// configGet gets a configuration value
func configGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config file does not exist")
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	value, err := getYAMLValue(&root, strings.Split(key, "."))
	if err != nil {
		return err
	}

	fmt.Println(value)
	return nil
}

// getYAMLValue navigates the yaml.Node tree and returns the value at path
func getYAMLValue(root *yaml.Node, path []string) (string, error) {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return "", fmt.Errorf("invalid document structure")
	}

	current := root.Content[0]
	for _, part := range path {
		if current.Kind != yaml.MappingNode {
			return "", fmt.Errorf("path not found: expected mapping")
		}

		found := false
		for j := 0; j < len(current.Content); j += 2 {
			if current.Content[j].Value == part {
				current = current.Content[j+1]
				found = true
				break
			}
		}
		if !found {
			return "", fmt.Errorf("key not found: %s", part)
		}
	}

	if current.Kind == yaml.ScalarNode {
		return current.Value, nil
	}
	return "", fmt.Errorf("value is not a scalar")
}

// configSetCompletion provides completions for config set
func configSetCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return configKeyCompletions(toComplete), cobra.ShellCompDirectiveNoFileComp
	}
	if len(args) == 1 {
		return configValueCompletions(args[0], toComplete), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// configGetCompletion provides completions for config get
func configGetCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return configKeyCompletions(toComplete), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func configKeyCompletions(toComplete string) []string {
	keys := []string{
		"provider",
		"notion.version",
		"notion.base_url",
		"enhance.provider",
		"enhance.model",
		"enhance.block_limit",
		"enhance.pacing_ms",
		"enhance.max_tokens",
		"enhance.temperature",
		"enhance.context_window",
		"enhance.min_length",
		"enhance.instructions",
		"scrape.output_dir",
		"scrape.max_depth",
		"scrape.clean_urls",
		"prompts.file",
		"history.enabled",
		"history.path",
		"telegram.chat_id",
		"debug.enabled",
		"debug.dir",
		"theme.name",
		"theme.primary",
		"theme.secondary",
		"theme.success",
		"theme.error",
		"theme.warning",
		"theme.muted",
		"theme.text",
		"theme.spinner",
	}
	for _, name := range llm.ProviderNames() {
		keys = append(keys, name+".model")
	}
	return filterPrefix(keys, toComplete)
}

func configValueCompletions(key, toComplete string) []string {
	switch key {
	case "provider", "enhance.provider":
		return filterPrefix(llm.ProviderNames(), toComplete)

	case "scrape.clean_urls", "history.enabled", "debug.enabled":
		return filterPrefix([]string{"true", "false"}, toComplete)

	case "theme.name":
		return filterPrefix(ui.PresetThemeNames(), toComplete)
	}

	// Per-provider model keys complete from the known model lists.
	if name, ok := strings.CutSuffix(key, ".model"); ok {
		if name == "enhance" {
			name = ""
			if cfg, err := config.Load(); err == nil {
				name = cfg.Provider
				if cfg.Enhance.Provider != "" {
					name = cfg.Enhance.Provider
				}
			}
		}
		return filterPrefix(llm.ProviderModels[name], toComplete)
	}

	return nil
}

// filterPrefix filters a slice to items starting with prefix
func filterPrefix(items []string, prefix string) []string {
	var result []string
	for _, item := range items {
		if strings.HasPrefix(item, prefix) {
			result = append(result, item)
		}
	}
	return result
}
