package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Provider  string          `mapstructure:"provider"`
	Notion    NotionConfig    `mapstructure:"notion"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	XAI       XAIConfig       `mapstructure:"xai"`
	Enhance   EnhanceConfig   `mapstructure:"enhance"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Prompts   PromptsConfig   `mapstructure:"prompts"`
	History   HistoryConfig   `mapstructure:"history"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Debug     DebugConfig     `mapstructure:"debug"`
	Theme     ThemeConfig     `mapstructure:"theme"`
}

// ThemeConfig customizes UI colors. Name selects a preset; the color
// fields override individual entries on top of it.
type ThemeConfig struct {
	Name      string `mapstructure:"name"`      // preset (gruvbox, dracula, nord, classic)
	Primary   string `mapstructure:"primary"`   // main accent (commands, highlights)
	Secondary string `mapstructure:"secondary"` // secondary accent (headers, borders)
	Success   string `mapstructure:"success"`   // success states
	Error     string `mapstructure:"error"`     // error states
	Warning   string `mapstructure:"warning"`   // warnings
	Muted     string `mapstructure:"muted"`     // dimmed text
	Text      string `mapstructure:"text"`      // primary text
	Spinner   string `mapstructure:"spinner"`   // loading spinner
}

// NotionConfig holds workspace API access settings
type NotionConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Version string `mapstructure:"version"`  // Notion-Version header, pinned by default
	BaseURL string `mapstructure:"base_url"` // Override API endpoint (proxies, tests)
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// XAIConfig configures the xAI (Grok) provider
type XAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type EnhanceConfig struct {
	Provider      string  `mapstructure:"provider"`       // Override provider for enhance/translate
	Model         string  `mapstructure:"model"`          // Override model for enhance/translate
	BlockLimit    int     `mapstructure:"block_limit"`    // Max blocks per run (0 = no limit)
	PacingMs      int     `mapstructure:"pacing_ms"`      // Delay between block updates (default 200)
	MaxTokens     int     `mapstructure:"max_tokens"`     // Per-block response budget (0 = provider default)
	Temperature   float32 `mapstructure:"temperature"`    // Sampling temperature (0 = provider default)
	ContextWindow int     `mapstructure:"context_window"` // Recently processed blocks kept for prompts (default 5)
	MinLength     int     `mapstructure:"min_length"`     // Blocks with stripped text at or under this are skipped (default 5)
	Instructions  string  `mapstructure:"instructions"`   // Extra guidance appended to prompts
}

type ScrapeConfig struct {
	OutputDir string `mapstructure:"output_dir"` // Override snapshot directory
	MaxDepth  int    `mapstructure:"max_depth"`  // Block tree recursion limit (default 8)
	CleanURLs bool   `mapstructure:"clean_urls"` // Replace long URLs with placeholders in markdown
}

type PromptsConfig struct {
	File string `mapstructure:"file"` // Override path to the prompt sections file
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"` // Record runs in the local database
	Path    string `mapstructure:"path"`    // Override database file location
}

// TelegramConfig configures completion notifications.
// Both fields empty disables notifications.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// DebugConfig configures AI interaction logging
type DebugConfig struct {
	Enabled bool   `mapstructure:"enabled"` // Log every prompt/response pair
	Dir     string `mapstructure:"dir"`     // Override default directory
}

func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath(".")

	// Set defaults
	viper.SetDefault("provider", "anthropic")
	viper.SetDefault("notion.version", "2022-06-28")
	viper.SetDefault("anthropic.model", "claude-sonnet-4-6")
	viper.SetDefault("openai.model", "gpt-5.2")
	viper.SetDefault("gemini.model", "gemini-3-flash-preview")
	viper.SetDefault("xai.model", "grok-4-1-fast")
	// enhance.provider and enhance.model default to empty, inheriting from main provider
	viper.SetDefault("enhance.pacing_ms", 200)
	viper.SetDefault("enhance.context_window", 5)
	viper.SetDefault("enhance.min_length", 5)
	viper.SetDefault("scrape.max_depth", 8)
	viper.SetDefault("history.enabled", true)

	// Read config file (optional - won't error if missing)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Resolve API keys from config values or environment
	resolveNotionCredentials(&cfg.Notion)
	resolveAnthropicCredentials(&cfg.Anthropic)
	resolveOpenAICredentials(&cfg.OpenAI)
	resolveGeminiCredentials(&cfg.Gemini)
	resolveXAICredentials(&cfg.XAI)
	resolveTelegramCredentials(&cfg.Telegram)

	return &cfg, nil
}

// ApplyOverrides applies provider and model overrides to the config.
// If provider is non-empty, it overrides the global provider.
// If model is non-empty, it overrides the model for the active provider.
func (c *Config) ApplyOverrides(provider, model string) {
	if provider != "" {
		c.Provider = provider
	}
	if model != "" {
		switch c.Provider {
		case "anthropic":
			c.Anthropic.Model = model
		case "openai":
			c.OpenAI.Model = model
		case "gemini":
			c.Gemini.Model = model
		case "xai":
			c.XAI.Model = model
		}
	}
}

// resolveNotionCredentials resolves the workspace integration token
func resolveNotionCredentials(cfg *NotionConfig) {
	cfg.APIKey = expandEnv(cfg.APIKey)
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("NOTION_API_KEY")
	}
}

// resolveAnthropicCredentials resolves Anthropic API credentials
func resolveAnthropicCredentials(cfg *AnthropicConfig) {
	cfg.APIKey = expandEnv(cfg.APIKey)
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

// resolveOpenAICredentials resolves OpenAI API credentials
func resolveOpenAICredentials(cfg *OpenAIConfig) {
	cfg.APIKey = expandEnv(cfg.APIKey)
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// resolveGeminiCredentials resolves Gemini API credentials
func resolveGeminiCredentials(cfg *GeminiConfig) {
	cfg.APIKey = expandEnv(cfg.APIKey)
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// resolveXAICredentials resolves xAI API credentials
func resolveXAICredentials(cfg *XAIConfig) {
	cfg.APIKey = expandEnv(cfg.APIKey)
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("XAI_API_KEY")
	}
}

// resolveTelegramCredentials resolves notification credentials
func resolveTelegramCredentials(cfg *TelegramConfig) {
	cfg.BotToken = expandEnv(cfg.BotToken)
	if cfg.BotToken == "" {
		cfg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	cfg.ChatID = expandEnv(cfg.ChatID)
	if cfg.ChatID == "" {
		cfg.ChatID = os.Getenv("TELEGRAM_CHAT_ID")
	}
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// GetConfigDir returns the XDG config directory for notion-llm.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "notion-llm"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "notion-llm"), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// GetDataDir returns the XDG data directory for notion-llm.
// Page snapshots, run history and debug logs live here.
// Uses $XDG_DATA_HOME if set, otherwise ~/.local/share
func GetDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "notion-llm")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "notion-llm-data") // fallback
	}
	return filepath.Join(homeDir, ".local", "share", "notion-llm")
}

// Exists returns true if a config file exists
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// NeedsSetup returns true if config file doesn't exist
func NeedsSetup() bool {
	return !Exists()
}

// Save writes the config to disk
func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`provider: %s

notion:
  version: %s
  # api_key: set NOTION_API_KEY env var or add the integration token here

anthropic:
  model: %s

openai:
  model: %s

gemini:
  model: %s

xai:
  model: %s

enhance:
  block_limit: %d
  pacing_ms: %d
  context_window: %d
  min_length: %d
  # Extra guidance appended to every enhancement prompt
  # instructions: |
  #   Keep the register formal.

scrape:
  max_depth: %d

history:
  enabled: %t

# telegram:
#   bot_token: ${TELEGRAM_BOT_TOKEN}
#   chat_id: "123456789"
`, cfg.Provider, cfg.Notion.Version, cfg.Anthropic.Model, cfg.OpenAI.Model,
		cfg.Gemini.Model, cfg.XAI.Model, cfg.Enhance.BlockLimit, cfg.Enhance.PacingMs,
		cfg.Enhance.ContextWindow, cfg.Enhance.MinLength,
		cfg.Scrape.MaxDepth, cfg.History.Enabled)

	return os.WriteFile(path, []byte(content), 0600)
}
