package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Theme defines the color palette for the UI.
type Theme struct {
	Primary   lipgloss.Color // main accent (page titles, commands)
	Secondary lipgloss.Color // secondary accent (headers, borders)

	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Muted   lipgloss.Color // dimmed/secondary text
	Text    lipgloss.Color // primary text

	Spinner lipgloss.Color
	Border  lipgloss.Color

	// Diff backgrounds
	DiffAddBg    lipgloss.Color
	DiffRemoveBg lipgloss.Color
}

// DefaultTheme returns the default color theme (gruvbox).
func DefaultTheme() *Theme {
	return &Theme{
		Primary:      lipgloss.Color("#b8bb26"), // gruvbox green
		Secondary:    lipgloss.Color("#83a598"), // gruvbox aqua
		Success:      lipgloss.Color("#b8bb26"),
		Error:        lipgloss.Color("#fb4934"),
		Warning:      lipgloss.Color("#fabd2f"),
		Muted:        lipgloss.Color("#928374"),
		Text:         lipgloss.Color("#ebdbb2"),
		Spinner:      lipgloss.Color("#d3869b"),
		Border:       lipgloss.Color("#83a598"), // matches secondary
		DiffAddBg:    lipgloss.Color("#1d2021"),
		DiffRemoveBg: lipgloss.Color("#1d2021"),
	}
}

// ThemeConfig mirrors config.ThemeConfig so themes can be built without
// importing the config package. Name selects a preset; colors override
// individual entries on top of it.
type ThemeConfig struct {
	Name      string
	Primary   string
	Secondary string
	Success   string
	Error     string
	Warning   string
	Muted     string
	Text      string
	Spinner   string
}

var presetThemes = map[string]ThemeConfig{
	// gruvbox is the default; listed so `theme.name: gruvbox` works too.
	"gruvbox": {
		Primary: "#b8bb26", Secondary: "#83a598", Success: "#b8bb26",
		Error: "#fb4934", Warning: "#fabd2f", Muted: "#928374",
		Text: "#ebdbb2", Spinner: "#d3869b",
	},
	"dracula": {
		Primary: "#bd93f9", Secondary: "#8be9fd", Success: "#50fa7b",
		Error: "#ff5555", Warning: "#f1fa8c", Muted: "#6272a4",
		Text: "#f8f8f2", Spinner: "#ff79c6",
	},
	"nord": {
		Primary: "#88c0d0", Secondary: "#81a1c1", Success: "#a3be8c",
		Error: "#bf616a", Warning: "#ebcb8b", Muted: "#4c566a",
		Text: "#eceff4", Spinner: "#b48ead",
	},
	"classic": {
		Primary: "10", Secondary: "4", Success: "10",
		Error: "9", Warning: "11", Muted: "245",
		Text: "15", Spinner: "205",
	},
}

// PresetThemeNames lists the available preset names.
func PresetThemeNames() []string {
	return []string{"gruvbox", "dracula", "nord", "classic"}
}

// ThemeFromConfig builds a theme from a preset name plus per-color
// overrides.
func ThemeFromConfig(cfg ThemeConfig) *Theme {
	theme := DefaultTheme()
	if preset, ok := presetThemes[cfg.Name]; ok {
		applyColors(theme, preset)
	}
	applyColors(theme, cfg)
	return theme
}

func applyColors(theme *Theme, cfg ThemeConfig) {
	if cfg.Primary != "" {
		theme.Primary = lipgloss.Color(cfg.Primary)
	}
	if cfg.Secondary != "" {
		theme.Secondary = lipgloss.Color(cfg.Secondary)
		theme.Border = lipgloss.Color(cfg.Secondary) // border follows secondary
	}
	if cfg.Success != "" {
		theme.Success = lipgloss.Color(cfg.Success)
	}
	if cfg.Error != "" {
		theme.Error = lipgloss.Color(cfg.Error)
	}
	if cfg.Warning != "" {
		theme.Warning = lipgloss.Color(cfg.Warning)
	}
	if cfg.Muted != "" {
		theme.Muted = lipgloss.Color(cfg.Muted)
	}
	if cfg.Text != "" {
		theme.Text = lipgloss.Color(cfg.Text)
	}
	if cfg.Spinner != "" {
		theme.Spinner = lipgloss.Color(cfg.Spinner)
	}
}

// currentTheme is the active theme instance.
var currentTheme = DefaultTheme()

// GetTheme returns the current active theme.
func GetTheme() *Theme {
	return currentTheme
}

// SetTheme sets the current active theme.
func SetTheme(t *Theme) {
	currentTheme = t
}

// InitTheme initializes the theme from config.
func InitTheme(cfg ThemeConfig) {
	SetTheme(ThemeFromConfig(cfg))
}

// Status indicators
const (
	EnabledIcon  = "●"
	DisabledIcon = "○"
	SuccessIcon  = "✓"
	FailIcon     = "✗"
)

// Styles returns styled text helpers bound to a renderer.
type Styles struct {
	renderer *lipgloss.Renderer
	theme    *Theme

	// Text styles
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
	Warning     lipgloss.Style
	Muted       lipgloss.Style
	Bold        lipgloss.Style
	Highlighted lipgloss.Style

	// Table styles
	TableHeader lipgloss.Style
	TableBorder lipgloss.Style

	// UI element styles
	Spinner lipgloss.Style
	Command lipgloss.Style

	// Diff styles
	DiffAdd     lipgloss.Style
	DiffRemove  lipgloss.Style
	DiffContext lipgloss.Style
	DiffHeader  lipgloss.Style
}

// NewStyles creates a new Styles instance for the given output.
func NewStyles(output *os.File) *Styles {
	return NewStylesWithTheme(output, currentTheme)
}

// NewStylesWithTheme creates styles with a specific theme.
func NewStylesWithTheme(output *os.File, theme *Theme) *Styles {
	r := lipgloss.NewRenderer(output)

	return &Styles{
		renderer: r,
		theme:    theme,

		Title: r.NewStyle().
			Bold(true).
			Foreground(theme.Text),

		Subtitle: r.NewStyle().
			Foreground(theme.Muted),

		Success: r.NewStyle().
			Foreground(theme.Success),

		Error: r.NewStyle().
			Foreground(theme.Error),

		Warning: r.NewStyle().
			Foreground(theme.Warning),

		Muted: r.NewStyle().
			Foreground(theme.Muted),

		Bold: r.NewStyle().
			Bold(true),

		Highlighted: r.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		TableHeader: r.NewStyle().
			Bold(true).
			Foreground(theme.Text),

		TableBorder: r.NewStyle().
			Foreground(theme.Border),

		Spinner: r.NewStyle().
			Foreground(theme.Spinner),

		Command: r.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		DiffAdd: r.NewStyle().
			Foreground(theme.Success).
			Background(theme.DiffAddBg),

		DiffRemove: r.NewStyle().
			Foreground(theme.Error).
			Background(theme.DiffRemoveBg),

		DiffContext: r.NewStyle().
			Foreground(theme.Muted),

		DiffHeader: r.NewStyle().
			Foreground(theme.Secondary).
			Bold(true),
	}
}

// DefaultStyles returns styles for stderr.
func DefaultStyles() *Styles {
	return NewStyles(os.Stderr)
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// FormatEnabled returns a styled enabled/disabled indicator.
func (s *Styles) FormatEnabled(enabled bool) string {
	if enabled {
		return s.Success.Render(EnabledIcon + " enabled")
	}
	return s.Muted.Render(DisabledIcon + " disabled")
}

// FormatResult returns a styled success/fail result.
func (s *Styles) FormatResult(success bool, msg string) string {
	if success {
		return s.Success.Render(SuccessIcon+" ") + msg
	}
	return s.Error.Render(FailIcon+" ") + msg
}

// Truncate shortens a string to maxLen runes with an ellipsis.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// Wrap word-wraps text to width columns, keeping existing line breaks.
// Non-positive widths return the text unchanged.
func Wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}
