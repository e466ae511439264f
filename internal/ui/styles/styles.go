// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#CCCCCC"}
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#8C8C8C", Dark: "#696969"}

	// Accent is used for focus, the cursor line and selected rows.
	AccentColor = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#54A0FF"}

	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}

	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	StatusInfoColor    = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#54A0FF"}

	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}
)

var (
	SelectionIndicatorStyle lipgloss.Style
	SelectedRowStyle        lipgloss.Style
	DisabledRowStyle        lipgloss.Style
	MutedStyle              lipgloss.Style
	TitleStyle              lipgloss.Style

	StatusBarStyle   lipgloss.Style
	StatusSavedStyle lipgloss.Style
	StatusDirtyStyle lipgloss.Style
	DiffAddedStyle   lipgloss.Style
	DiffRemovedStyle lipgloss.Style

	SeverityErrorStyle   lipgloss.Style
	SeverityWarningStyle lipgloss.Style
	SeverityInfoStyle    lipgloss.Style
	SeverityHintStyle    lipgloss.Style

	ErrorStyle lipgloss.Style
)

func init() {
	rebuildStyles()
}

// ThemeConfig mirrors config.ThemeConfig to avoid circular imports.
type ThemeConfig struct {
	Accent  string
	Muted   string
	Error   string
	Success string
}

// ApplyTheme overrides the themeable colors and rebuilds every style.
// Empty strings keep the default value.
func ApplyTheme(cfg ThemeConfig) {
	makeColor := func(hex string) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: hex, Dark: hex}
	}

	if cfg.Accent != "" {
		AccentColor = makeColor(cfg.Accent)
		StatusInfoColor = makeColor(cfg.Accent)
	}
	if cfg.Muted != "" {
		TextMutedColor = makeColor(cfg.Muted)
		BorderDefaultColor = makeColor(cfg.Muted)
	}
	if cfg.Error != "" {
		StatusErrorColor = makeColor(cfg.Error)
	}
	if cfg.Success != "" {
		StatusSuccessColor = makeColor(cfg.Success)
	}

	rebuildStyles()
}

func rebuildStyles() {
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)
	SelectedRowStyle = lipgloss.NewStyle().Bold(true).Foreground(AccentColor)
	DisabledRowStyle = lipgloss.NewStyle().Foreground(TextMutedColor).Faint(true)
	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(TextSecondaryColor).
		Padding(0, 1)
	StatusSavedStyle = lipgloss.NewStyle().Foreground(StatusSuccessColor)
	StatusDirtyStyle = lipgloss.NewStyle().Foreground(StatusWarningColor).Bold(true)
	DiffAddedStyle = lipgloss.NewStyle().Foreground(StatusSuccessColor)
	DiffRemovedStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)

	SeverityErrorStyle = lipgloss.NewStyle().Foreground(StatusErrorColor).Bold(true)
	SeverityWarningStyle = lipgloss.NewStyle().Foreground(StatusWarningColor)
	SeverityInfoStyle = lipgloss.NewStyle().Foreground(StatusInfoColor)
	SeverityHintStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(StatusErrorColor).
		Bold(true).
		Padding(1, 2)
}
