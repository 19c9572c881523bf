package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for panel titles.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// PanelStyle wraps the AI output.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ErrorPanelStyle wraps failure details.
var ErrorPanelStyle = PanelStyle.
	BorderForeground(ColorRed)

// LabelStyle renders field labels such as "Templates:".
var LabelStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGray)

// HelpStyle is used for keyboard hints and secondary text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// SuccessStyle marks completed steps.
var SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)

// ErrorStyle marks failed steps and error messages.
var ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)

// StageStyle returns a color-coded style for a pipeline stage name.
func StageStyle(stage string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch stage {
	case "idle":
		return base.Foreground(ColorGreen)
	case "failed":
		return base.Foreground(ColorRed)
	case "invoking-ai":
		return base.Foreground(ColorMagenta)
	case "delivering":
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorBlue)
	}
}

// CategoryStyle returns a color-coded style for a template category.
func CategoryStyle(category string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch category {
	case "summarize":
		return base.Foreground(ColorBlue)
	case "reply":
		return base.Foreground(ColorGreen)
	case "insights":
		return base.Foreground(ColorMagenta)
	default:
		return base.Foreground(ColorGray)
	}
}
