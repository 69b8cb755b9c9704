package tui

import "github.com/charmbracelet/lipgloss"

// The palette tracks the HTML report theme so the interactive screen
// and generated reports read as one tool.
var (
	colorAccent  = lipgloss.Color("#3B82F6")
	colorMatch   = lipgloss.Color("#FCD34D")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#9FB0C7")
	colorBorder  = lipgloss.Color("#2B2F36")
	colorSurface = lipgloss.Color("#161A20")

	stylePane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	stylePaneFocused = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorAccent)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#E6EDF7")).
			Background(colorAccent).
			Padding(0, 1)

	styleLabel    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleMuted    = lipgloss.NewStyle().Foreground(colorMuted)
	styleError    = lipgloss.NewStyle().Foreground(colorError)
	styleMatch    = lipgloss.NewStyle().Bold(true).Foreground(colorMatch)
	styleSelected = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("#1F2937"))
)

// statusBar renders the footer line: run status on the left, key
// hints on the right, padded to the terminal width.
func statusBar(status, hints string, width int) string {
	left := styleMuted.Render("  " + status)
	right := styleMuted.Render(hints + " ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	padding := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Background(colorSurface).
		Width(width).
		Render(left + padding + right)
}
