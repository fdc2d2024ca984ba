package display

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#1E88E5")
	success = lipgloss.Color("#4CAF50")
	warning = lipgloss.Color("#FFB74D")
	muted   = lipgloss.Color("#90A4AE")
)

var (
	footerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(success).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(warning).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(muted)
)
