package sim

import "github.com/charmbracelet/lipgloss"

var (
	ColorDim    = lipgloss.Color("#303030")
	ColorAccent = lipgloss.Color("#00CC33")
	ColorWarn   = lipgloss.Color("#FFAA00")
)

var (
	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleTransition = lipgloss.NewStyle().
			Foreground(ColorWarn).
			Bold(true)

	StyleDisplay = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Foreground(lipgloss.Color("#88FFFF")).
			Background(lipgloss.Color("#002244"))

	StyleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777"))

	StyleLedOff = lipgloss.NewStyle().
			Foreground(ColorDim)
)
