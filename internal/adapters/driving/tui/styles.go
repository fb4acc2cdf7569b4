package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	primaryColor = lipgloss.Color("#7D56F4") // Purple
	accentColor  = lipgloss.Color("#5A9CF7") // Blue
	successColor = lipgloss.Color("#73F59F") // Green
	errorColor   = lipgloss.Color("#FF6B6B") // Red
	warningColor = lipgloss.Color("#FFE066") // Yellow
	mutedColor   = lipgloss.Color("#626262") // Gray
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	bannerStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorColor).
			Padding(0, 1)

	emptyStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	fieldLabelStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	fieldErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	focusedStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	keyStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1e1e2e")).
			Padding(0, 1)
)
