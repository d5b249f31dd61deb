// AETHER - Minimal tool-using AI agent
// License: MIT

package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor   = lipgloss.Color("#00BCD4") // Aether cyan
	secondaryColor = lipgloss.Color("#7B8794")
	aiColor        = lipgloss.Color("#2ECC71")
	errorColor     = lipgloss.Color("#E74C3C")

	userLabelStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	aiLabelStyle = lipgloss.NewStyle().
			Foreground(aiColor).
			Bold(true)

	logLineStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	errorLineStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#2C3E50")).
			Foreground(lipgloss.Color("#ECF0F1")).
			Padding(0, 1)

	thinkingStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Italic(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34495E"))
)
