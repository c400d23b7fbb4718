package main

import "github.com/charmbracelet/lipgloss"

var (
	colorTeal  = lipgloss.Color("#20B9B4")
	colorRed   = lipgloss.Color("#E74C3C")
	colorMuted = lipgloss.Color("#2C4A54")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	highStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	lowStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorTeal).
			Padding(0, 1)
)

func levelStyle(label int) lipgloss.Style {
	if label == 1 {
		return highStyle
	}
	return lowStyle
}
