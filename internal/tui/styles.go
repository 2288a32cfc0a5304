package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mgomes/plagdrop/internal/rank"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141"))

	snippetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	dropZoneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)

	tierStyles = map[rank.Tier]lipgloss.Style{
		rank.TierCritical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		rank.TierHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		rank.TierModerate: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		rank.TierLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

func tierStyle(t rank.Tier) lipgloss.Style {
	if s, ok := tierStyles[t]; ok {
		return s
	}
	return dimStyle
}
