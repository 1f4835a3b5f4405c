package dashboard

import "github.com/charmbracelet/lipgloss"

type theme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	title       lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	agentBox    lipgloss.Style
	agentName   lipgloss.Style
	muted       lipgloss.Style
	cursor      lipgloss.Style
	raw         lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
}

func newTheme() theme {
	border := lipgloss.Color("#30363d")
	text := lipgloss.Color("#e6edf3")
	muted := lipgloss.Color("#8b949e")
	accent := lipgloss.Color("#00aaff")
	alert := lipgloss.Color("#ff4444")

	return theme{
		root: lipgloss.NewStyle().Foreground(text).Padding(0, 1),
		header: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(alert).
			Padding(0, 1),
		title: lipgloss.NewStyle().Foreground(alert).Bold(true),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().Foreground(accent).Bold(true),
		agentBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			Padding(0, 1),
		agentName:   lipgloss.NewStyle().Bold(true),
		muted:       lipgloss.NewStyle().Foreground(muted),
		cursor:      lipgloss.NewStyle().Foreground(accent).Bold(true),
		raw:         lipgloss.NewStyle().Foreground(muted).PaddingLeft(4),
		status:      lipgloss.NewStyle().Foreground(accent).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(alert).Bold(true),
	}
}
