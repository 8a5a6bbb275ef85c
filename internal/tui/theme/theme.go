package theme

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Title      lipgloss.Style
	Section    lipgloss.Style
	ActiveLine lipgloss.Style
	MetaLabel  lipgloss.Style
	MetaValue  lipgloss.Style
	Arabic     lipgloss.Style
	Translated lipgloss.Style
	Bookmark   lipgloss.Style
	Sajda      lipgloss.Style
	StateIdle  lipgloss.Style
	StateWarn  lipgloss.Style
	StateLoad  lipgloss.Style
}

func Default() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		Section:    lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		ActiveLine: lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		MetaLabel:  lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:  lipgloss.NewStyle().Foreground(cpSubtext1),
		Arabic:     lipgloss.NewStyle().Bold(true).Foreground(cpText),
		Translated: lipgloss.NewStyle().Foreground(cpSubtext1),
		Bookmark:   lipgloss.NewStyle().Foreground(cpYellow),
		Sajda:      lipgloss.NewStyle().Italic(true).Foreground(cpTeal),
		StateIdle:  lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:  lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:  lipgloss.NewStyle().Foreground(cpPeach),
	}
}
