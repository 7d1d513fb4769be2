package toolbar

import "github.com/charmbracelet/lipgloss"

type Style struct {
	Normal    lipgloss.Style
	Active    lipgloss.Style
	Disabled  lipgloss.Style
	Separator string
}

func DefaultStyle() Style {
	return Style{
		Normal:    lipgloss.NewStyle().Padding(0, 1),
		Active:    lipgloss.NewStyle().Padding(0, 1).Reverse(true),
		Disabled:  lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("240")),
		Separator: " ",
	}
}
