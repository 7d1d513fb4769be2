package editor

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/iw2rmb/potluck/render"
)

// Style controls the editor's rendering.
type Style struct {
	Content     render.TermStyle
	Selection   lipgloss.Style
	Cursor      lipgloss.Style
	Placeholder lipgloss.Style
}

func DefaultStyle() Style {
	return Style{
		Content:     render.DefaultTermStyle(),
		Selection:   lipgloss.NewStyle().Background(lipgloss.Color("237")),
		Cursor:      lipgloss.NewStyle().Reverse(true),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}
