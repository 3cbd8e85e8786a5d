package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette is the stylesheet shared by every view: one accent for headings,
// traffic-light colors for status, and a muted tone for chrome text.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	help  lipgloss.Style
}

// styles degrades gracefully on terminals without truecolor; lipgloss picks
// the nearest ANSI color.
var styles = Palette{
	title: accent("#2BB3C0").Bold(true).MarginBottom(1),
	ok:    accent("#3FBF7F").Bold(true),
	err:   accent("#E05561").Bold(true),
	help:  accent("#767676").Italic(true),
}

func accent(hex string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}
