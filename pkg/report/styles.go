package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	headingColor = lipgloss.AdaptiveColor{Light: "#212529", Dark: "#F8F9FA"}
	usedColor    = lipgloss.AdaptiveColor{Light: "#28A745", Dark: "#4CDD76"}
	topColor     = lipgloss.AdaptiveColor{Light: "#007ACC", Dark: "#3D9EFF"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#ADB5BD"}
	pathColor    = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#A0A8B0"}
)

type styles struct {
	title    lipgloss.Style
	name     lipgloss.Style
	used     lipgloss.Style
	topLevel lipgloss.Style
	muted    lipgloss.Style
	path     lipgloss.Style
}

// newStyles binds the palette to w. Plain output forces the ASCII profile so
// no escape codes are written.
func newStyles(w io.Writer, plain bool) styles {
	r := lipgloss.NewRenderer(w)
	if plain {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		title:    r.NewStyle().Foreground(headingColor).Bold(true),
		name:     r.NewStyle().Bold(true),
		used:     r.NewStyle().Foreground(usedColor),
		topLevel: r.NewStyle().Foreground(topColor).Bold(true),
		muted:    r.NewStyle().Foreground(mutedColor),
		path:     r.NewStyle().Foreground(pathColor).Italic(true),
	}
}
