package report

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Report palette
var (
	primaryColor   = lipgloss.Color("#A78BFA")
	secondaryColor = lipgloss.Color("#10B981")
	warningColor   = lipgloss.Color("#F59E0B")
	errorColor     = lipgloss.Color("#F87171")
	mutedColor     = lipgloss.Color("#9CA3AF")
)

type styles struct {
	title   lipgloss.Style
	heading lipgloss.Style
	label   lipgloss.Style
	count   lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
	ok      lipgloss.Style
	bad     lipgloss.Style
}

// newStyles binds the palette to a renderer for w. Without color every style
// renders as plain text.
func newStyles(r *lipgloss.Renderer, color bool) styles {
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return styles{
		title:   r.NewStyle().Bold(true).Foreground(primaryColor),
		heading: r.NewStyle().Bold(true).Foreground(primaryColor).Underline(true),
		label:   r.NewStyle().Bold(true),
		count:   r.NewStyle().Foreground(secondaryColor),
		muted:   r.NewStyle().Foreground(mutedColor),
		warning: r.NewStyle().Foreground(warningColor),
		ok:      r.NewStyle().Bold(true).Foreground(secondaryColor),
		bad:     r.NewStyle().Bold(true).Foreground(errorColor),
	}
}
