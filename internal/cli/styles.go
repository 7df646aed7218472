package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Colors used in text output.
var (
	colorRed    = lipgloss.Color("#FF5F5F")
	colorGreen  = lipgloss.Color("#5FD75F")
	colorYellow = lipgloss.Color("#FFD75F")
	colorCyan   = lipgloss.Color("#5FD7FF")
	colorGray   = lipgloss.Color("#767676")
)

// styles are bound to one writer so colour is only emitted when that
// writer is a terminal.
type styles struct {
	OK     lipgloss.Style
	Fail   lipgloss.Style
	Warn   lipgloss.Style
	Header lipgloss.Style
	Dim    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		OK:     r.NewStyle().Foreground(colorGreen).Bold(true),
		Fail:   r.NewStyle().Foreground(colorRed).Bold(true),
		Warn:   r.NewStyle().Foreground(colorYellow),
		Header: r.NewStyle().Foreground(colorCyan).Bold(true),
		Dim:    r.NewStyle().Foreground(colorGray),
	}
}

// outcome renders a load/refresh outcome word in its colour.
func (s styles) outcome(o string) string {
	switch o {
	case "loaded", "refreshed":
		return s.OK.Render(o)
	case "reset", "retained":
		return s.Fail.Render(o)
	case "discarded", "skipped":
		return s.Warn.Render(o)
	default:
		return o
	}
}
