package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/RyanBlaney/sonido-deck/camelot"
	"github.com/RyanBlaney/sonido-deck/mixing"
)

var (
	accent = lipgloss.Color("#00ff9f")
	dim    = lipgloss.Color("#6e7681")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(dim)
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3fb950"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d29922"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f85149"))
)

func heading(w io.Writer, text string) {
	fmt.Fprintln(w, titleStyle.Render(text))
	fmt.Fprintln(w, dimStyle.Render(strings.Repeat("─", lipgloss.Width(text))))
}

func statusStyle(s mixing.Status) lipgloss.Style {
	switch s {
	case mixing.StatusExcellent, mixing.StatusGood:
		return goodStyle
	case mixing.StatusAcceptable, mixing.StatusPoor:
		return warnStyle
	default:
		return badStyle
	}
}

func qualityStyle(q camelot.Quality) lipgloss.Style {
	switch q {
	case camelot.QualityPerfect, camelot.QualityExcellent:
		return goodStyle
	case camelot.QualityGood, camelot.QualityModerate:
		return warnStyle
	default:
		return badStyle
	}
}
