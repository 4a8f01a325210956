// Package haltui is the Bubble Tea dashboard model for cmd/halmonitor: a
// small read-only view onto a running halsession.Session, grounded on the
// teacher's tui/internal/app Init/Update/View loop.
package haltui

import "github.com/charmbracelet/lipgloss"

var (
	colorBorder  = lipgloss.Color("#4b5563")
	colorDimmed  = lipgloss.Color("#6b7280")
	colorBright  = lipgloss.Color("#f9fafb")
	colorHealthy = lipgloss.Color("#22c55e")
	colorWarning = lipgloss.Color("#d97706")
	colorDanger  = lipgloss.Color("#dc2626")

	styleHeader   = lipgloss.NewStyle().Bold(true).Foreground(colorBright)
	styleDimmed   = lipgloss.NewStyle().Foreground(colorDimmed)
	styleSelected = lipgloss.NewStyle().Bold(true).Foreground(colorBright)
)

func connectionColor(s string) lipgloss.Color {
	switch s {
	case "connected":
		return colorHealthy
	case "connecting":
		return colorWarning
	case "error":
		return colorDanger
	default:
		return colorDimmed
	}
}

func channelColor(s string) lipgloss.Color {
	switch s {
	case "up":
		return colorHealthy
	case "trying":
		return colorWarning
	default:
		return colorDimmed
	}
}
