package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/couchcryptid/childcare-availability/internal/domain"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleLabel  = lipgloss.NewStyle().Foreground(colorGray)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	styleAvailable = lipgloss.NewStyle().Foreground(colorGreen)
	styleFull      = lipgloss.NewStyle().Foreground(colorRed)
)

// styleFor colors a value by its availability classification.
func styleFor(s domain.Style) lipgloss.Style {
	switch s {
	case domain.StyleAvailable:
		return styleAvailable
	case domain.StyleFull:
		return styleFull
	default:
		return lipgloss.NewStyle()
	}
}
