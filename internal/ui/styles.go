package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Color palette: one lime accent over grays.
const (
	ColorLime     = "154" // Primary accent (#AFFF00)
	ColorLimeDim  = "106" // Dimmed lime for the selected row
	ColorWhite    = "255" // Headers, important text
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Borders, separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds all UI styles for TUI rendering.
type Styles struct {
	Title   lipgloss.Style
	Prompt  lipgloss.Style
	Status  lipgloss.Style
	Accent  lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Help    lipgloss.Style

	// Table styles
	TableHeader   lipgloss.Style
	TableCell     lipgloss.Style
	TableSelected lipgloss.Style
	Panel         lipgloss.Style
}

// DefaultStyles returns the colored theme.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Status:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Accent:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),

		TableHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorWhite)).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
		TableCell: lipgloss.NewStyle().Padding(0, 1),
		TableSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorLime)).
			Background(lipgloss.Color(ColorDarkGray)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorLimeDim)).
			Padding(0, 1),
	}
}

// NoColorStyles returns unstyled components for NO_COLOR terminals. The
// table keeps its padding and header rule so columns still line up.
func NoColorStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true),
		Prompt:  lipgloss.NewStyle(),
		Status:  lipgloss.NewStyle(),
		Accent:  lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
		Help:    lipgloss.NewStyle(),

		TableHeader: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Padding(0, 1),
		TableCell:     lipgloss.NewStyle().Padding(0, 1),
		TableSelected: lipgloss.NewStyle().Reverse(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}

// tableStyles adapts Styles to the bubbles table.
func (s Styles) tableStyles() table.Styles {
	return table.Styles{
		Header:   s.TableHeader,
		Cell:     s.TableCell,
		Selected: s.TableSelected,
	}
}
