package cli

import (
	"image/color"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/okian/winequality/internal/presenter"
)

var (
	colorWine  = lipgloss.Color("#8E2043")
	colorGood  = lipgloss.Color(presenter.ColorGood)
	colorError = lipgloss.Color(presenter.ColorNotGood)
	colorText  = lipgloss.Color("#F9FAFB")
	colorDim   = lipgloss.Color("#9CA3AF")
	colorMuted = lipgloss.Color("#6B7280")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWine)
	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	goodStyle   = lipgloss.NewStyle().Foreground(colorGood)
	badStyle    = lipgloss.NewStyle().Foreground(colorError)
)

// ColorScheme styles help and error output under fang.
func ColorScheme(c lipgloss.LightDarkFunc) fang.ColorScheme {
	return fang.ColorScheme{
		Base:           colorText,
		Title:          colorWine,
		Description:    colorDim,
		Codeblock:      c(lipgloss.Color("#1F2937"), lipgloss.Color("#2F2E36")),
		Program:        colorWine,
		DimmedArgument: colorMuted,
		Comment:        colorMuted,
		Flag:           colorGood,
		FlagDefault:    colorDim,
		Command:        colorWine,
		QuotedString:   colorGood,
		Argument:       colorText,
		Help:           colorDim,
		Dash:           colorMuted,
		ErrorHeader:    [2]color.Color{colorText, colorError},
		ErrorDetails:   colorError,
	}
}
