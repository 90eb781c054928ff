package presenter

import (
	"fmt"
	"math"
	"strings"

	"charm.land/lipgloss/v2"
)

const (
	defaultTermWidth = 64
	minBarWidth      = 10
)

var (
	colorGood    = lipgloss.Color(ColorGood)
	colorNotGood = lipgloss.Color(ColorNotGood)
	colorDim     = lipgloss.Color("#9CA3AF")
	colorWarn    = lipgloss.Color("#F59E0B")

	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarn)
)

// Terminal renders r for a terminal of the given width.
func Terminal(r Report, width int) string {
	if width <= 0 {
		width = defaultTermWidth
	}
	if !r.OK() {
		return lipgloss.NewStyle().
			Foreground(colorNotGood).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorNotGood).
			Padding(0, 1).
			Width(width).
			Render(r.Error)
	}

	var b strings.Builder
	b.WriteString(headlineCard(r, width))
	b.WriteString("\n")

	for _, a := range r.Adjustments {
		b.WriteString(warnStyle.Render(fmt.Sprintf("! %s clamped from %g to %g", a.Name, a.From, a.To)))
		b.WriteString("\n")
	}

	b.WriteString(metricsRow(r.Metrics, width))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Quality Probability Distribution"))
	b.WriteString("\n")
	b.WriteString(chart(r.Chart, width))
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("Key Quality Factors"))
	b.WriteString("\n")
	for _, g := range r.Guidance {
		b.WriteString(dimStyle.Render("• " + g))
		b.WriteString("\n")
	}
	return b.String()
}

func headlineCard(r Report, width int) string {
	accent := colorNotGood
	if r.Headline.Kind == Affirmative {
		accent = colorGood
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render(r.Headline.Title),
		r.Headline.Message,
		dimStyle.Render(r.Headline.Detail),
	)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(width).
		Render(body)
}

func metricsRow(ms []Metric, width int) string {
	if len(ms) == 0 {
		return ""
	}
	col := width / len(ms)
	cells := make([]string, 0, len(ms))
	for _, m := range ms {
		cells = append(cells, lipgloss.NewStyle().Width(col).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				dimStyle.Render(m.Label),
				titleStyle.Render(m.Value),
				dimStyle.Render(m.Hint),
			),
		))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// chart draws one horizontal bar per category, scaled to the bar width.
func chart(bars []Bar, width int) string {
	labelW := 0
	for _, bar := range bars {
		labelW = max(labelW, lipgloss.Width(bar.Category))
	}
	barW := max(width-labelW-10, minBarWidth)

	lines := make([]string, 0, len(bars))
	for _, bar := range bars {
		filled := int(math.Round(bar.Probability * float64(barW)))
		filled = min(max(filled, 0), barW)
		fill := lipgloss.NewStyle().Foreground(lipgloss.Color(bar.Color)).Render(strings.Repeat("█", filled))
		rest := dimStyle.Render(strings.Repeat("░", barW-filled))
		label := lipgloss.NewStyle().Width(labelW).Render(bar.Category)
		lines = append(lines, fmt.Sprintf("%s %s%s %s", label, fill, rest, bar.Percent))
	}
	return strings.Join(lines, "\n")
}
