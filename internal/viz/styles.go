package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styleSet struct {
	canvas   lipgloss.Style
	stats    lipgloss.Style
	header   lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	graph    lipgloss.Style
	help     lipgloss.Style
	running  lipgloss.Style
	paused   lipgloss.Style
	failed   lipgloss.Style
	selected lipgloss.Style
}

func stylesFor(t Theme) styleSet {
	return styleSet{
		canvas:   lipgloss.NewStyle().Padding(1, 2).Foreground(t.Particles),
		stats:    lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.Muted).Padding(1, 2).Width(45),
		header:   lipgloss.NewStyle().Foreground(t.Header).Bold(true).MarginBottom(1),
		label:    lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		graph:    lipgloss.NewStyle().Foreground(t.Plot).Padding(1, 0),
		help:     lipgloss.NewStyle().Foreground(t.Muted).MarginTop(2),
		running:  lipgloss.NewStyle().Bold(true).Foreground(t.Running),
		paused:   lipgloss.NewStyle().Bold(true).Foreground(t.Paused),
		failed:   lipgloss.NewStyle().Bold(true).Foreground(t.Failed),
		selected: lipgloss.NewStyle().Bold(true).Foreground(t.Header),
	}
}

// ProgressBar renders a filled bar for percent in [0, 1].
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// SparklineChart renders a mini sparkline from values
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(len(values)/width, 1)

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := max(0, min(int(norm*float64(len(chars)-1)), len(chars)-1))
		result.WriteRune(chars[idx])
	}

	return result.String()
}
