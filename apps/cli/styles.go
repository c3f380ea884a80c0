package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle       = lipgloss.NewStyle().Bold(true).Underline(true)
	substitutionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cellStyle         = lipgloss.NewStyle().PaddingRight(2)
)

// table renders rows under headers with aligned columns. `highlight` marks the rows to emphasise.
type table struct {
	title     string
	headers   []string
	rows      [][]string
	highlight []bool
}

func (t *table) add(highlight bool, row ...string) {
	t.rows = append(t.rows, row)
	t.highlight = append(t.highlight, highlight)
}

func (t *table) render() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		rendered := make([]string, len(widths))
		for i := range widths {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			rendered[i] = cellStyle.Width(widths[i] + 2).Render(style.Render(cell))
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	}

	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(titleStyle.Render(t.title) + "\n")
	}
	sb.WriteString(line(t.headers, headerStyle) + "\n")
	for i, row := range t.rows {
		style := lipgloss.NewStyle()
		if t.highlight[i] {
			style = substitutionStyle
		}
		sb.WriteString(line(row, style) + "\n")
	}
	return sb.String()
}
