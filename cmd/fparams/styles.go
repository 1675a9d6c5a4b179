package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#6b7a90")
	colorError   = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorInfo    = lipgloss.Color("#2196F3")
)

// Styles holds the terminal styles used by every command.
type Styles struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
}

func defaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Bold:    lipgloss.NewStyle().Bold(true),
		Body:    lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle().Foreground(colorMuted),
		Success: lipgloss.NewStyle().Foreground(colorAccent),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(colorError),
		Warning: lipgloss.NewStyle().Foreground(colorWarning),
		Info:    lipgloss.NewStyle().Foreground(colorInfo),
	}
}

var styles = defaultStyles()

// table renders static rows with padded columns.
type table struct {
	title   string
	headers []string
	rows    [][]string
}

func newTable(title string, headers ...string) *table {
	return &table{title: title, headers: headers}
}

func (t *table) addRow(row ...string) {
	t.rows = append(t.rows, row)
}

func (t *table) String() string {
	if len(t.rows) == 0 {
		return ""
	}

	var sb strings.Builder
	if t.title != "" {
		sb.WriteString(styles.Title.Render(t.title))
		sb.WriteString("\n")
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				if w := lipgloss.Width(cell); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}
	// room for the one-cell padding on each side
	for i := range widths {
		widths[i] += 2
	}

	header := styles.Bold.Copy().Padding(0, 1)
	cell := styles.Body.Copy().Padding(0, 1)
	sep := styles.Muted

	for i, h := range t.headers {
		sb.WriteString(header.Width(widths[i]).Render(h))
		if i < len(t.headers)-1 {
			sb.WriteString(sep.Render("|"))
		}
	}
	sb.WriteString("\n")

	total := len(t.headers) - 1
	for _, w := range widths {
		total += w
	}
	sb.WriteString(sep.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, row := range t.rows {
		for i := range t.headers {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			sb.WriteString(cell.Width(widths[i]).Render(v))
			if i < len(t.headers)-1 {
				sb.WriteString(sep.Render("|"))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
