package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/studio/internal/logtail"
)

// renderLogs renders the tail of this session's log, newest last.
func (m Model) renderLogs() string {
	var b strings.Builder
	b.WriteString(m.styles.Text.Bold(true).Render(" Session log"))
	b.WriteString(m.styles.Faint.Render("  " + m.logFile))
	b.WriteString("\n\n")

	if m.logErr != nil {
		b.WriteString(m.styles.Danger.Render(" " + m.logErr.Error()))
		return b.String()
	}
	if len(m.logEntries) == 0 {
		b.WriteString(m.styles.Muted.Render(" Nothing logged yet."))
		return b.String()
	}

	// Header, breadcrumb spacing and footer take six lines.
	visible := max(m.height-6, 1)
	entries := m.logEntries
	if len(entries) > visible {
		entries = entries[len(entries)-visible:]
	}
	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = " " + m.levelStyle(entry.Level).Render(m.truncate(formatEntry(entry), 2))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// formatEntry drops the session attribute, which every record carries.
func formatEntry(e logtail.Entry) string {
	attrs := e.Attrs[:0:0]
	for _, a := range e.Attrs {
		if a.Key != "session" {
			attrs = append(attrs, a)
		}
	}
	e.Attrs = attrs
	return e.String()
}

func (m Model) levelStyle(level string) lipgloss.Style {
	switch strings.ToUpper(level) {
	case "ERROR":
		return m.styles.Danger
	case "WARN":
		return m.styles.Warning
	case "DEBUG":
		return m.styles.Faint
	default:
		return m.styles.Text
	}
}
