package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/five82/studio/internal/studio"
	"github.com/five82/studio/internal/workflow"
)

var stepLabels = []struct {
	state workflow.State
	label string
}{
	{workflow.StateTheme, "Theme"},
	{workflow.StateDuration, "Length"},
	{workflow.StateConfirm, "Confirm"},
	{workflow.StateGenerating, "Generate"},
	{workflow.StateResult, "Video"},
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.showLogs {
		b.WriteString(m.renderLogs())
	} else {
		b.WriteString(m.renderSteps())
		b.WriteString("\n\n")
		if banner := m.renderBanners(); banner != "" {
			b.WriteString(banner)
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderBody())
	}
	b.WriteString("\n\n")
	b.WriteString(m.styles.Footer.Render(m.help.View(m.keys)))
	return b.String()
}

// renderHeader renders the title bar with service health.
func (m Model) renderHeader() string {
	left := m.styles.Title.Render("studio") + "  " + m.healthLabel()
	right := m.styles.Muted.Render(m.apiURL)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return m.styles.Header.Width(m.width).Render(ansi.Truncate(left, max(m.width-2, 0), "…"))
	}
	return m.styles.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) healthLabel() string {
	snap := m.health
	switch {
	case snap.IsOffline():
		return m.styles.Danger.Render("● offline: " + workflow.Message(snap.LastError))
	case snap.LastError != nil:
		return m.styles.Warning.Render("● unreachable, retrying")
	case !snap.HasHealth:
		return m.styles.Muted.Render("○ connecting…")
	}
	switch snap.Health.Status {
	case studio.HealthHealthy:
		return m.styles.Success.Render("● ready")
	case studio.HealthDegraded:
		label := "● degraded"
		if snap.Health.Detail != "" {
			label += ": " + snap.Health.Detail
		}
		return m.styles.Warning.Render(label)
	default:
		return m.styles.Danger.Render("● unhealthy")
	}
}

// renderSteps renders the breadcrumb of workflow steps.
func (m Model) renderSteps() string {
	parts := make([]string, len(stepLabels))
	for i, step := range stepLabels {
		switch {
		case step.state == m.session.State:
			parts[i] = m.styles.StepNow.Render(step.label)
		case step.state < m.session.State:
			parts[i] = m.styles.StepDone.Render(step.label)
		default:
			parts[i] = m.styles.StepLater.Render(step.label)
		}
	}
	return " " + strings.Join(parts, m.styles.Faint.Render(" › "))
}

func (m Model) renderBanners() string {
	var lines []string
	if m.session.CatalogErr != nil {
		lines = append(lines, m.styles.Banner.Render(m.truncate(workflow.Message(m.session.CatalogErr)+"  (R to retry)", 4)))
	}
	if m.session.Err != nil {
		lines = append(lines, m.styles.ErrorBox.Render(m.truncate(workflow.Message(m.session.Err)+"  (x to dismiss)", 4)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderBody() string {
	switch m.activePicker() {
	case pickerTheme:
		return m.renderThemePicker()
	case pickerDuration:
		return m.renderDurationPicker()
	}
	switch m.session.State {
	case workflow.StateConfirm:
		return m.renderConfirm()
	case workflow.StateGenerating:
		return m.renderGenerating()
	case workflow.StateResult:
		return m.renderResult()
	default:
		return ""
	}
}

func (m Model) renderThemePicker() string {
	var b strings.Builder
	b.WriteString(m.styles.Text.Bold(true).Render(" Choose a theme"))
	b.WriteString("\n\n")

	themes := m.session.Themes
	if len(themes) == 0 {
		if m.session.CatalogErr != nil {
			b.WriteString(m.styles.Muted.Render(" No themes loaded. Press R to try again."))
		} else {
			b.WriteString(" " + m.spinner.View() + m.styles.Muted.Render(" Loading themes…"))
		}
		return b.String()
	}

	for i, theme := range themes {
		line := fmt.Sprintf("%s  %s", theme.Icon, theme.Name)
		if theme.ID == m.session.Selection.ThemeID {
			line += "  ✓"
		}
		if i == m.themeCursor {
			b.WriteString(" " + m.styles.Selected.Render(" "+line+" "))
		} else {
			b.WriteString("  " + m.styles.Text.Render(line))
		}
		b.WriteString("\n")
		if theme.Description != "" {
			b.WriteString("      " + m.styles.Muted.Render(m.truncate(theme.Description, 8)))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderDurationPicker() string {
	var b strings.Builder
	title := " Choose a length"
	if name := m.session.ThemeName(); name != "" {
		title += " for " + name
	}
	b.WriteString(m.styles.Text.Bold(true).Render(title))
	b.WriteString("\n\n")

	for i, d := range workflow.Durations {
		label := workflow.FormatDuration(d)
		if d == m.session.Selection.Duration {
			label += "  ✓"
		}
		if i == m.durationCursor {
			b.WriteString(" " + m.styles.Selected.Render(" "+label+" "))
		} else {
			b.WriteString("  " + m.styles.Text.Render(label))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderConfirm() string {
	theme, _ := m.session.Theme()
	rows := []string{
		m.styles.Text.Bold(true).Render("Ready to generate"),
		"",
		m.styles.Muted.Render("Theme   ") + m.styles.Text.Render(strings.TrimSpace(theme.Icon+" "+m.session.ThemeName())),
		m.styles.Muted.Render("Length  ") + m.styles.Text.Render(workflow.FormatDuration(m.session.Selection.Duration)),
	}
	if theme.Description != "" {
		rows = append(rows, "", m.styles.Muted.Render(m.truncate(theme.Description, 10)))
	}
	rows = append(rows, "", m.styles.Accent.Render("enter")+m.styles.Muted.Render(" generate   ")+
		m.styles.Accent.Render("1/2")+m.styles.Muted.Render(" change"))
	return m.styles.Panel.Render(strings.Join(rows, "\n"))
}

func (m Model) renderGenerating() string {
	summary := fmt.Sprintf("%s · %s", m.session.ThemeName(), workflow.FormatDuration(m.session.Selection.Duration))
	if m.session.Submitting() {
		return m.styles.Panel.Render(strings.Join([]string{
			m.spinner.View() + m.styles.Text.Bold(true).Render(" Submitting request"),
			m.styles.Muted.Render(summary),
		}, "\n"))
	}

	p := m.session.Progress
	step := "waiting for the first update"
	if m.session.HasProgress && p.StepLabel != "" {
		step = p.StepLabel
	}
	rows := []string{
		m.spinner.View() + m.styles.Text.Bold(true).Render(" Generating ") + m.styles.Muted.Render(summary),
		"",
		m.bar.ViewAs(float64(p.Percent) / 100),
		m.styles.Info.Render(m.truncate(step, 10)),
		"",
		m.styles.Faint.Render("animation " + m.session.Handle.ID),
		m.styles.Accent.Render("r") + m.styles.Muted.Render(" cancel and start over"),
	}
	return m.styles.Panel.Render(strings.Join(rows, "\n"))
}

func (m Model) renderResult() string {
	url := ""
	if m.session.Artifact != nil {
		url = m.session.Artifact.FinalVideoURL
	}
	rows := []string{
		m.styles.Success.Render("✓ Your video is ready"),
		m.styles.Muted.Render(fmt.Sprintf("%s · %s", m.session.ThemeName(), workflow.FormatDuration(m.session.Selection.Duration))),
		"",
		m.styles.Info.Underline(true).Render(m.truncate(url, 10)),
		"",
		m.styles.Accent.Render("enter") + m.styles.Muted.Render(" start over   ") +
			m.styles.Accent.Render("1/2") + m.styles.Muted.Render(" tweak and regenerate"),
	}
	return m.styles.Panel.Render(strings.Join(rows, "\n"))
}

// truncate shortens s to the terminal width minus margin cells.
func (m Model) truncate(s string, margin int) string {
	width := m.width - margin
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
