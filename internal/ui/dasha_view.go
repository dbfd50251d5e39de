package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-kp/internal/kp"
	"github.com/litescript/ls-kp/internal/report"
)

var currentStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#9D4EDD"))

// DashaModel lists mahadashas; enter expands the selected one into its
// antardashas.
type DashaModel struct {
	width    int
	height   int
	cursor   int
	expanded bool
	chart    *kp.Chart
	now      time.Time
}

// NewDashaModel creates a dasha view positioned on the running period.
func NewDashaModel(chart *kp.Chart, now time.Time) DashaModel {
	m := DashaModel{chart: chart, now: now}
	if chart != nil {
		for i, p := range chart.Dashas {
			if p.Status(now) == kp.StatusCurrent {
				m.cursor = i
			}
		}
	}
	return m
}

// SetSize updates the viewport size.
func (m DashaModel) SetSize(width, height int) DashaModel {
	m.width = width
	m.height = height
	return m
}

// SetNow moves the reference instant for period status.
func (m DashaModel) SetNow(now time.Time) DashaModel {
	m.now = now
	return m
}

// Update handles messages.
func (m DashaModel) Update(msg tea.Msg) (DashaModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.chart == nil {
		return m, nil
	}
	switch key.String() {
	case "enter", " ":
		m.expanded = !m.expanded
	default:
		m.cursor = moveCursor(m.cursor, len(m.chart.Dashas), key.String())
	}
	return m, nil
}

// View renders the schedule.
func (m DashaModel) View() string {
	if m.chart == nil {
		return "No chart loaded\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Vimshottari Dasha"))
	b.WriteString("\n")

	if m.chart.DashaErr != nil {
		b.WriteString(errorStyle.Render("  Dasha unavailable: " + m.chart.DashaErr.Error()))
		b.WriteString("\n")
		return b.String()
	}

	header := fmt.Sprintf("  %-8s %-12s %-12s %-12s %s", "Lord", "Start", "End", "Length", "Status")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for i, p := range m.chart.Dashas {
		b.WriteString(m.renderRow(p, i == m.cursor, ""))
		if i == m.cursor && m.expanded {
			for _, sub := range kp.Antardashas(p) {
				b.WriteString(m.renderRow(sub, false, "  "))
			}
		}
	}

	b.WriteString("\n")
	if cur, ok := kp.CurrentPeriod(m.chart.Dashas, m.now); ok {
		line := fmt.Sprintf("Running: %s mahadasha", cur.Lord)
		if sub, ok := kp.CurrentPeriod(kp.Antardashas(cur), m.now); ok {
			line += fmt.Sprintf(" / %s antardasha until %s", sub.Lord, report.FormatDate(sub.End))
		}
		b.WriteString(currentStyle.Render(line))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Effects: " + kp.DashaEffects(cur.Lord)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m DashaModel) renderRow(p kp.DashaPeriod, selected bool, indent string) string {
	status := string(p.Status(m.now))
	if p.BirthRemainder {
		status += " (balance)"
	}
	marker := "  "
	if p.Status(m.now) == kp.StatusCurrent {
		marker = "▶ "
	}
	row := fmt.Sprintf("%s%s%-8s %-12s %-12s %-12s %s",
		marker, indent, p.Lord,
		report.FormatDate(p.Start), report.FormatDate(p.End),
		report.FormatYears(p.Years()), status)

	switch {
	case selected:
		return selectedRowStyle.Render(row) + "\n"
	case p.Status(m.now) == kp.StatusCurrent:
		return currentStyle.Render(row) + "\n"
	case p.Status(m.now) == kp.StatusPast:
		return dimStyle.Render(row) + "\n"
	default:
		return rowStyle.Render(row) + "\n"
	}
}
