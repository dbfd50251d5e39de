package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-kp/internal/kp"
	"github.com/litescript/ls-kp/internal/report"
)

// Styles shared by the chart views
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("60"))

	retroStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// PlanetsModel lists body positions with the selected body's details.
type PlanetsModel struct {
	width  int
	height int
	cursor int
	chart  *kp.Chart
}

// NewPlanetsModel creates a planets view for a chart.
func NewPlanetsModel(chart *kp.Chart) PlanetsModel {
	return PlanetsModel{chart: chart}
}

// SetSize updates the viewport size.
func (m PlanetsModel) SetSize(width, height int) PlanetsModel {
	m.width = width
	m.height = height
	return m
}

// Update handles messages.
func (m PlanetsModel) Update(msg tea.Msg) (PlanetsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.chart != nil {
		m.cursor = moveCursor(m.cursor, len(m.chart.Bodies), msg.String())
	}
	return m, nil
}

// View renders the planets table.
func (m PlanetsModel) View() string {
	if m.chart == nil {
		return "No chart loaded\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Planets"))
	b.WriteString("\n")

	header := fmt.Sprintf("%-8s %-18s %-18s %-8s %-8s %-8s %-5s %-10s",
		"Body", "Position", "Nakshatra", "Star", "Sub", "SubSub", "House", "Motion")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for i, r := range m.chart.Bodies {
		var row string
		if !r.OK() {
			row = fmt.Sprintf("%-8s %s", r.Body, errorStyle.Render("unavailable: "+errText(r.Err)))
		} else {
			p := r.Position
			row = fmt.Sprintf("%-8s %-18s %-18s %-8s %-8s %-8s %-5s %-10s",
				p.Body,
				report.FormatPosition(p.Location),
				fmt.Sprintf("%s-%d", p.Location.Nakshatra, p.Location.Pada),
				p.Location.StarLord,
				p.SubLord.Lord,
				p.SubSub.Lord,
				houseText(p.House),
				p.Motion,
			)
			if p.Retrograde {
				row = retroStyle.Render(row)
			}
		}

		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render(row))
		} else {
			b.WriteString(rowStyle.Render(row))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderDetail())
	return b.String()
}

// renderDetail shows aspects, strength and signified houses of the
// selected body.
func (m PlanetsModel) renderDetail() string {
	if m.cursor >= len(m.chart.Bodies) || !m.chart.Bodies[m.cursor].OK() {
		return ""
	}
	p := *m.chart.Bodies[m.cursor].Position

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", p.Body.Glyph(), p.Body)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %s  speed %+.4f°/day", report.FormatDMS(p.Longitude), p.Speed)))
	b.WriteString("\n")

	for _, s := range m.chart.Strengths {
		if s.Body == p.Body {
			b.WriteString(fmt.Sprintf("  Strength: %+d (%s)\n", s.Total, s.Category))
		}
	}

	if m.chart.Significators != nil {
		strong, weak := kp.SignifiedHouses(*m.chart.Significators, p.Body)
		b.WriteString(fmt.Sprintf("  Signifies: strong %s  weak %s\n", intList(strong), intList(weak)))
	}

	aspects := kp.AspectsOf(m.chart.Aspects, p.Body)
	if len(aspects) == 0 {
		b.WriteString(dimStyle.Render("  No aspects"))
		b.WriteString("\n")
	}
	for _, a := range aspects {
		other := a.B
		if other == p.Body {
			other = a.A
		}
		b.WriteString(fmt.Sprintf("  %-12s %-8s orb %.2f°%s\n", a.Type, other, a.Orb, applyingText(a.Applying)))
	}
	return b.String()
}

// moveCursor applies a navigation key to a cursor over n rows.
func moveCursor(cursor, n int, key string) int {
	switch key {
	case "up", "k":
		if cursor > 0 {
			cursor--
		}
	case "down", "j":
		if cursor < n-1 {
			cursor++
		}
	case "home", "g":
		cursor = 0
	case "end", "G":
		if n > 0 {
			cursor = n - 1
		}
	}
	return cursor
}

func houseText(h int) string {
	if h == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", h)
}

func applyingText(applying bool) string {
	if applying {
		return " applying"
	}
	return " separating"
}

func intList(xs []int) string {
	if len(xs) == 0 {
		return "-"
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(parts, ",")
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
