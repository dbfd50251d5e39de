package ui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-kp/internal/kp"
	"github.com/litescript/ls-kp/internal/report"
)

// AspectsModel shows the aspect list and one divisional chart at a time.
type AspectsModel struct {
	width    int
	height   int
	chart    *kp.Chart
	division int // index into divisions()
}

// NewAspectsModel creates an aspects view for a chart.
func NewAspectsModel(chart *kp.Chart) AspectsModel {
	return AspectsModel{chart: chart}
}

// SetSize updates the viewport size.
func (m AspectsModel) SetSize(width, height int) AspectsModel {
	m.width = width
	m.height = height
	return m
}

// Update handles messages. v cycles the divisional chart shown.
func (m AspectsModel) Update(msg tea.Msg) (AspectsModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "v" {
		if n := len(m.divisions()); n > 0 {
			m.division = (m.division + 1) % n
		}
	}
	return m, nil
}

// Division returns the divisional chart currently shown.
func (m AspectsModel) Division() (kp.Division, bool) {
	divs := m.divisions()
	if len(divs) == 0 {
		return 0, false
	}
	return divs[m.division%len(divs)], true
}

func (m AspectsModel) divisions() []kp.Division {
	if m.chart == nil {
		return nil
	}
	divs := make([]kp.Division, 0, len(m.chart.Vargas))
	for d := range m.chart.Vargas {
		divs = append(divs, d)
	}
	sort.Slice(divs, func(i, j int) bool { return divs[i] < divs[j] })
	return divs
}

// View renders aspects and the selected varga.
func (m AspectsModel) View() string {
	if m.chart == nil {
		return "No chart loaded\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Aspects"))
	b.WriteString("\n")
	if len(m.chart.Aspects) == 0 {
		b.WriteString(dimStyle.Render("  No aspects within orb"))
		b.WriteString("\n")
	} else {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s %-12s %-8s %-8s %s", "Body", "Aspect", "Body", "Orb", "")))
		b.WriteString("\n")
		for _, a := range m.chart.Aspects {
			b.WriteString(rowStyle.Render(fmt.Sprintf("%-8s %-12s %-8s %-8s%s",
				a.A, a.Type, a.B, fmt.Sprintf("%.2f°", a.Orb), applyingText(a.Applying))))
			b.WriteString("\n")
		}
	}

	d, ok := m.Division()
	if !ok {
		return b.String()
	}
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", d, m.chart.VargaNames[d])))
	b.WriteString(dimStyle.Render("  [v] next division"))
	b.WriteString("\n")

	varga := m.chart.Vargas[d]
	for _, r := range m.chart.Bodies {
		loc, ok := varga[r.Body]
		if !ok {
			continue
		}
		b.WriteString(rowStyle.Render(fmt.Sprintf("  %-8s %s", r.Body, report.FormatPosition(loc))))
		b.WriteString("\n")
	}
	return b.String()
}
