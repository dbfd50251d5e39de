package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/kp"
	"github.com/litescript/ls-kp/internal/report"
)

// HousesModel shows cusps with the significators of the selected house.
type HousesModel struct {
	width  int
	height int
	cursor int
	chart  *kp.Chart
}

// NewHousesModel creates a houses view for a chart.
func NewHousesModel(chart *kp.Chart) HousesModel {
	return HousesModel{chart: chart}
}

// SetSize updates the viewport size.
func (m HousesModel) SetSize(width, height int) HousesModel {
	m.width = width
	m.height = height
	return m
}

// Update handles messages.
func (m HousesModel) Update(msg tea.Msg) (HousesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		m.cursor = moveCursor(m.cursor, 12, msg.String())
	}
	return m, nil
}

// SelectedHouse returns the highlighted house number.
func (m HousesModel) SelectedHouse() int {
	return m.cursor + 1
}

// View renders the cusp table.
func (m HousesModel) View() string {
	if m.chart == nil {
		return "No chart loaded\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("House Cusps (%s)", m.chart.HouseSystem)))
	b.WriteString("\n")

	if m.chart.Cusps == nil {
		b.WriteString(errorStyle.Render("  Houses unavailable: " + errText(m.chart.HousesErr)))
		b.WriteString("\n")
		return b.String()
	}

	if asc := m.chart.Ascendant; asc != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  Ascendant %s   Midheaven %s",
			report.FormatPosition(asc.Location), report.FormatPosition(m.chart.Midheaven.Location))))
		b.WriteString("\n")
	}

	meaningWidth := m.width - 66
	if meaningWidth < 12 {
		meaningWidth = 12
	}
	header := fmt.Sprintf("%-5s %-18s %-14s %-8s %-8s %s",
		"House", "Cusp", "Nakshatra", "Star", "Sub", "Signifies")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for i, c := range m.chart.Cusps {
		row := fmt.Sprintf("%-5d %-18s %-14s %-8s %-8s %s",
			c.House,
			report.FormatPosition(c.Location),
			c.Location.Nakshatra,
			c.Location.StarLord,
			c.SubLord.Lord,
			truncate(c.Meaning, meaningWidth),
		)
		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render(row))
		} else {
			b.WriteString(rowStyle.Render(row))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderSignificators())
	return b.String()
}

func (m HousesModel) renderSignificators() string {
	if m.chart.Significators == nil {
		return ""
	}
	s := m.chart.Significators[m.cursor]

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("House %d significators", s.House)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Occupants:  %s\n", bodyList(s.Occupants)))
	b.WriteString(fmt.Sprintf("  Star lords: %s\n", bodyList(s.StarLords)))
	b.WriteString(fmt.Sprintf("  Sign lord:  %s   Sub lord: %s\n", s.SignLord, s.SubLord))
	b.WriteString(fmt.Sprintf("  Strong:     %s\n", bodyList(s.Strong)))
	b.WriteString(fmt.Sprintf("  Weak:       %s\n", bodyList(s.Weak)))
	return b.String()
}

func bodyList(bodies []ephem.Body) string {
	if len(bodies) == 0 {
		return "-"
	}
	parts := make([]string, len(bodies))
	for i, b := range bodies {
		parts[i] = string(b)
	}
	return strings.Join(parts, ", ")
}
