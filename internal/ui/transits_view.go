package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-kp/internal/kp"
	"github.com/litescript/ls-kp/internal/report"
	"github.com/litescript/ls-kp/internal/state"
)

// TransitsModel shows current positions against the natal houses, and the
// recent transit events.
type TransitsModel struct {
	width    int
	height   int
	natal    *kp.Chart
	snapshot state.Snapshot
}

// NewTransitsModel creates a transits view for a natal chart.
func NewTransitsModel(natal *kp.Chart) TransitsModel {
	return TransitsModel{natal: natal}
}

// SetSize updates the viewport size.
func (m TransitsModel) SetSize(width, height int) TransitsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with a new transit snapshot.
func (m TransitsModel) UpdateData(snapshot state.Snapshot) TransitsModel {
	m.snapshot = snapshot
	return m
}

// Update handles messages.
func (m TransitsModel) Update(msg tea.Msg) (TransitsModel, tea.Cmd) {
	return m, nil
}

// View renders the transit table and event log.
func (m TransitsModel) View() string {
	var b strings.Builder

	if m.snapshot.LastError != nil {
		b.WriteString(errorStyle.Render("Error: " + m.snapshot.LastError.Error()))
		b.WriteString("\n\n")
	}

	tr := m.snapshot.Chart
	if tr == nil {
		b.WriteString("Waiting for transit data...\n")
		return b.String()
	}

	b.WriteString(titleStyle.Render("Transits at " + tr.Time.UTC().Format("2006-01-02 15:04 MST")))
	b.WriteString("\n")
	header := fmt.Sprintf("%-8s %-18s %-14s %-8s %-8s %-11s %-11s %s",
		"Body", "Position", "Nakshatra", "Star", "Sub", "Natal house", "Motion", "Observed")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for _, p := range tr.Positions() {
		natalHouse := "-"
		if m.natal != nil && m.natal.Cusps != nil {
			natalHouse = fmt.Sprintf("%d", kp.HouseOf(p.Longitude, *m.natal.Cusps))
		}
		observed := "-"
		if v, ok := m.snapshot.Observed[p.Body]; ok {
			observed = fmt.Sprintf("%+.3f°/d", v)
		}
		row := fmt.Sprintf("%-8s %-18s %-14s %-8s %-8s %-11s %-11s %s",
			p.Body, report.FormatPosition(p.Location), p.Location.Nakshatra,
			p.Location.StarLord, p.SubLord.Lord, natalHouse, p.Motion, observed)
		if p.Retrograde {
			row = retroStyle.Render(row)
		}
		b.WriteString(rowStyle.Render(row))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderEvents())
	return b.String()
}

func (m TransitsModel) renderEvents() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Recent Events"))
	b.WriteString("\n")

	events := m.snapshot.Events
	if len(events) == 0 {
		b.WriteString(dimStyle.Render("  No events yet"))
		b.WriteString("\n")
		return b.String()
	}

	maxRows := m.height - 16
	if maxRows < 5 {
		maxRows = 5
	}
	// Newest first.
	for i := len(events) - 1; i >= 0 && len(events)-i <= maxRows; i-- {
		e := events[i]
		b.WriteString(fmt.Sprintf("  %s  %-18s %-8s %s → %s\n",
			e.Timestamp.UTC().Format("01-02 15:04"), e.Type, e.Body, e.From, e.To))
	}
	return b.String()
}
