// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-kp/internal/kp"
	"github.com/litescript/ls-kp/internal/state"
	"github.com/litescript/ls-kp/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewPlanets ViewMode = iota
	ViewHouses
	ViewDasha
	ViewAspects
	ViewTransits
)

const viewCount = 5

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic UI updates.
	TickMsg time.Time

	// AnimTickMsg triggers fast animation updates.
	AnimTickMsg time.Time

	// DataUpdateMsg signals a new transit snapshot is available.
	DataUpdateMsg struct {
		Snapshot state.Snapshot
	}

	// ErrorMsg signals a fetch error.
	ErrorMsg struct {
		Error error
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	natal *kp.Chart
	state *state.Manager // nil when transits are not watched
	now   func() time.Time

	viewMode ViewMode
	width    int
	height   int
	ready    bool
	animTick int
	lastErr  error

	planets  PlanetsModel
	houses   HousesModel
	dasha    DashaModel
	aspects  AspectsModel
	transits TransitsModel

	snapshot state.Snapshot
}

// New creates a new root UI model for a natal chart. stateMgr may be nil.
func New(natal *kp.Chart, stateMgr *state.Manager) Model {
	now := time.Now()
	return Model{
		natal:    natal,
		state:    stateMgr,
		now:      time.Now,
		viewMode: ViewPlanets,
		planets:  NewPlanetsModel(natal),
		houses:   NewHousesModel(natal),
		dasha:    NewDashaModel(natal, now),
		aspects:  NewAspectsModel(natal),
		transits: NewTransitsModel(natal),
	}
}

// ActiveView returns the view currently shown.
func (m Model) ActiveView() ViewMode {
	return m.viewMode
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), animTickCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1", "p":
			m.viewMode = ViewPlanets
		case "2", "h":
			m.viewMode = ViewHouses
		case "3", "d":
			m.viewMode = ViewDasha
		case "4", "a":
			m.viewMode = ViewAspects
		case "5", "t":
			m.viewMode = ViewTransits
		case "tab":
			m.viewMode = (m.viewMode + 1) % viewCount
		case "shift+tab":
			m.viewMode = (m.viewMode + viewCount - 1) % viewCount
		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Logo ~10 lines, tabs and footer ~4.
		contentHeight := msg.Height - 14
		m.planets = m.planets.SetSize(msg.Width, contentHeight)
		m.houses = m.houses.SetSize(msg.Width, contentHeight)
		m.dasha = m.dasha.SetSize(msg.Width, contentHeight)
		m.aspects = m.aspects.SetSize(msg.Width, contentHeight)
		m.transits = m.transits.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		m.dasha = m.dasha.SetNow(time.Time(msg))
		if m.state != nil {
			m.snapshot = m.state.Snapshot()
			m.transits = m.transits.UpdateData(m.snapshot)
		}

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	case DataUpdateMsg:
		m.snapshot = msg.Snapshot
		m.lastErr = nil
		m.transits = m.transits.UpdateData(m.snapshot)

	case ErrorMsg:
		m.lastErr = msg.Error

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewPlanets:
		m.planets, cmd = m.planets.Update(msg)
	case ViewHouses:
		m.houses, cmd = m.houses.Update(msg)
	case ViewDasha:
		m.dasha, cmd = m.dasha.Update(msg)
	case ViewAspects:
		m.aspects, cmd = m.aspects.Update(msg)
	case ViewTransits:
		m.transits, cmd = m.transits.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewPlanets:
		content = m.planets.View()
	case ViewHouses:
		content = m.houses.View()
	case ViewDasha:
		content = m.dasha.View()
	case ViewAspects:
		content = m.aspects.View()
	case ViewTransits:
		content = m.transits.View()
	}

	return m.renderLogo() + m.renderTabs() + "\n\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderLogo() string {
	logo := []string{
		`  ██╗     ███████╗      ██╗  ██╗██████╗ `,
		`  ██║     ██╔════╝      ██║ ██╔╝██╔══██╗`,
		`  ██║     ███████╗█████╗█████╔╝ ██████╔╝`,
		`  ██║     ╚════██║╚════╝██╔═██╗ ██╔═══╝ `,
		`  ███████╗███████║      ██║  ██╗██║     `,
		`  ╚══════╝╚══════╝      ╚═╝  ╚═╝╚═╝     `,
	}

	var b strings.Builder
	b.WriteString("\n")
	for row, line := range logo {
		runes := []rune(line)
		for col, r := range runes {
			color := gradientColor(col, row, len(runes), len(logo))
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(r)))
		}
		b.WriteString("\n")
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf("  %s · %s · v%s", m.chartLabel(), m.natalTime(), version.Version)))
	b.WriteString("\n\n")
	return b.String()
}

func (m Model) chartLabel() string {
	if m.natal == nil {
		return "Krishnamurti Paddhati"
	}
	name := m.natal.Name
	if name == "" {
		name = "Chart"
	}
	return fmt.Sprintf("%s · %s · %s", name, m.natal.Ayanamsa, m.natal.HouseSystem)
}

func (m Model) natalTime() string {
	if m.natal == nil {
		return "-"
	}
	return m.natal.Time.UTC().Format("2006-01-02 15:04 MST")
}

// gradientColor blends blue, violet and pink across the logo, dimming
// toward the bottom rows.
func gradientColor(col, row, width, height int) string {
	xRatio := float64(col) / float64(width)
	yRatio := float64(row) / float64(height)

	var r, g, b float64
	switch {
	case xRatio < 0.33:
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	case xRatio < 0.66:
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	default:
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	f := 1.0 - yRatio*0.5
	return fmt.Sprintf("#%02X%02X%02X", clampByte(r*f), clampByte(g*f), clampByte(b*f))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return int(v)
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Planets", "[2] Houses", "[3] Dasha", "[4] Aspects", "[5] Transits"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	switch {
	case m.lastErr != nil:
		status = errorStyle.Render("ERROR: " + m.lastErr.Error())
	case m.state == nil:
		status = dimStyle.Render("transits off")
	case m.snapshot.LastError != nil:
		status = errorStyle.Render("ERROR: " + m.snapshot.LastError.Error())
	case !m.snapshot.LastFetch.IsZero():
		countdown := m.snapshot.NextRefresh.Sub(m.now()).Round(time.Second)
		if countdown < 0 {
			countdown = 0
		}
		status = accentStyle.Render(spinner) + dimStyle.Render(fmt.Sprintf(" refresh in %ds", int(countdown.Seconds())))
		if m.snapshot.FetchDuration > 0 {
			status += dimStyle.Render(" (" + m.snapshot.FetchDuration.Round(time.Millisecond).String() + ")")
		}
	default:
		status = accentStyle.Render(spinner) + " " + m.renderShimmerText("Waiting for transits...")
	}

	var help string
	switch m.viewMode {
	case ViewDasha:
		help = "↑↓: period | enter: antardashas"
	case ViewAspects:
		help = "v: next division"
	case ViewTransits:
		help = "tab: switch view"
	default:
		help = "↑↓: navigate | tab: switch view"
	}

	return "  " + status + "  " + dimStyle.Render("|") + "  " + dimStyle.Render(help+" | q: quit")
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// SendDataUpdate wraps a snapshot as a message for Program.Send.
func SendDataUpdate(snapshot state.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return DataUpdateMsg{Snapshot: snapshot}
	}
}

// SendError wraps a fetch error as a message.
func SendError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Error: err}
	}
}

func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	pos := m.animTick % (len(runes) + 8)

	var result strings.Builder
	for i, r := range runes {
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}

		var r8, g8, b8 int
		switch {
		case dist <= 1:
			r8, g8, b8 = 180, 160, 220
		case dist <= 3:
			r8, g8, b8 = 140, 120, 180
		case dist <= 5:
			r8, g8, b8 = 110, 90, 150
		default:
			r8, g8, b8 = 80, 70, 120
		}

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)))
		result.WriteString(style.Render(string(r)))
	}
	return result.String()
}
