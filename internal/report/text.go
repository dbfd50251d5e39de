package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/kp"
)

const ruleWidth = 96

// TextOptions controls the text report.
type TextOptions struct {
	Color       bool // style headings and markers for a terminal
	Antardashas bool // list sub-periods of the running mahadasha
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headStyle    = lipgloss.NewStyle().Bold(true)
	retroStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type textWriter struct {
	w     io.Writer
	color bool
}

func (t textWriter) style(s lipgloss.Style, text string) string {
	if !t.color {
		return text
	}
	return s.Render(text)
}

func (t textWriter) section(title string) {
	fmt.Fprintln(t.w)
	fmt.Fprintln(t.w, t.style(titleStyle, title))
	fmt.Fprintln(t.w, strings.Repeat("─", ruleWidth))
}

// WriteChartReport writes every chart section as text tables.
func WriteChartReport(w io.Writer, c *kp.Chart, now time.Time, opts TextOptions) {
	t := textWriter{w: w, color: opts.Color}

	name := c.Name
	if name == "" {
		name = "Chart"
	}
	fmt.Fprintf(w, "%s @ %s\n", t.style(titleStyle, name), c.Time.Format(time.RFC3339))
	fmt.Fprintf(w, "Lat %.4f  Lon %.4f  %s\n", c.Observer.LatDeg, c.Observer.LonDeg, c.Observer.Name)
	fmt.Fprintf(w, "Ayanamsa %s (%s)  Houses %s  Source %s\n",
		c.Ayanamsa, FormatDMS(c.Ayanamsa.Degrees), c.HouseSystem, c.Provider)

	writePlanets(t, c)
	writeCusps(t, c)
	writeSignificators(t, c)
	writeAspects(t, c)
	writeVargas(t, c)
	writeDashas(t, c, now, opts.Antardashas)
}

func writePlanets(t textWriter, c *kp.Chart) {
	t.section("Planets")
	fmt.Fprintf(t.w, "%-8s %-22s %-18s %-4s %-8s %-8s %-8s %-8s %-5s %-10s\n",
		"Body", "Position", "Nakshatra", "Pada", "SignLd", "StarLd", "SubLd", "SubSub", "House", "Motion")
	fmt.Fprintln(t.w, strings.Repeat("─", ruleWidth))

	for _, r := range c.Bodies {
		if !r.OK() {
			fmt.Fprintf(t.w, "%-8s %s\n", r.Body, t.style(errStyle, "unavailable: "+errString(r.Err)))
			continue
		}
		p := r.Position
		house := "-"
		if p.House > 0 {
			house = fmt.Sprintf("%d", p.House)
		}
		motion := p.Motion.String()
		if p.Retrograde {
			motion = t.style(retroStyle, motion+" (R)")
		}
		fmt.Fprintf(t.w, "%-8s %-22s %-18s %-4d %-8s %-8s %-8s %-8s %-5s %s\n",
			p.Body,
			FormatPosition(p.Location),
			truncateStr(p.Location.Nakshatra.String(), 18),
			p.Location.Pada,
			p.Location.SignLord(),
			p.Location.StarLord,
			p.SubLord.Lord,
			p.SubSub.Lord,
			house,
			motion,
		)
	}
}

func writeCusps(t textWriter, c *kp.Chart) {
	t.section("House Cusps")
	if c.Cusps == nil {
		fmt.Fprintln(t.w, t.style(errStyle, "unavailable: "+errString(c.HousesErr)))
		return
	}
	if c.Ascendant != nil && c.Midheaven != nil {
		fmt.Fprintf(t.w, "Ascendant %s (sub %s)  Midheaven %s (sub %s)\n",
			FormatPosition(c.Ascendant.Location), c.Ascendant.SubLord.Lord,
			FormatPosition(c.Midheaven.Location), c.Midheaven.SubLord.Lord)
	}
	fmt.Fprintf(t.w, "%-5s %-22s %-18s %-8s %-8s %-8s %s\n",
		"House", "Cusp", "Nakshatra", "SignLd", "StarLd", "SubLd", "Meaning")
	fmt.Fprintln(t.w, strings.Repeat("─", ruleWidth))
	for _, h := range c.Cusps {
		fmt.Fprintf(t.w, "%-5d %-22s %-18s %-8s %-8s %-8s %s\n",
			h.House,
			FormatPosition(h.Location),
			truncateStr(h.Location.Nakshatra.String(), 18),
			h.Location.SignLord(),
			h.Location.StarLord,
			h.SubLord.Lord,
			truncateStr(h.Meaning, 30),
		)
	}
}

func writeSignificators(t textWriter, c *kp.Chart) {
	if c.Significators == nil {
		return
	}
	t.section("Significators")
	fmt.Fprintf(t.w, "%-5s %-26s %-26s %s\n", "House", "Occupants", "Star lords", "Sign/Sub lord")
	fmt.Fprintln(t.w, strings.Repeat("─", ruleWidth))
	for _, s := range c.Significators {
		fmt.Fprintf(t.w, "%-5d %-26s %-26s %s\n",
			s.House, joinBodies(s.Occupants), joinBodies(s.StarLords), joinBodies(s.Weak))
	}
}

func writeAspects(t textWriter, c *kp.Chart) {
	t.section("Aspects")
	if len(c.Aspects) == 0 {
		fmt.Fprintln(t.w, "No major aspects")
		return
	}
	for _, a := range c.Aspects {
		state := "separating"
		if a.Applying {
			state = "applying"
		}
		fmt.Fprintf(t.w, "%-8s %-12s %-8s orb %5.2f°  %s\n", a.A, a.Type, a.B, a.Orb, state)
	}
}

func writeVargas(t textWriter, c *kp.Chart) {
	if len(c.Vargas) == 0 {
		return
	}
	t.section("Divisional Charts")
	divisions := make([]kp.Division, 0, len(c.Vargas))
	for d := range c.Vargas {
		divisions = append(divisions, d)
	}
	sort.Slice(divisions, func(i, j int) bool { return divisions[i] < divisions[j] })

	header := fmt.Sprintf("%-8s", "Body")
	for _, d := range divisions {
		header += fmt.Sprintf(" %-14s", strings.TrimSpace(fmt.Sprintf("%s %s", d, c.VargaNames[d])))
	}
	fmt.Fprintln(t.w, t.style(headStyle, header))
	for _, r := range c.Bodies {
		if !r.OK() {
			continue
		}
		line := fmt.Sprintf("%-8s", r.Body)
		for _, d := range divisions {
			line += fmt.Sprintf(" %-14s", c.Vargas[d][r.Body].Sign)
		}
		fmt.Fprintln(t.w, line)
	}
}

func writeDashas(t textWriter, c *kp.Chart, now time.Time, antardashas bool) {
	t.section("Vimshottari Dasha")
	if c.DashaErr != nil {
		fmt.Fprintln(t.w, t.style(errStyle, "unavailable: "+c.DashaErr.Error()))
		return
	}
	WriteDashaTable(t.w, c.Dashas, now, t.color)

	cur, ok := kp.CurrentPeriod(c.Dashas, now)
	if !ok {
		return
	}
	fmt.Fprintf(t.w, "\n%s period: %s\n", cur.Lord, kp.DashaEffects(cur.Lord))
	if antardashas {
		fmt.Fprintf(t.w, "\n%s antardashas\n", cur.Lord)
		WriteDashaTable(t.w, kp.Antardashas(cur), now, t.color)
	}
}

// WriteDashaTable lists periods with their status at now.
func WriteDashaTable(w io.Writer, periods []kp.DashaPeriod, now time.Time, color bool) {
	t := textWriter{w: w, color: color}
	fmt.Fprintf(w, "%-8s %-10s %-10s %-12s %s\n", "Lord", "Start", "End", "Length", "Status")
	for _, p := range periods {
		status := string(p.Status(now))
		if p.BirthRemainder {
			status += " (balance)"
		}
		if p.Status(now) == kp.StatusCurrent {
			status = t.style(currentStyle, status)
		}
		fmt.Fprintf(w, "%-8s %-10s %-10s %-12s %s\n",
			p.Lord, FormatDate(p.Start), FormatDate(p.End), FormatYears(p.Years()), status)
	}
}

func joinBodies(list []ephem.Body) string {
	if len(list) == 0 {
		return "-"
	}
	parts := make([]string, len(list))
	for i, b := range list {
		parts[i] = string(b)
	}
	return strings.Join(parts, ", ")
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
