package report

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/kp"
)

// ChartExport is the JSON-serializable representation of a chart.
type ChartExport struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	Time        time.Time         `json:"time"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Place       string            `json:"place,omitempty"`
	Ayanamsa    AyanamsaExport    `json:"ayanamsa"`
	HouseSystem ephem.HouseSystem `json:"house_system"`
	Provider    string            `json:"provider"`

	Bodies        []BodyExport         `json:"bodies"`
	Ascendant     *PointExport         `json:"ascendant,omitempty"`
	Midheaven     *PointExport         `json:"midheaven,omitempty"`
	Cusps         []CuspExport         `json:"cusps,omitempty"`
	HousesError   string               `json:"houses_error,omitempty"`
	Significators []kp.Significators   `json:"significators,omitempty"`
	Aspects       []kp.Aspect          `json:"aspects"`
	Strengths     []kp.Strength        `json:"strengths"`
	Vargas        map[string]VargaList `json:"vargas"`
	Dashas        []DashaExport        `json:"dashas,omitempty"`
	DashaError    string               `json:"dasha_error,omitempty"`
}

// AyanamsaExport names the zodiac offset used.
type AyanamsaExport struct {
	Name    string  `json:"name"`
	Degrees float64 `json:"degrees"`
	DMS     string  `json:"dms"`
}

// BodyExport is one body row. Error is set instead of the position fields
// when the provider failed for this body.
type BodyExport struct {
	Body         ephem.Body `json:"body"`
	Longitude    float64    `json:"longitude"`
	Tropical     float64    `json:"tropical_longitude"`
	DMS          string     `json:"dms,omitempty"`
	Sign         string     `json:"sign,omitempty"`
	DegreeInSign float64    `json:"degree_in_sign"`
	Nakshatra    string     `json:"nakshatra,omitempty"`
	Pada         int        `json:"pada,omitempty"`
	SignLord     ephem.Body `json:"sign_lord,omitempty"`
	StarLord     ephem.Body `json:"star_lord,omitempty"`
	SubLord      ephem.Body `json:"sub_lord,omitempty"`
	SubSubLord   ephem.Body `json:"sub_sub_lord,omitempty"`
	House        int        `json:"house,omitempty"`
	Speed        float64    `json:"speed"`
	Retrograde   bool       `json:"retrograde"`
	Motion       kp.Motion  `json:"motion"`
	Error        string     `json:"error,omitempty"`
}

// PointExport is the Ascendant or Midheaven.
type PointExport struct {
	Longitude float64    `json:"longitude"`
	Position  string     `json:"position"`
	Nakshatra string     `json:"nakshatra"`
	StarLord  ephem.Body `json:"star_lord"`
	SubLord   ephem.Body `json:"sub_lord"`
}

// CuspExport is one house cusp.
type CuspExport struct {
	House      int        `json:"house"`
	Longitude  float64    `json:"longitude"`
	Position   string     `json:"position"`
	Nakshatra  string     `json:"nakshatra"`
	SignLord   ephem.Body `json:"sign_lord"`
	StarLord   ephem.Body `json:"star_lord"`
	SubLord    ephem.Body `json:"sub_lord"`
	SubSubLord ephem.Body `json:"sub_sub_lord"`
	Meaning    string     `json:"meaning"`
}

// VargaEntry is one body's placement in a divisional chart.
type VargaEntry struct {
	Body         ephem.Body `json:"body"`
	Sign         string     `json:"sign"`
	DegreeInSign float64    `json:"degree_in_sign"`
}

// VargaList is a divisional chart ordered like the chart bodies.
type VargaList []VargaEntry

// DashaExport is one dasha period with its status relative to a reference
// instant.
type DashaExport struct {
	Lord           ephem.Body     `json:"lord"`
	Parent         ephem.Body     `json:"parent,omitempty"`
	Level          string         `json:"level"`
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	Years          float64        `json:"years"`
	Length         string         `json:"length"`
	Status         kp.DashaStatus `json:"status"`
	BirthRemainder bool           `json:"birth_remainder,omitempty"`
	Effects        string         `json:"effects,omitempty"`
	Antardashas    []DashaExport  `json:"antardashas,omitempty"`
}

// ExportChart converts a chart to its exportable form. Dasha status is
// evaluated at now.
func ExportChart(c *kp.Chart, now time.Time) *ChartExport {
	export := &ChartExport{
		ID:          c.ID,
		Name:        c.Name,
		Time:        c.Time,
		Latitude:    c.Observer.LatDeg,
		Longitude:   c.Observer.LonDeg,
		Place:       c.Observer.Name,
		HouseSystem: c.HouseSystem,
		Provider:    c.Provider,
		Ayanamsa: AyanamsaExport{
			Name:    c.Ayanamsa.String(),
			Degrees: c.Ayanamsa.Degrees,
			DMS:     FormatDMS(c.Ayanamsa.Degrees),
		},
		Aspects:   c.Aspects,
		Strengths: c.Strengths,
		Vargas:    make(map[string]VargaList, len(c.Vargas)),
	}
	if export.Aspects == nil {
		export.Aspects = []kp.Aspect{}
	}
	if export.Strengths == nil {
		export.Strengths = []kp.Strength{}
	}

	for _, r := range c.Bodies {
		export.Bodies = append(export.Bodies, exportBody(r, c.Ayanamsa))
	}

	if c.Cusps != nil {
		for _, h := range c.Cusps {
			export.Cusps = append(export.Cusps, CuspExport{
				House:      h.House,
				Longitude:  h.Longitude,
				Position:   FormatPosition(h.Location),
				Nakshatra:  h.Location.Nakshatra.String(),
				SignLord:   h.Location.SignLord(),
				StarLord:   h.Location.StarLord,
				SubLord:    h.SubLord.Lord,
				SubSubLord: h.SubSub.Lord,
				Meaning:    h.Meaning,
			})
		}
	}
	export.Ascendant = exportPoint(c.Ascendant)
	export.Midheaven = exportPoint(c.Midheaven)
	if c.HousesErr != nil {
		export.HousesError = c.HousesErr.Error()
	}
	if c.Significators != nil {
		export.Significators = c.Significators[:]
	}

	divisions := make([]kp.Division, 0, len(c.Vargas))
	for d := range c.Vargas {
		divisions = append(divisions, d)
	}
	sort.Slice(divisions, func(i, j int) bool { return divisions[i] < divisions[j] })
	for _, d := range divisions {
		var list VargaList
		for _, r := range c.Bodies {
			if loc, ok := c.Vargas[d][r.Body]; ok {
				list = append(list, VargaEntry{Body: r.Body, Sign: loc.Sign.String(), DegreeInSign: loc.DegreeInSign})
			}
		}
		export.Vargas[d.String()] = list
	}

	export.Dashas = ExportDashas(c.Dashas, now, true)
	if c.DashaErr != nil {
		export.DashaError = c.DashaErr.Error()
	}
	return export
}

func exportBody(r kp.BodyResult, a astro.Ayanamsa) BodyExport {
	if !r.OK() {
		out := BodyExport{Body: r.Body}
		if r.Err != nil {
			out.Error = r.Err.Error()
		}
		return out
	}
	p := r.Position
	return BodyExport{
		Body:         p.Body,
		Longitude:    p.Longitude,
		Tropical:     a.ToTropical(p.Longitude),
		DMS:          FormatDMS(p.Longitude),
		Sign:         p.Location.Sign.String(),
		DegreeInSign: p.Location.DegreeInSign,
		Nakshatra:    p.Location.Nakshatra.String(),
		Pada:         p.Location.Pada,
		SignLord:     p.Location.SignLord(),
		StarLord:     p.Location.StarLord,
		SubLord:      p.SubLord.Lord,
		SubSubLord:   p.SubSub.Lord,
		House:        p.House,
		Speed:        p.Speed,
		Retrograde:   p.Retrograde,
		Motion:       p.Motion,
	}
}

func exportPoint(p *kp.SpecialPoint) *PointExport {
	if p == nil {
		return nil
	}
	return &PointExport{
		Longitude: p.Longitude,
		Position:  FormatPosition(p.Location),
		Nakshatra: p.Location.Nakshatra.String(),
		StarLord:  p.Location.StarLord,
		SubLord:   p.SubLord.Lord,
	}
}

// ExportDashas converts periods with their status at now. When
// withAntardashas is set, each mahadasha carries its sub-periods.
func ExportDashas(periods []kp.DashaPeriod, now time.Time, withAntardashas bool) []DashaExport {
	if len(periods) == 0 {
		return nil
	}
	out := make([]DashaExport, 0, len(periods))
	for _, p := range periods {
		e := exportPeriod(p, now)
		if p.Level == kp.Mahadasha {
			e.Effects = kp.DashaEffects(p.Lord)
		}
		if withAntardashas && p.Level == kp.Mahadasha {
			for _, sub := range kp.Antardashas(p) {
				e.Antardashas = append(e.Antardashas, exportPeriod(sub, now))
			}
		}
		out = append(out, e)
	}
	return out
}

func exportPeriod(p kp.DashaPeriod, now time.Time) DashaExport {
	return DashaExport{
		Lord:           p.Lord,
		Parent:         p.Parent,
		Level:          p.Level.String(),
		Start:          p.Start,
		End:            p.End,
		Years:          p.Years(),
		Length:         FormatYears(p.Years()),
		Status:         p.Status(now),
		BirthRemainder: p.BirthRemainder,
	}
}

// WriteJSON writes the chart as indented JSON to the given writer.
func (c *ChartExport) WriteJSON(w io.Writer) error {
	return WriteJSON(w, c)
}

// WriteJSON writes any value as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
