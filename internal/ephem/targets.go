package ephem

import "strings"

// Body names a chart body: the seven classical planets, the lunar nodes and
// the three outer planets.
type Body string

const (
	Sun     Body = "Sun"
	Moon    Body = "Moon"
	Mercury Body = "Mercury"
	Venus   Body = "Venus"
	Mars    Body = "Mars"
	Jupiter Body = "Jupiter"
	Saturn  Body = "Saturn"
	Rahu    Body = "Rahu"
	Ketu    Body = "Ketu"
	Uranus  Body = "Uranus"
	Neptune Body = "Neptune"
	Pluto   Body = "Pluto"
)

// TargetID is a NAIF SPICE ID for a body.
type TargetID int

// NAIF SPICE IDs for the bodies Horizons can resolve.
// Sourced from https://naif.jpl.nasa.gov/pub/naif/toolkit_docs/C/req/naif_ids.html
const (
	NAIFSun     TargetID = 10
	NAIFMoon    TargetID = 301
	NAIFMercury TargetID = 199
	NAIFVenus   TargetID = 299
	NAIFMars    TargetID = 499
	NAIFJupiter TargetID = 599
	NAIFSaturn  TargetID = 699
	NAIFUranus  TargetID = 799
	NAIFNeptune TargetID = 899
	NAIFPluto   TargetID = 999
)

// TargetInfo describes how a body is sourced.
type TargetInfo struct {
	Body    Body
	NAIFID  TargetID // 0 for computed points
	Glyph   string
	Node    bool // lunar node (computed, never a Horizons target)
	Derived bool // computed from another body in the same chart
}

// Targets is the canonical body list in chart display order.
var Targets = []TargetInfo{
	{Body: Sun, NAIFID: NAIFSun, Glyph: "☉"},
	{Body: Moon, NAIFID: NAIFMoon, Glyph: "☽"},
	{Body: Mercury, NAIFID: NAIFMercury, Glyph: "☿"},
	{Body: Venus, NAIFID: NAIFVenus, Glyph: "♀"},
	{Body: Mars, NAIFID: NAIFMars, Glyph: "♂"},
	{Body: Jupiter, NAIFID: NAIFJupiter, Glyph: "♃"},
	{Body: Saturn, NAIFID: NAIFSaturn, Glyph: "♄"},
	{Body: Rahu, Glyph: "☊", Node: true},
	{Body: Ketu, Glyph: "☋", Node: true, Derived: true},
	{Body: Uranus, NAIFID: NAIFUranus, Glyph: "♅"},
	{Body: Neptune, NAIFID: NAIFNeptune, Glyph: "♆"},
	{Body: Pluto, NAIFID: NAIFPluto, Glyph: "♇"},
}

// TargetsByBody indexes Targets by body.
var TargetsByBody = func() map[Body]TargetInfo {
	m := make(map[Body]TargetInfo, len(Targets))
	for _, t := range Targets {
		m[t.Body] = t
	}
	return m
}()

// TargetsByNAIF indexes the Horizons-resolvable bodies by NAIF ID.
var TargetsByNAIF = func() map[TargetID]TargetInfo {
	m := make(map[TargetID]TargetInfo)
	for _, t := range Targets {
		if t.NAIFID != 0 {
			m[t.NAIFID] = t
		}
	}
	return m
}()

// ClassicalBodies are the nine KP lords.
var ClassicalBodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Rahu, Ketu}

// OuterBodies are the trans-Saturnian planets.
var OuterBodies = []Body{Uranus, Neptune, Pluto}

// AllBodies returns every known body in display order.
func AllBodies() []Body {
	out := make([]Body, 0, len(Targets))
	for _, t := range Targets {
		out = append(out, t.Body)
	}
	return out
}

// IsLuminary reports whether b is the Sun or the Moon.
func (b Body) IsLuminary() bool {
	return b == Sun || b == Moon
}

// IsNode reports whether b is Rahu or Ketu.
func (b Body) IsNode() bool {
	return b == Rahu || b == Ketu
}

// Known reports whether b is in the body table.
func (b Body) Known() bool {
	_, ok := TargetsByBody[b]
	return ok
}

// Glyph returns the astronomical symbol for b, or its initial if unknown.
func (b Body) Glyph() string {
	if t, ok := TargetsByBody[b]; ok {
		return t.Glyph
	}
	if b == "" {
		return "?"
	}
	return string(b[:1])
}

// ParseBody resolves a case-insensitive body name. The node aliases
// "north node" and "south node" are accepted.
func ParseBody(name string) (Body, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "north node", "true node", "mean node":
		return Rahu, true
	case "south node":
		return Ketu, true
	}
	for _, t := range Targets {
		if strings.ToLower(string(t.Body)) == n {
			return t.Body, true
		}
	}
	return "", false
}

// GetTargetByNAIF returns target info for a NAIF ID.
func GetTargetByNAIF(id TargetID) (TargetInfo, bool) {
	t, ok := TargetsByNAIF[id]
	return t, ok
}
