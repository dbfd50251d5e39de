package kp

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/litescript/ls-kp/internal/ephem"
)

// Division identifies a divisional (harmonic) chart by its D-number.
type Division int

const (
	D1  Division = 1  // Rasi
	D9  Division = 9  // Navamsa
	D10 Division = 10 // Dasamsa
)

func (d Division) String() string {
	return fmt.Sprintf("D%d", int(d))
}

// DivisionRule describes how a sign is cut into parts and where the first
// part of a given base sign lands.
type DivisionRule struct {
	Name  string
	Parts int
	// StartOffset returns the sign offset for the first part of base.
	StartOffset func(base Sign) int
}

// builtinDivisions is copied into every DivisionSet and never modified.
var builtinDivisions = map[Division]DivisionRule{
	D1: {
		Name:        "Rasi",
		Parts:       1,
		StartOffset: func(Sign) int { return 0 },
	},
	D9: {
		Name:  "Navamsa",
		Parts: 9,
		StartOffset: func(base Sign) int {
			if base%2 == 0 {
				return 0
			}
			return 8
		},
	},
	D10: {
		Name:  "Dasamsa",
		Parts: 10,
		StartOffset: func(base Sign) int {
			if base%2 == 0 {
				return 8
			}
			return 0
		},
	},
}

// DivisionSet holds the divisional chart rules one engine can compute.
// It starts with D1, D9 and D10 and is safe for concurrent use.
type DivisionSet struct {
	mu    sync.RWMutex
	rules map[Division]DivisionRule
}

// NewDivisionSet returns a set holding the built-in divisions.
func NewDivisionSet() *DivisionSet {
	rules := make(map[Division]DivisionRule, len(builtinDivisions))
	for d, r := range builtinDivisions {
		rules[d] = r
	}
	return &DivisionSet{rules: rules}
}

// Register adds or replaces a divisional chart rule.
func (s *DivisionSet) Register(d Division, rule DivisionRule) error {
	if d < 1 {
		return invalid("division", "D-number must be positive, got %d", int(d))
	}
	if rule.Parts < 1 || rule.StartOffset == nil {
		return invalid("division", "%s rule needs parts and a start offset", d)
	}
	s.mu.Lock()
	s.rules[d] = rule
	s.mu.Unlock()
	return nil
}

// List returns the registered divisions in ascending order.
func (s *DivisionSet) List() []Division {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Division, 0, len(s.rules))
	for d := range s.rules {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Name returns the traditional name of a registered division.
func (s *DivisionSet) Name(d Division) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules[d].Name
}

func (s *DivisionSet) rule(d Division) (DivisionRule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[d]
	return r, ok
}

// Map places a sidereal longitude in division d.
func (s *DivisionSet) Map(lon float64, d Division) (ZodiacLocation, error) {
	rule, ok := s.rule(d)
	if !ok {
		return ZodiacLocation{}, invalid("division", "unsupported division %s", d)
	}
	return mapWithRule(lon, rule), nil
}

// Chart maps every position to division d.
func (s *DivisionSet) Chart(positions []BodyPosition, d Division) (map[ephem.Body]ZodiacLocation, error) {
	out := make(map[ephem.Body]ZodiacLocation, len(positions))
	for _, p := range positions {
		loc, err := s.Map(p.Longitude, d)
		if err != nil {
			return nil, err
		}
		out[p.Body] = loc
	}
	return out, nil
}

// mapWithRule selects a part from the degree within the base sign; the
// part counts forward from the rule's starting sign, and the degree within
// the part is stretched back to a full 30° sign.
func mapWithRule(lon float64, rule DivisionRule) ZodiacLocation {
	base := Locate(lon)
	parts := float64(rule.Parts)

	stretched := base.DegreeInSign * parts
	part := int(math.Floor(stretched / SignSpan))
	if part >= rule.Parts {
		part = rule.Parts - 1
	}
	deg := stretched - float64(part)*SignSpan
	if deg < 0 {
		deg = 0
	} else if deg >= SignSpan {
		deg = math.Nextafter(SignSpan, 0)
	}

	sign := (int(base.Sign) + rule.StartOffset(base.Sign) + part) % 12
	divLon := float64(sign)*SignSpan + deg
	if divLon >= 360 {
		divLon = math.Nextafter(360, 0)
	}
	loc := Locate(divLon)
	loc.Sign = Sign(sign)
	loc.DegreeInSign = deg
	return loc
}
