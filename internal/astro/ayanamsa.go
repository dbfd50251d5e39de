package astro

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Ayanamsa is the offset between the tropical and sidereal zodiacs.
// The value is supplied by the caller; nothing here derives it from a date.
type Ayanamsa struct {
	Name    string
	Degrees float64
}

// Built-in ayanamsa presets.
var (
	// KPNewcomb is the KP-Newcomb value, 23°43'04".
	KPNewcomb = Ayanamsa{Name: "kp-newcomb", Degrees: 23 + 43.0/60 + 4.0/3600}

	// KPReference is the 23°43'07" variant used by some KP reference software.
	KPReference = Ayanamsa{Name: "kp-reference", Degrees: 23 + 43.0/60 + 7.0/3600}

	// Tropical applies no offset.
	Tropical = Ayanamsa{Name: "tropical"}
)

var ayanamsaPresets = map[string]Ayanamsa{
	KPNewcomb.Name:   KPNewcomb,
	KPReference.Name: KPReference,
	Tropical.Name:    Tropical,
}

// ToSidereal converts a tropical longitude to sidereal. The result is
// always in [0, 360), including when the tropical value is below the offset.
func (a Ayanamsa) ToSidereal(tropical float64) float64 {
	return Normalize(tropical - a.Degrees)
}

// ToTropical is the inverse of ToSidereal.
func (a Ayanamsa) ToTropical(sidereal float64) float64 {
	return Normalize(sidereal + a.Degrees)
}

func (a Ayanamsa) String() string {
	if a.Name != "" {
		return a.Name
	}
	return strconv.FormatFloat(a.Degrees, 'f', 6, 64)
}

// Validate checks the offset is a finite angle within a plausible range.
func (a Ayanamsa) Validate() error {
	if math.IsNaN(a.Degrees) || math.IsInf(a.Degrees, 0) {
		return fmt.Errorf("ayanamsa must be finite")
	}
	if a.Degrees < 0 || a.Degrees >= 360 {
		return fmt.Errorf("ayanamsa must be in [0, 360), got %v", a.Degrees)
	}
	return nil
}

// ParseAyanamsa accepts a preset name or a decimal number of degrees.
func ParseAyanamsa(s string) (Ayanamsa, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return KPNewcomb, nil
	}
	if a, ok := ayanamsaPresets[s]; ok {
		return a, nil
	}

	deg, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Ayanamsa{}, fmt.Errorf("unknown ayanamsa %q (want one of %s or degrees)", s, strings.Join(AyanamsaNames(), ", "))
	}
	a := Ayanamsa{Degrees: deg}
	if err := a.Validate(); err != nil {
		return Ayanamsa{}, err
	}
	return a, nil
}

// AyanamsaNames lists the preset names in sorted order.
func AyanamsaNames() []string {
	names := make([]string, 0, len(ayanamsaPresets))
	for name := range ayanamsaPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
