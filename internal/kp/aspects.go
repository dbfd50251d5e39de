package kp

import (
	"math"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/ephem"
)

// AspectType is one of the five major Ptolemaic aspects.
type AspectType int

const (
	Conjunction AspectType = iota
	Opposition
	Trine
	Square
	Sextile
)

type aspectDef struct {
	name  string
	angle float64
	orb   float64
}

var aspectDefs = [...]aspectDef{
	Conjunction: {"Conjunction", 0, 8},
	Opposition:  {"Opposition", 180, 8},
	Trine:       {"Trine", 120, 6},
	Square:      {"Square", 90, 6},
	Sextile:     {"Sextile", 60, 4},
}

func (a AspectType) String() string {
	if a < 0 || int(a) >= len(aspectDefs) {
		return "Unknown"
	}
	return aspectDefs[a].name
}

// Angle returns the exact separation that defines the aspect.
func (a AspectType) Angle() float64 { return aspectDefs[a].angle }

// MaxOrb returns the largest allowed deviation from the exact angle.
func (a AspectType) MaxOrb() float64 { return aspectDefs[a].orb }

// MarshalText implements encoding.TextMarshaler.
func (a AspectType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AspectType) UnmarshalText(b []byte) error {
	names := make([]string, len(aspectDefs))
	for i, d := range aspectDefs {
		names[i] = d.name
	}
	i, err := lookupName("aspect", string(b), names)
	if err != nil {
		return err
	}
	*a = AspectType(i)
	return nil
}

// Aspect is a detected angular relationship between two bodies.
type Aspect struct {
	A     ephem.Body `json:"a"`
	B     ephem.Body `json:"b"`
	Type  AspectType `json:"type"`
	Angle float64    `json:"angle"` // measured separation
	Orb   float64    `json:"orb"`   // deviation from exact
	// Applying is true when the measured separation is still short of the
	// exact angle. It ignores speeds, so it never holds for a conjunction.
	Applying bool `json:"applying"`
}

// DetectAspects checks every unordered pair of positions once, in input
// order, against each aspect type.
func DetectAspects(positions []BodyPosition) []Aspect {
	var out []Aspect
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			a, b := positions[i], positions[j]
			sep := astro.AngularSeparation(a.Longitude, b.Longitude)
			for t := range aspectDefs {
				def := aspectDefs[t]
				orb := math.Abs(sep - def.angle)
				if orb > def.orb {
					continue
				}
				out = append(out, Aspect{
					A:        a.Body,
					B:        b.Body,
					Type:     AspectType(t),
					Angle:    sep,
					Orb:      orb,
					Applying: sep < def.angle,
				})
			}
		}
	}
	return out
}

// AspectsOf filters aspects involving body.
func AspectsOf(aspects []Aspect, body ephem.Body) []Aspect {
	var out []Aspect
	for _, a := range aspects {
		if a.A == body || a.B == body {
			out = append(out, a)
		}
	}
	return out
}
