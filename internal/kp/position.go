package kp

import (
	"math"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/ephem"
)

// StationaryThreshold is the daily speed, in degrees, below which a
// planet is considered stationary.
const StationaryThreshold = 0.01

// Motion classifies apparent daily motion.
type Motion int

const (
	MotionNA Motion = iota // luminaries and nodes
	MotionDirect
	MotionRetrograde
	MotionStationary
)

func (m Motion) String() string {
	switch m {
	case MotionDirect:
		return "Direct"
	case MotionRetrograde:
		return "Retrograde"
	case MotionStationary:
		return "Stationary"
	default:
		return "N/A"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Motion) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Motion) UnmarshalText(b []byte) error {
	names := []string{MotionNA.String(), MotionDirect.String(), MotionRetrograde.String(), MotionStationary.String()}
	i, err := lookupName("motion", string(b), names)
	if err != nil {
		return err
	}
	*m = Motion(i)
	return nil
}

// motionOf returns the motion class for a body. The Sun and Moon never
// retrograde and the nodes always do, so none of them are classified.
func motionOf(body ephem.Body, speed float64) Motion {
	if body.IsLuminary() || body.IsNode() {
		return MotionNA
	}
	switch {
	case math.Abs(speed) <= StationaryThreshold:
		return MotionStationary
	case speed < 0:
		return MotionRetrograde
	default:
		return MotionDirect
	}
}

// BodyPosition is a body's sidereal placement with its KP annotations.
type BodyPosition struct {
	Body       ephem.Body     `json:"body"`
	Longitude  float64        `json:"longitude"` // sidereal, [0, 360)
	Latitude   float64        `json:"latitude"`
	DistanceAU float64        `json:"distance_au"`
	Speed      float64        `json:"speed"` // degrees per day
	Location   ZodiacLocation `json:"location"`
	SubLord    SubLordResult  `json:"sub_lord"`
	SubSub     SubLordResult  `json:"sub_sub_lord"`
	House      int            `json:"house,omitempty"` // 0 when houses are unavailable
	Retrograde bool           `json:"retrograde"`
	Motion     Motion         `json:"motion"`
}

// NewBodyPosition converts a raw tropical position to sidereal and
// annotates it. House assignment happens later, once cusps are known.
func NewBodyPosition(raw ephem.RawPosition, ayanamsa astro.Ayanamsa) BodyPosition {
	return annotate(BodyPosition{
		Body:       raw.Body,
		Longitude:  ayanamsa.ToSidereal(raw.Longitude),
		Latitude:   raw.Latitude,
		DistanceAU: raw.DistanceAU,
		Speed:      raw.Speed,
	})
}

// DeriveKetu returns the south node exactly opposite the given Rahu.
func DeriveKetu(rahu BodyPosition) BodyPosition {
	return annotate(BodyPosition{
		Body:       ephem.Ketu,
		Longitude:  astro.Normalize(rahu.Longitude + 180),
		DistanceAU: rahu.DistanceAU,
		Speed:      -rahu.Speed,
	})
}

func annotate(p BodyPosition) BodyPosition {
	p.Location = Locate(p.Longitude)
	p.SubLord = SubLordOf(p.Longitude)
	p.SubSub = SubSubLordOf(p.Longitude)
	p.Motion = motionOf(p.Body, p.Speed)
	p.Retrograde = p.Motion != MotionNA && p.Speed < 0
	return p
}
