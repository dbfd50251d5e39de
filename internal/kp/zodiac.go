// Package kp derives a Krishnamurti Paddhati sidereal chart from raw
// tropical ephemeris data: zodiac placement, sub-lords, houses, divisional
// charts, aspects, significators and the Vimshottari dasha sequence.
//
// Everything except Engine.Compute is a pure function of its arguments and
// safe for concurrent use.
package kp

import (
	"fmt"
	"math"
	"strings"

	"github.com/litescript/ls-kp/internal/ephem"
)

const (
	// SignSpan is the width of one zodiac sign.
	SignSpan = 30.0

	// NakshatraSpan is the width of one lunar mansion, 13°20'.
	NakshatraSpan = 360.0 / 27

	// PadaSpan is the width of one nakshatra quarter, 3°20'.
	PadaSpan = NakshatraSpan / 4
)

// Sign is a zodiac sign index, 0 (Aries) to 11 (Pisces).
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

var signLords = [12]ephem.Body{
	ephem.Mars, ephem.Venus, ephem.Mercury, ephem.Moon, ephem.Sun, ephem.Mercury,
	ephem.Venus, ephem.Mars, ephem.Jupiter, ephem.Saturn, ephem.Saturn, ephem.Jupiter,
}

func (s Sign) String() string {
	if s < 0 || s > 11 {
		return "Unknown"
	}
	return signNames[s]
}

// Lord returns the traditional ruler of the sign.
func (s Sign) Lord() ephem.Body {
	return signLords[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Sign) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Sign) UnmarshalText(b []byte) error {
	i, err := lookupName("sign", string(b), signNames[:])
	if err != nil {
		return err
	}
	*s = Sign(i)
	return nil
}

// lookupName finds a display name case-insensitively.
func lookupName(kind, name string, names []string) (int, error) {
	name = strings.TrimSpace(name)
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, name)
}

// Nakshatra is a lunar mansion index, 0 (Ashwini) to 26 (Revati).
type Nakshatra int

var nakshatraNames = [27]string{
	"Ashwini", "Bharani", "Krittika", "Rohini", "Mrigashira", "Ardra",
	"Punarvasu", "Pushya", "Ashlesha", "Magha", "Purva Phalguni", "Uttara Phalguni",
	"Hasta", "Chitra", "Swati", "Vishakha", "Anuradha", "Jyeshtha",
	"Mula", "Purva Ashadha", "Uttara Ashadha", "Shravana", "Dhanishta", "Shatabhisha",
	"Purva Bhadrapada", "Uttara Bhadrapada", "Revati",
}

func (n Nakshatra) String() string {
	if n < 0 || n > 26 {
		return "Unknown"
	}
	return nakshatraNames[n]
}

// Lord returns the Vimshottari star lord; the nine lords repeat three times.
func (n Nakshatra) Lord() ephem.Body {
	return DashaOrder[int(n)%9]
}

// MarshalText implements encoding.TextMarshaler.
func (n Nakshatra) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Nakshatra) UnmarshalText(b []byte) error {
	i, err := lookupName("nakshatra", string(b), nakshatraNames[:])
	if err != nil {
		return err
	}
	*n = Nakshatra(i)
	return nil
}

// ZodiacLocation is where a sidereal longitude falls in the sign and
// nakshatra divisions.
type ZodiacLocation struct {
	Sign         Sign       `json:"sign"`
	DegreeInSign float64    `json:"degree_in_sign"`
	Nakshatra    Nakshatra  `json:"nakshatra"`
	Pada         int        `json:"pada"`
	StarLord     ephem.Body `json:"star_lord"`
}

// SignLord returns the ruler of the location's sign.
func (z ZodiacLocation) SignLord() ephem.Body {
	return z.Sign.Lord()
}

// Locate places a sidereal longitude in [0, 360). Passing an
// unnormalized longitude is a programming error and panics.
func Locate(lon float64) ZodiacLocation {
	checkLongitude("Locate", lon)

	sign := int(math.Floor(lon / SignSpan))
	if sign > 11 {
		violate("Locate", "sign index %d for longitude %v", sign, lon)
	}

	// Multiplied first so a boundary such as 40° maps to quarter 12 exactly.
	quarter := int(math.Floor(lon * 108 / 360))
	nak := quarter / 4
	if nak > 26 {
		violate("Locate", "nakshatra index %d for longitude %v", nak, lon)
	}
	pada := quarter%4 + 1

	return ZodiacLocation{
		Sign:         Sign(sign),
		DegreeInSign: math.Mod(lon, SignSpan),
		Nakshatra:    Nakshatra(nak),
		Pada:         pada,
		StarLord:     Nakshatra(nak).Lord(),
	}
}

func checkLongitude(op string, lon float64) {
	if math.IsNaN(lon) || lon < 0 || lon >= 360 {
		violate(op, "longitude %v outside [0, 360)", lon)
	}
}
