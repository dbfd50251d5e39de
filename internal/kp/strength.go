package kp

import "github.com/litescript/ls-kp/internal/ephem"

// Strength is a simple dignity score for one planet.
type Strength struct {
	Body       ephem.Body `json:"body"`
	Exaltation int        `json:"exaltation"`
	OwnSign    int        `json:"own_sign"`
	Retrograde int        `json:"retrograde"`
	Angular    int        `json:"angular"`
	Total      int        `json:"total"`
	Category   string     `json:"category"`
}

var exaltationSign = map[ephem.Body]Sign{
	ephem.Sun:     Aries,
	ephem.Moon:    Taurus,
	ephem.Mercury: Virgo,
	ephem.Venus:   Pisces,
	ephem.Mars:    Capricorn,
	ephem.Jupiter: Cancer,
	ephem.Saturn:  Libra,
}

// Debilitation is always the sign opposite exaltation.
func debilitationSign(b ephem.Body) (Sign, bool) {
	s, ok := exaltationSign[b]
	return (s + 6) % 12, ok
}

func ownsSign(b ephem.Body, s Sign) bool {
	if b.IsNode() {
		return false
	}
	return s.Lord() == b
}

// PlanetStrength scores a placed body: exaltation +10 or debilitation -10,
// own sign +8, retrograde +3 for true planets, angular house +5.
func PlanetStrength(p BodyPosition) Strength {
	s := Strength{Body: p.Body}
	sign := p.Location.Sign

	if ex, ok := exaltationSign[p.Body]; ok && sign == ex {
		s.Exaltation = 10
	} else if deb, ok := debilitationSign(p.Body); ok && sign == deb {
		s.Exaltation = -10
	}
	if ownsSign(p.Body, sign) {
		s.OwnSign = 8
	}
	if p.Retrograde {
		s.Retrograde = 3
	}
	switch p.House {
	case 1, 4, 7, 10:
		s.Angular = 5
	}

	s.Total = s.Exaltation + s.OwnSign + s.Retrograde + s.Angular
	s.Category = StrengthCategory(s.Total)
	return s
}

// StrengthCategory buckets a total score.
func StrengthCategory(total int) string {
	switch {
	case total >= 15:
		return "Very Strong"
	case total >= 8:
		return "Strong"
	case total >= 0:
		return "Moderate"
	case total >= -5:
		return "Weak"
	default:
		return "Very Weak"
	}
}
