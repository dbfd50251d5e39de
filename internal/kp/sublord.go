package kp

import "github.com/litescript/ls-kp/internal/ephem"

// CycleYears is the length of the Vimshottari cycle and the number of
// units the zodiac is divided into for sub-lords.
const CycleYears = 120.0

// DashaOrder is the fixed Vimshottari lord sequence.
var DashaOrder = [9]ephem.Body{
	ephem.Ketu, ephem.Venus, ephem.Sun, ephem.Moon, ephem.Mars,
	ephem.Rahu, ephem.Jupiter, ephem.Saturn, ephem.Mercury,
}

var dashaYears = map[ephem.Body]float64{
	ephem.Ketu:    7,
	ephem.Venus:   20,
	ephem.Sun:     6,
	ephem.Moon:    10,
	ephem.Mars:    7,
	ephem.Rahu:    18,
	ephem.Jupiter: 16,
	ephem.Saturn:  19,
	ephem.Mercury: 17,
}

// DashaYears returns a lord's Vimshottari weight, or 0 for a body that is
// not one of the nine lords.
func DashaYears(lord ephem.Body) float64 {
	return dashaYears[lord]
}

func dashaIndex(lord ephem.Body) int {
	for i, b := range DashaOrder {
		if b == lord {
			return i
		}
	}
	return -1
}

// SubLordResult locates a longitude inside the proportional 120-unit
// division of the zodiac.
type SubLordResult struct {
	Lord             ephem.Body `json:"lord"`
	PositionInPeriod float64    `json:"position_in_period"` // units elapsed since the period began
	PeriodDuration   float64    `json:"period_duration"`   // width of the period in units
}

// Fraction returns how far through its period the longitude lies, in [0, 1).
func (r SubLordResult) Fraction() float64 {
	if r.PeriodDuration == 0 {
		return 0
	}
	return r.PositionInPeriod / r.PeriodDuration
}

// SubLordOf maps a sidereal longitude onto the 120-unit cycle starting at
// 0° Aries and returns the lord whose half-open span contains it.
func SubLordOf(lon float64) SubLordResult {
	checkLongitude("SubLordOf", lon)
	// Multiplied first so 360/120 never enters as an inexact factor.
	return walkCycle(lon*CycleYears/360, 0)
}

// SubSubLordOf applies the same proportional walk inside the sub-lord's own
// span, starting from the sub-lord itself. Positions and durations stay in
// units of the whole cycle.
func SubSubLordOf(lon float64) SubLordResult {
	sub := SubLordOf(lon)
	scale := sub.PeriodDuration / CycleYears
	inner := walkCycle(sub.Fraction()*CycleYears, dashaIndex(sub.Lord))
	return SubLordResult{
		Lord:             inner.Lord,
		PositionInPeriod: inner.PositionInPeriod * scale,
		PeriodDuration:   inner.PeriodDuration * scale,
	}
}

// walkCycle finds the lord containing pos in the 120-unit cycle,
// beginning the sequence at DashaOrder[first].
func walkCycle(pos float64, first int) SubLordResult {
	cum := 0.0
	var lord ephem.Body
	for i := 0; i < len(DashaOrder); i++ {
		lord = DashaOrder[(first+i)%len(DashaOrder)]
		w := dashaYears[lord]
		if pos < cum+w {
			return SubLordResult{Lord: lord, PositionInPeriod: pos - cum, PeriodDuration: w}
		}
		cum += w
	}
	// Only rounding can carry pos to the end of the cycle; it stays in the last span.
	w := dashaYears[lord]
	return SubLordResult{Lord: lord, PositionInPeriod: pos - (cum - w), PeriodDuration: w}
}
