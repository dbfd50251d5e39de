package kp

import (
	"fmt"
	"math"

	"github.com/litescript/ls-kp/internal/astro"
)

// cuspSweepTolerance bounds how far the summed house spans may drift from
// a full circle before the cusp set is rejected.
const cuspSweepTolerance = 1e-6

var houseMeanings = [12]string{
	"Self, Personality, Health, Appearance",
	"Wealth, Family, Speech, Food",
	"Siblings, Courage, Communication, Short Journeys",
	"Home, Mother, Education, Property, Vehicles",
	"Children, Intelligence, Romance, Speculation",
	"Health, Enemies, Service, Debts",
	"Marriage, Partnership, Business, Spouse",
	"Longevity, Transformation, Hidden Matters, Research",
	"Fortune, Religion, Higher Learning, Long Journeys",
	"Career, Reputation, Father, Authority",
	"Gains, Friends, Elder Siblings, Aspirations",
	"Losses, Expenses, Foreign Lands, Spirituality",
}

// HouseMeaning returns the significations of a house numbered 1-12.
func HouseMeaning(house int) string {
	if house < 1 || house > 12 {
		return "Unknown"
	}
	return houseMeanings[house-1]
}

// HouseCusp is the sidereal start of one house with its KP annotations.
type HouseCusp struct {
	House     int            `json:"house"`
	Longitude float64        `json:"longitude"`
	Location  ZodiacLocation `json:"location"`
	SubLord   SubLordResult  `json:"sub_lord"`
	SubSub    SubLordResult  `json:"sub_sub_lord"`
	Meaning   string         `json:"meaning"`
}

// Cusps is a full house frame, index 0 holding house 1.
type Cusps [12]HouseCusp

// BuildCusps converts twelve tropical cusp longitudes to sidereal and
// annotates each. The cusps must advance in zodiacal order and sweep
// exactly one circle; anything else is rejected as invalid input.
func BuildCusps(tropical [12]float64, ayanamsa astro.Ayanamsa) (Cusps, error) {
	var sidereal [12]float64
	for i, c := range tropical {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Cusps{}, invalid("cusps", "cusp %d is not finite", i+1)
		}
		sidereal[i] = ayanamsa.ToSidereal(c)
	}

	total := 0.0
	for i := range sidereal {
		span := astro.ArcBetween(sidereal[i], sidereal[(i+1)%12]).Span
		if span == 0 {
			return Cusps{}, invalid("cusps", "houses %d and %d share a cusp", i+1, (i+1)%12+1)
		}
		total += span
	}
	if math.Abs(total-360) > cuspSweepTolerance {
		return Cusps{}, invalid("cusps", "cusps sweep %.6f degrees, want 360", total)
	}

	var cusps Cusps
	for i, lon := range sidereal {
		cusps[i] = HouseCusp{
			House:     i + 1,
			Longitude: lon,
			Location:  Locate(lon),
			SubLord:   SubLordOf(lon),
			SubSub:    SubSubLordOf(lon),
			Meaning:   HouseMeaning(i + 1),
		}
	}
	return cusps, nil
}

// Arc returns the half-open span of house n, from its cusp to the next.
func (c Cusps) Arc(house int) astro.Arc {
	return astro.ArcBetween(c[house-1].Longitude, c[house%12].Longitude)
}

// Longitudes returns the bare cusp longitudes.
func (c Cusps) Longitudes() [12]float64 {
	var out [12]float64
	for i, h := range c {
		out[i] = h.Longitude
	}
	return out
}

// HouseOf returns the house (1-12) whose span [cusp n, cusp n+1) contains
// lon, wrapping from house 12 back to house 1 across 0°. For cusps that
// passed BuildCusps exactly one house matches.
func HouseOf(lon float64, cusps Cusps) int {
	lon = astro.Normalize(lon)

	nearest, nearestOffset := 0, math.Inf(1)
	for h := 1; h <= 12; h++ {
		arc := cusps.Arc(h)
		if arc.Contains(lon) {
			return h
		}
		if off := arc.Offset(lon); off < nearestOffset {
			nearest, nearestOffset = h, off
		}
	}

	// A longitude within rounding of a cusp can slip between two spans;
	// it belongs to the house whose cusp it has just passed.
	if !cusps.sweepsCircle() {
		violate("HouseOf", "longitude %v matched no house in %v", lon, cusps.Longitudes())
	}
	return nearest
}

func (c Cusps) sweepsCircle() bool {
	total := 0.0
	for h := 1; h <= 12; h++ {
		span := c.Arc(h).Span
		if span == 0 {
			return false
		}
		total += span
	}
	return math.Abs(total-360) <= cuspSweepTolerance
}

// String renders a cusp as "H1 Aries 12.50".
func (h HouseCusp) String() string {
	return fmt.Sprintf("H%d %s %.2f", h.House, h.Location.Sign, h.Location.DegreeInSign)
}
