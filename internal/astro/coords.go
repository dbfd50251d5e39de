// Package astro provides the angle arithmetic, time scales and sidereal
// conversions shared by the chart engine and the ephemeris providers.
package astro

import (
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// J2000 is the Julian Day of the J2000.0 epoch.
const J2000 = 2451545.0

// Observer represents a place on Earth a chart is cast for.
type Observer struct {
	LatDeg float64 // Latitude in degrees (north positive)
	LonDeg float64 // Longitude in degrees (east positive)
	Name   string  // Optional place name
}

// JulianDay returns the Julian Day for a UTC instant.
// Whole seconds come from go-satellite; the sub-second remainder is added here.
func JulianDay(t time.Time) float64 {
	t = t.UTC()
	jd := satellite.JDay(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	return jd + float64(t.Nanosecond())/86400e9
}

// JulianCenturies returns Julian centuries elapsed since J2000.0.
func JulianCenturies(t time.Time) float64 {
	return (JulianDay(t) - J2000) / 36525.0
}

// GreenwichSiderealTime returns the Greenwich mean sidereal angle in degrees.
func GreenwichSiderealTime(t time.Time) float64 {
	return Normalize(RadToDeg(satellite.ThetaG_JD(JulianDay(t))))
}

// LocalSiderealTime returns the local sidereal angle (RAMC) in degrees
// for an observer east longitude.
func LocalSiderealTime(t time.Time, lonDeg float64) float64 {
	return Normalize(GreenwichSiderealTime(t) + lonDeg)
}

// MeanObliquity returns the mean obliquity of the ecliptic in degrees
// (IAU 1980 polynomial).
func MeanObliquity(t time.Time) float64 {
	T := JulianCenturies(t)
	arcsec := 21.448 - 46.8150*T - 0.00059*T*T + 0.001813*T*T*T
	return 23 + 26.0/60 + arcsec/3600
}

// EclipticToEquatorial converts an ecliptic longitude/latitude pair to
// right ascension and declination, all in degrees.
func EclipticToEquatorial(lonDeg, latDeg, oblDeg float64) (raDeg, decDeg float64) {
	lon := DegToRad(lonDeg)
	lat := DegToRad(latDeg)
	eps := DegToRad(oblDeg)

	sinDec := math.Sin(lat)*math.Cos(eps) + math.Cos(lat)*math.Sin(eps)*math.Sin(lon)
	dec := math.Asin(clamp(sinDec, -1, 1))

	y := math.Sin(lon)*math.Cos(eps) - math.Tan(lat)*math.Sin(eps)
	x := math.Cos(lon)
	ra := math.Atan2(y, x)

	return Normalize(RadToDeg(ra)), RadToDeg(dec)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
