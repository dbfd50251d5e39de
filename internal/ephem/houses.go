package ephem

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-kp/internal/astro"
)

// ErrPolarLatitude is returned when a quadrant system cannot be built
// because some ecliptic points never rise or set.
var ErrPolarLatitude = errors.New("house system undefined at this latitude")

const (
	placidusMaxIter = 100
	placidusEpsilon = 1e-10
)

// CalculateHouses computes tropical cusps, Ascendant and Midheaven
// analytically from sidereal time and the mean obliquity.
func CalculateHouses(t time.Time, obs astro.Observer, sys HouseSystem) (RawHouses, error) {
	if obs.LatDeg < -90 || obs.LatDeg > 90 {
		return RawHouses{}, fmt.Errorf("latitude %v out of range", obs.LatDeg)
	}

	ramc := astro.LocalSiderealTime(t, obs.LonDeg)
	eps := astro.MeanObliquity(t)

	asc := ascendant(ramc, eps, obs.LatDeg)
	mc := midheaven(ramc, eps)

	h := RawHouses{System: sys, Ascendant: asc, Midheaven: mc}

	switch sys {
	case Equal:
		for i := range h.Cusps {
			h.Cusps[i] = astro.Normalize(asc + 30*float64(i))
		}
	case WholeSign:
		start := math.Floor(asc/30) * 30
		for i := range h.Cusps {
			h.Cusps[i] = astro.Normalize(start + 30*float64(i))
		}
	case Porphyry:
		h.Cusps = porphyryCusps(asc, mc)
	case Placidus:
		cusps, err := placidusCusps(ramc, eps, obs.LatDeg, asc, mc)
		if err != nil {
			return RawHouses{}, err
		}
		h.Cusps = cusps
	default:
		return RawHouses{}, fmt.Errorf("unsupported house system %q", string(sys))
	}

	return h, nil
}

// ascendant returns the ecliptic longitude rising in the east.
func ascendant(ramc, eps, lat float64) float64 {
	r := astro.DegToRad(ramc)
	e := astro.DegToRad(eps)
	phi := astro.DegToRad(lat)

	y := math.Cos(r)
	x := -(math.Sin(r)*math.Cos(e) + math.Tan(phi)*math.Sin(e))
	return astro.Normalize(astro.RadToDeg(math.Atan2(y, x)))
}

// midheaven returns the ecliptic longitude culminating on the meridian.
func midheaven(ramc, eps float64) float64 {
	return raToEcliptic(ramc, eps)
}

// raToEcliptic returns the ecliptic longitude whose right ascension is ra.
func raToEcliptic(ra, eps float64) float64 {
	r := astro.DegToRad(ra)
	e := astro.DegToRad(eps)
	return astro.Normalize(astro.RadToDeg(math.Atan2(math.Sin(r), math.Cos(r)*math.Cos(e))))
}

func porphyryCusps(asc, mc float64) [12]float64 {
	var c [12]float64
	ic := astro.Normalize(mc + 180)

	upper := astro.Normalize(asc - mc) // MC to ASC
	lower := astro.Normalize(ic - asc) // ASC to IC

	c[0] = asc
	c[1] = astro.Normalize(asc + lower/3)
	c[2] = astro.Normalize(asc + 2*lower/3)
	c[9] = mc
	c[10] = astro.Normalize(mc + upper/3)
	c[11] = astro.Normalize(mc + 2*upper/3)
	fillOpposites(&c)
	return c
}

// placidusCusps trisects the diurnal and nocturnal semi-arcs of each
// intermediate cusp, iterating because the semi-arc depends on the
// declination of the very point being solved for.
func placidusCusps(ramc, eps, lat, asc, mc float64) ([12]float64, error) {
	var c [12]float64
	c[0] = asc
	c[9] = mc

	type target struct {
		idx      int
		diurnal  bool
		fraction float64
	}
	targets := []target{
		{idx: 10, diurnal: true, fraction: 1.0 / 3}, // 11th
		{idx: 11, diurnal: true, fraction: 2.0 / 3}, // 12th
		{idx: 1, diurnal: false, fraction: 2.0 / 3}, // 2nd
		{idx: 2, diurnal: false, fraction: 1.0 / 3}, // 3rd
	}

	for _, tg := range targets {
		lon, err := placidusCusp(ramc, eps, lat, tg.diurnal, tg.fraction)
		if err != nil {
			return c, err
		}
		c[tg.idx] = lon
	}

	fillOpposites(&c)
	return c, nil
}

func placidusCusp(ramc, eps, lat float64, diurnal bool, fraction float64) (float64, error) {
	tanPhi := math.Tan(astro.DegToRad(lat))

	ra := ramc
	if diurnal {
		ra += 90 * fraction
	} else {
		ra += 180 - 90*fraction
	}
	lon := raToEcliptic(ra, eps)

	for i := 0; i < placidusMaxIter; i++ {
		_, dec := astro.EclipticToEquatorial(lon, 0, eps)
		x := tanPhi * math.Tan(astro.DegToRad(dec))
		if math.Abs(x) >= 1 {
			return 0, fmt.Errorf("placidus at latitude %.2f: %w", lat, ErrPolarLatitude)
		}
		ad := astro.RadToDeg(math.Asin(x))

		if diurnal {
			ra = ramc + (90+ad)*fraction
		} else {
			ra = ramc + 180 - (90-ad)*fraction
		}
		next := raToEcliptic(ra, eps)
		if astro.AngularSeparation(next, lon) < placidusEpsilon {
			return next, nil
		}
		lon = next
	}
	return lon, nil
}

// fillOpposites sets cusps 4-9 from their opposite cusps.
func fillOpposites(c *[12]float64) {
	for i := 3; i < 9; i++ {
		c[i] = astro.Normalize(c[(i+6)%12] + 180)
	}
}
