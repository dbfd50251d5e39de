package ephem

import (
	"time"

	"github.com/litescript/ls-kp/internal/astro"
)

// MeanNode returns the mean ascending lunar node (Rahu) at t.
// Longitude from the Meeus polynomial in Julian centuries; the daily
// speed is its time derivative and is always negative.
func MeanNode(t time.Time) RawPosition {
	T := astro.JulianCenturies(t)

	lon := 125.0445479 -
		1934.1362891*T +
		0.0020754*T*T +
		T*T*T/467441.0 -
		T*T*T*T/60616000.0

	perCentury := -1934.1362891 +
		2*0.0020754*T +
		3*T*T/467441.0 -
		4*T*T*T/60616000.0

	return RawPosition{
		Body:      Rahu,
		Time:      t.UTC(),
		Longitude: astro.Normalize(lon),
		Speed:     perCentury / 36525.0,
	}
}
