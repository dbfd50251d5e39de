package astro

import "math"

// FullCircle is the number of degrees in a full turn.
const FullCircle = 360.0

// Normalize reduces any finite angle to [0, 360).
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, FullCircle)
	if deg < 0 {
		deg += FullCircle
	}
	// math.Mod of a tiny negative value can round back up to 360.
	if deg >= FullCircle {
		deg = 0
	}
	return deg
}

// AngularSeparation returns the shortest arc between two longitudes, in [0, 180].
func AngularSeparation(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > 180 {
		d = FullCircle - d
	}
	return d
}

// SignedDifference returns the shortest signed arc travelling from a to b,
// in (-180, 180]. Positive means b lies ahead of a in zodiacal order.
func SignedDifference(a, b float64) float64 {
	d := Normalize(b - a)
	if d > 180 {
		d -= FullCircle
	}
	return d
}

// Midpoint returns the point halfway along the shorter arc from a to b.
func Midpoint(a, b float64) float64 {
	return Normalize(a + SignedDifference(a, b)/2)
}

// Arc is a half-open circular interval [Start, Start+Span).
// Span may be up to a full circle; an Arc never contains its end point.
type Arc struct {
	Start float64
	Span  float64
}

// ArcBetween builds the forward arc from start to end. Equal endpoints give
// an empty arc.
func ArcBetween(start, end float64) Arc {
	start = Normalize(start)
	return Arc{Start: start, Span: Normalize(end - start)}
}

// End returns the normalized end point of the arc.
func (a Arc) End() float64 {
	return Normalize(a.Start + a.Span)
}

// Offset returns how far lon lies past the arc start, measured forward.
func (a Arc) Offset(lon float64) float64 {
	return Normalize(lon - a.Start)
}

// Contains reports whether lon lies in [Start, Start+Span).
// Wraparound across 0° is handled by measuring forward from the start.
func (a Arc) Contains(lon float64) bool {
	return a.Offset(lon) < a.Span
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
