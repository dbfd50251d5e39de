package astro

import (
	"math"
	"testing"
	"time"
)

func TestJulianDay(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
		tol      float64
	}{
		{
			name:     "J2000 epoch",
			time:     time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: 2451545.0,
			tol:      0.0001,
		},
		{
			name:     "Unix epoch",
			time:     time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2440587.5,
			tol:      0.0001,
		},
		{
			name:     "Known date 2024-01-01 00:00 UTC",
			time:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2460310.5,
			tol:      0.0001,
		},
		{
			name:     "Half second past noon",
			time:     time.Date(2000, 1, 1, 12, 0, 0, 500_000_000, time.UTC),
			expected: 2451545.0 + 0.5/86400,
			tol:      1e-8,
		},
		{
			name:     "Non-UTC input is converted",
			time:     time.Date(2000, 1, 1, 17, 30, 0, 0, time.FixedZone("IST", 5*3600+1800)),
			expected: 2451545.0,
			tol:      0.0001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDay(tt.time)
			if math.Abs(got-tt.expected) > tt.tol {
				t.Errorf("JulianDay() = %v, want %v (±%v)", got, tt.expected, tt.tol)
			}
		})
	}
}

func TestGreenwichSiderealTime(t *testing.T) {
	// At J2000 epoch (2000-01-01 12:00 UTC), GMST should be approximately 280.46°
	t2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	gmst := GreenwichSiderealTime(t2000)

	if math.Abs(gmst-280.46) > 0.1 {
		t.Errorf("GMST at J2000 = %v, want ~280.46", gmst)
	}
	if gmst < 0 || gmst >= 360 {
		t.Errorf("GMST out of range: %v", gmst)
	}
}

func TestLocalSiderealTime(t *testing.T) {
	t2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	gmst := GreenwichSiderealTime(t2000)

	tests := []struct {
		name   string
		lonDeg float64
		want   float64
	}{
		{"Greenwich", 0, gmst},
		{"Chennai", 80.27, Normalize(gmst + 80.27)},
		{"Los Angeles", -118.24, Normalize(gmst - 118.24)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocalSiderealTime(t2000, tt.lonDeg)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LocalSiderealTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMeanObliquity(t *testing.T) {
	got := MeanObliquity(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	if math.Abs(got-23.4392911) > 1e-6 {
		t.Errorf("MeanObliquity(J2000) = %v, want 23.4392911", got)
	}
}

func TestEclipticToEquatorial(t *testing.T) {
	const eps = 23.4392911

	tests := []struct {
		name            string
		lon, lat        float64
		wantRA, wantDec float64
	}{
		{"vernal equinox", 0, 0, 0, 0},
		{"summer solstice", 90, 0, 90, eps},
		{"autumn equinox", 180, 0, 180, 0},
		{"winter solstice", 270, 0, 270, -eps},
		{"ecliptic pole", 0, 90, 270, 90 - eps},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ra, dec := EclipticToEquatorial(tt.lon, tt.lat, eps)
			if AngularSeparation(ra, tt.wantRA) > 1e-9 || math.Abs(dec-tt.wantDec) > 1e-9 {
				t.Errorf("EclipticToEquatorial(%v, %v) = (%v, %v), want (%v, %v)",
					tt.lon, tt.lat, ra, dec, tt.wantRA, tt.wantDec)
			}
		})
	}
}
