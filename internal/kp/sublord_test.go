package kp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/litescript/ls-kp/internal/ephem"
)

func TestDashaWeightsSumToCycle(t *testing.T) {
	total := 0.0
	for _, lord := range DashaOrder {
		total += DashaYears(lord)
	}
	if total != CycleYears {
		t.Errorf("weights sum to %v, want %v", total, CycleYears)
	}
	if DashaYears(ephem.Uranus) != 0 {
		t.Error("outer planets carry no dasha weight")
	}
}

func TestSubLordBoundaries(t *testing.T) {
	// Each lord spans weight*3 degrees of the single 0°-based cycle.
	tests := []struct {
		lon  float64
		lord ephem.Body
	}{
		{0, ephem.Ketu},
		{20.999999, ephem.Ketu},
		{21, ephem.Venus},
		{80.999999, ephem.Venus},
		{81, ephem.Sun},
		{99, ephem.Moon},
		{129, ephem.Mars},
		{150, ephem.Rahu},
		{204, ephem.Jupiter},
		{252, ephem.Saturn},
		{309, ephem.Mercury},
		{359.999999, ephem.Mercury},
	}

	for _, tt := range tests {
		got := SubLordOf(tt.lon)
		if got.Lord != tt.lord {
			t.Errorf("SubLordOf(%v) = %v, want %v", tt.lon, got.Lord, tt.lord)
		}
		if got.PositionInPeriod < 0 || got.PositionInPeriod >= got.PeriodDuration {
			t.Errorf("SubLordOf(%v) position %v outside [0, %v)", tt.lon, got.PositionInPeriod, got.PeriodDuration)
		}
	}
}

func TestSubLordPosition(t *testing.T) {
	got := SubLordOf(30)
	if got.Lord != ephem.Venus {
		t.Fatalf("lord = %v, want Venus", got.Lord)
	}
	if math.Abs(got.PositionInPeriod-3) > 1e-12 || got.PeriodDuration != 20 {
		t.Errorf("SubLordOf(30) = %+v, want position 3 of 20", got)
	}
	if math.Abs(got.Fraction()-0.15) > 1e-12 {
		t.Errorf("Fraction() = %v, want 0.15", got.Fraction())
	}
}

func TestSubLordExactlyOneInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		lon := rng.Float64() * 360
		pos := lon * CycleYears / 360

		matches := 0
		cum := 0.0
		for _, lord := range DashaOrder {
			w := DashaYears(lord)
			if pos >= cum && pos < cum+w {
				matches++
				if got := SubLordOf(lon).Lord; got != lord {
					t.Fatalf("SubLordOf(%v) = %v, interval says %v", lon, got, lord)
				}
			}
			cum += w
		}
		if matches != 1 {
			t.Fatalf("longitude %v matched %d intervals", lon, matches)
		}
	}
}

func TestSubSubLord(t *testing.T) {
	// Halfway through Ketu's span: 60 of 120 inner units starting at Ketu
	// lands 10 units into Rahu.
	got := SubSubLordOf(10.5)
	if got.Lord != ephem.Rahu {
		t.Fatalf("SubSubLordOf(10.5) = %v, want Rahu", got.Lord)
	}
	scale := 7.0 / 120
	if math.Abs(got.PositionInPeriod-10*scale) > 1e-12 {
		t.Errorf("position = %v, want %v", got.PositionInPeriod, 10*scale)
	}
	if math.Abs(got.PeriodDuration-18*scale) > 1e-12 {
		t.Errorf("duration = %v, want %v", got.PeriodDuration, 18*scale)
	}

	if first := SubSubLordOf(21); first.Lord != ephem.Venus {
		t.Errorf("start of Venus sub = %v, want Venus sub-sub", first.Lord)
	}
}

func TestSubSubDurationsFillSub(t *testing.T) {
	for _, sub := range DashaOrder {
		total := 0.0
		for _, inner := range DashaOrder {
			total += DashaYears(sub) * DashaYears(inner) / CycleYears
		}
		if math.Abs(total-DashaYears(sub)) > 1e-9 {
			t.Errorf("%v sub-sub periods sum to %v, want %v", sub, total, DashaYears(sub))
		}
	}
}
