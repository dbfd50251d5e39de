package kp

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/litescript/ls-kp/internal/ephem"
)

func TestDivisionSetMap(t *testing.T) {
	tests := []struct {
		name   string
		lon    float64
		div    Division
		sign   Sign
		degree float64
	}{
		{"D1 is identity", 123.5, D1, Leo, 3.5},
		{"D9 aries start", 0, D9, Aries, 0},
		{"D9 aries second part", 3.5, D9, Taurus, 1.5},
		{"D9 aries last part", 29, D9, Sagittarius, 21},
		{"D9 taurus odd index offset 8", 35, D9, Aquarius, 15},
		{"D9 pisces wraps", 359, D9, Cancer, 21},
		{"D10 aries even index offset 8", 0, D10, Sagittarius, 0},
		{"D10 taurus odd index offset 0", 35, D10, Gemini, 20},
		{"D10 gemini even index", 60 + 29.5, D10, Scorpio, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDivisionSet().Map(tt.lon, tt.div)
			if err != nil {
				t.Fatal(err)
			}
			if got.Sign != tt.sign {
				t.Errorf("Sign = %v, want %v", got.Sign, tt.sign)
			}
			if math.Abs(got.DegreeInSign-tt.degree) > 1e-9 {
				t.Errorf("DegreeInSign = %v, want %v", got.DegreeInSign, tt.degree)
			}
			if got.DegreeInSign < 0 || got.DegreeInSign >= 30 {
				t.Errorf("DegreeInSign %v out of [0,30)", got.DegreeInSign)
			}
		})
	}
}

func TestDivisionSetMapPartBoundaries(t *testing.T) {
	// Just past each D9 part boundary of Aries lands at the start of that sign.
	for part := 0; part < 9; part++ {
		lon := float64(part)*30/9 + 1e-9
		got, err := NewDivisionSet().Map(lon, D9)
		if err != nil {
			t.Fatal(err)
		}
		if got.Sign != Sign(part) {
			t.Errorf("D9 of %v = %v, want %v", lon, got.Sign, Sign(part))
		}
		if got.DegreeInSign > 1e-7 {
			t.Errorf("D9 of %v degree = %v, want ~0", lon, got.DegreeInSign)
		}
	}
}

func TestDivisionSetMapUnsupported(t *testing.T) {
	_, err := NewDivisionSet().Map(10, Division(60))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestRegisterDivision(t *testing.T) {
	set := NewDivisionSet()
	if err := set.Register(Division(0), DivisionRule{Parts: 1, StartOffset: func(Sign) int { return 0 }}); err == nil {
		t.Error("expected error for D0")
	}
	if err := set.Register(Division(3), DivisionRule{Parts: 3}); err == nil {
		t.Error("expected error for rule without offset")
	}

	// Thirds counted forward from the base sign.
	err := set.Register(Division(3), DivisionRule{
		Name:        "Drekkana",
		Parts:       3,
		StartOffset: func(Sign) int { return 0 },
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := set.Map(25, Division(3))
	if err != nil {
		t.Fatal(err)
	}
	if got.Sign != Gemini {
		t.Errorf("D3 of 25° = %v, want Gemini", got.Sign)
	}
	if set.Name(Division(3)) != "Drekkana" {
		t.Errorf("Name(D3) = %q", set.Name(Division(3)))
	}
	if want := []Division{D1, Division(3), D9, D10}; !reflect.DeepEqual(set.List(), want) {
		t.Errorf("List() = %v, want %v", set.List(), want)
	}

	// Other sets are untouched.
	fresh := NewDivisionSet()
	if _, err := fresh.Map(25, Division(3)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("fresh set knows D3: err = %v", err)
	}
	if fresh.Name(Division(3)) != "" || fresh.Name(D9) != "Navamsa" {
		t.Errorf("fresh names = %q %q", fresh.Name(Division(3)), fresh.Name(D9))
	}
}

func TestDivisionalChart(t *testing.T) {
	positions := []BodyPosition{
		{Body: ephem.Sun, Longitude: 3.5},
		{Body: ephem.Moon, Longitude: 35},
	}
	v, err := NewDivisionSet().Chart(positions, D9)
	if err != nil {
		t.Fatal(err)
	}
	if v[ephem.Sun].Sign != Taurus || v[ephem.Moon].Sign != Aquarius {
		t.Errorf("D9 chart = %v", v)
	}
	if _, err := NewDivisionSet().Chart(positions, Division(60)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("D60 err = %v", err)
	}
}
