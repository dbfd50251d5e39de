package kp

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/ephem"
)

func TestMotion(t *testing.T) {
	tests := []struct {
		body       ephem.Body
		speed      float64
		motion     Motion
		retrograde bool
	}{
		{ephem.Sun, 0.98, MotionNA, false},
		{ephem.Moon, 13.2, MotionNA, false},
		{ephem.Rahu, -0.053, MotionNA, false},
		{ephem.Mars, 0.52, MotionDirect, false},
		{ephem.Mars, -0.3, MotionRetrograde, true},
		{ephem.Mercury, 0.01, MotionStationary, false},
		{ephem.Mercury, -0.005, MotionStationary, true},
		{ephem.Saturn, 0, MotionStationary, false},
	}

	for _, tt := range tests {
		p := withSpeed(tt.body, 45, tt.speed)
		if p.Motion != tt.motion {
			t.Errorf("%v at %v°/day: Motion = %v, want %v", tt.body, tt.speed, p.Motion, tt.motion)
		}
		if p.Retrograde != tt.retrograde {
			t.Errorf("%v at %v°/day: Retrograde = %v, want %v", tt.body, tt.speed, p.Retrograde, tt.retrograde)
		}
	}
}

func TestNewBodyPosition(t *testing.T) {
	raw := ephem.RawPosition{Body: ephem.Jupiter, Longitude: 10, Latitude: 1.2, DistanceAU: 4.5, Speed: 0.2}
	p := NewBodyPosition(raw, astro.Ayanamsa{Name: "test", Degrees: 20})

	if math.Abs(p.Longitude-350) > 1e-9 {
		t.Errorf("Longitude = %v, want 350", p.Longitude)
	}
	if p.Location.Sign != Pisces || p.Location.Nakshatra.String() != "Revati" {
		t.Errorf("Location = %+v", p.Location)
	}
	if p.SubLord != SubLordOf(p.Longitude) || p.SubSub != SubSubLordOf(p.Longitude) {
		t.Error("sub-lord annotations do not match the longitude")
	}
	if p.House != 0 {
		t.Errorf("House = %d before cusps are known", p.House)
	}
	if p.Latitude != 1.2 || p.DistanceAU != 4.5 {
		t.Errorf("raw fields not carried: %+v", p)
	}
}

func TestDeriveKetu(t *testing.T) {
	rahu := withSpeed(ephem.Rahu, 200, -0.053)
	ketu := DeriveKetu(rahu)

	if ketu.Body != ephem.Ketu {
		t.Errorf("Body = %v", ketu.Body)
	}
	if math.Abs(ketu.Longitude-20) > 1e-9 {
		t.Errorf("Longitude = %v, want 20", ketu.Longitude)
	}
	if ketu.Speed != 0.053 || ketu.Latitude != 0 {
		t.Errorf("Speed = %v, Latitude = %v", ketu.Speed, ketu.Latitude)
	}
	if ketu.Location != Locate(20) {
		t.Errorf("Location = %+v, want %+v", ketu.Location, Locate(20))
	}
	if ketu.Motion != MotionNA {
		t.Errorf("Motion = %v, want N/A", ketu.Motion)
	}

	// Opposition holds for every Rahu longitude, including the wrap.
	for _, lon := range []float64{0, 179.999, 180, 359.5} {
		k := DeriveKetu(withSpeed(ephem.Rahu, lon, 0))
		if d := astro.AngularSeparation(lon, k.Longitude); math.Abs(d-180) > 1e-9 {
			t.Errorf("Rahu %v / Ketu %v separated by %v", lon, k.Longitude, d)
		}
		if k.Longitude < 0 || k.Longitude >= 360 {
			t.Errorf("Ketu %v not normalized", k.Longitude)
		}
	}
}

func TestPositionJSONDecodes(t *testing.T) {
	want := NewBodyPosition(ephem.RawPosition{Body: ephem.Mars, Longitude: 245.5, Speed: -0.2}, noAyanamsa)
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	var got BodyPosition
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if got.Motion != MotionRetrograde || got.Location.Sign != Sagittarius || got.Location.Nakshatra != want.Location.Nakshatra {
		t.Errorf("decoded %+v, want %+v", got, want)
	}

	var a Aspect
	if err := json.Unmarshal([]byte(`{"type":"trine"}`), &a); err != nil || a.Type != Trine {
		t.Errorf("aspect type = %v, err %v", a.Type, err)
	}
	var m Motion
	if err := m.UnmarshalText([]byte("sideways")); err == nil {
		t.Error("expected error for unknown motion")
	}
}
