package kp

import (
	"reflect"
	"testing"

	"github.com/litescript/ls-kp/internal/ephem"
)

func TestAnalyze(t *testing.T) {
	cusps := mustCusps(t, evenCusps(0))
	positions := []BodyPosition{
		placed(ephem.Sun, 5),       // Ashwini, Ketu
		placed(ephem.Moon, 20),     // Bharani, Venus
		placed(ephem.Mars, 100),    // Pushya, Saturn
		placed(ephem.Jupiter, 105), // Pushya, Saturn
		placed(ephem.Sun, 200),     // repeated body, ignored
	}

	sigs := Analyze(positions, cusps)

	h1 := sigs[0]
	if h1.House != 1 {
		t.Fatalf("House = %d, want 1", h1.House)
	}
	if want := []ephem.Body{ephem.Sun, ephem.Moon}; !reflect.DeepEqual(h1.Occupants, want) {
		t.Errorf("H1 occupants = %v, want %v", h1.Occupants, want)
	}
	if want := []ephem.Body{ephem.Ketu, ephem.Venus}; !reflect.DeepEqual(h1.StarLords, want) {
		t.Errorf("H1 star lords = %v, want %v", h1.StarLords, want)
	}
	if want := []ephem.Body{ephem.Mars, ephem.Ketu}; !reflect.DeepEqual(h1.Weak, want) {
		t.Errorf("H1 weak = %v, want %v", h1.Weak, want)
	}
	if want := []ephem.Body{ephem.Sun, ephem.Moon, ephem.Ketu, ephem.Venus}; !reflect.DeepEqual(h1.Strong, want) {
		t.Errorf("H1 strong = %v, want %v", h1.Strong, want)
	}

	h4 := sigs[3]
	if want := []ephem.Body{ephem.Mars, ephem.Jupiter}; !reflect.DeepEqual(h4.Occupants, want) {
		t.Errorf("H4 occupants = %v, want %v", h4.Occupants, want)
	}
	if want := []ephem.Body{ephem.Saturn}; !reflect.DeepEqual(h4.StarLords, want) {
		t.Errorf("H4 star lords = %v, want %v", h4.StarLords, want)
	}
	if want := []ephem.Body{ephem.Moon, ephem.Sun}; !reflect.DeepEqual(h4.Weak, want) {
		t.Errorf("H4 weak = %v, want %v", h4.Weak, want)
	}

	total := 0
	for _, s := range sigs {
		total += len(s.Occupants)
		if s.Occupants == nil || s.StarLords == nil {
			t.Errorf("house %d has nil lists", s.House)
		}
	}
	if total != 4 {
		t.Errorf("%d occupants across houses, want 4", total)
	}
}

func TestSignifiedHouses(t *testing.T) {
	sigs := Analyze([]BodyPosition{placed(ephem.Sun, 5)}, mustCusps(t, evenCusps(0)))

	strong, weak := SignifiedHouses(sigs, ephem.Sun)
	if !reflect.DeepEqual(strong, []int{1}) {
		t.Errorf("strong = %v, want [1]", strong)
	}
	// Sun is the sub-lord of cusp 4 and rules Leo on cusp 5.
	if !reflect.DeepEqual(weak, []int{4, 5}) {
		t.Errorf("weak = %v, want [4 5]", weak)
	}
}
