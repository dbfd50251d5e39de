package birth

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/kp"
)

func ptr(f float64) *float64 { return &f }

func TestRecordRequest(t *testing.T) {
	defaults := kp.Request{
		Observer:    astro.Observer{LatDeg: 13.08, LonDeg: 80.27, Name: "Chennai"},
		Ayanamsa:    kp.AyanamsaOf(astro.KPNewcomb),
		HouseSystem: ephem.Placidus,
	}

	rec := Record{
		Name:        "Test",
		Date:        "03/11/1990",
		Time:        "11:31:29 AM",
		Timezone:    "+05:30",
		Latitude:    ptr(28.61),
		Longitude:   ptr(77.21),
		Place:       "Delhi",
		HouseSystem: "equal",
		Bodies:      []string{"sun", "moon", "south node"},
		Divisions:   []int{9},
	}
	req, err := rec.Request(defaults)
	if err != nil {
		t.Fatal(err)
	}

	want := time.Date(1990, 11, 3, 6, 1, 29, 0, time.UTC)
	if !req.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", req.Time, want)
	}
	if req.Observer.LatDeg != 28.61 || req.Observer.Name != "Delhi" {
		t.Errorf("Observer = %+v", req.Observer)
	}
	if req.HouseSystem != ephem.Equal {
		t.Errorf("HouseSystem = %v, want equal", req.HouseSystem)
	}
	if req.Ayanamsa == nil || *req.Ayanamsa != astro.KPNewcomb {
		t.Errorf("Ayanamsa = %v, want default", req.Ayanamsa)
	}
	if len(req.Bodies) != 3 || req.Bodies[2] != ephem.Ketu {
		t.Errorf("Bodies = %v", req.Bodies)
	}
	if len(req.Divisions) != 1 || req.Divisions[0] != kp.D9 {
		t.Errorf("Divisions = %v", req.Divisions)
	}
}

func TestRecordRequestDefaultsPlace(t *testing.T) {
	defaults := kp.Request{Observer: astro.Observer{LatDeg: 13.08, LonDeg: 80.27}}
	req, err := Record{Instant: "1990-11-03T11:31:29+05:30", Place: "Madras"}.Request(defaults)
	if err != nil {
		t.Fatal(err)
	}
	if req.Observer.LatDeg != 13.08 || req.Observer.Name != "Madras" {
		t.Errorf("Observer = %+v", req.Observer)
	}
	if req.Time.Hour() != 6 || req.Time.Minute() != 1 {
		t.Errorf("Time = %v", req.Time)
	}
}

func TestRecordRequestExplicitZeros(t *testing.T) {
	var rec Record
	err := json.Unmarshal([]byte(`{"datetime":"1990-11-03T06:01:29Z","ayanamsa":"0","dasha_count":0}`), &rec)
	if err != nil {
		t.Fatal(err)
	}
	defaults := kp.Request{
		Ayanamsa:   kp.AyanamsaOf(astro.KPNewcomb),
		DashaCount: kp.Count(kp.DefaultDashaCount),
	}
	req, err := rec.Request(defaults)
	if err != nil {
		t.Fatal(err)
	}
	req = req.WithDefaults()
	if req.Ayanamsa.Degrees != 0 {
		t.Errorf("Ayanamsa = %v, want 0", req.Ayanamsa)
	}
	if *req.DashaCount != 0 {
		t.Errorf("DashaCount = %d, want 0", *req.DashaCount)
	}
	if *defaults.DashaCount != kp.DefaultDashaCount {
		t.Error("defaults were modified")
	}
}

func TestRecordRequestErrors(t *testing.T) {
	tests := []struct {
		name  string
		rec   Record
		field string
	}{
		{"no date", Record{Time: "10:00"}, "date"},
		{"bad date", Record{Date: "1990-13-01", Time: "10:00"}, "date"},
		{"bad instant", Record{Instant: "yesterday"}, "datetime"},
		{"half a place", Record{Date: "1990-11-03", Time: "10:00", Latitude: ptr(10)}, "latitude"},
		{"bad ayanamsa", Record{Date: "1990-11-03", Time: "10:00", Ayanamsa: "lahiri-ish"}, "ayanamsa"},
		{"bad house system", Record{Date: "1990-11-03", Time: "10:00", HouseSystem: "koch"}, "house_system"},
		{"bad body", Record{Date: "1990-11-03", Time: "10:00", Bodies: []string{"vulcan"}}, "bodies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rec.Request(kp.Request{})
			if !errors.Is(err, kp.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
			var ie *kp.InputError
			if !errors.As(err, &ie) || ie.Field != tt.field {
				t.Errorf("field = %v, want %s", err, tt.field)
			}
		})
	}
}
