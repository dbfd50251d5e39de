package birth

import (
	"strings"
	"time"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/kp"
)

// Record is a birth as entered by a person: local date and clock time in
// a zone, a place, and optional chart settings. It is the shared input of
// the HTTP API and batch files.
type Record struct {
	Name     string `json:"name,omitempty" yaml:"name"`
	Date     string `json:"date,omitempty" yaml:"date"`
	Time     string `json:"time,omitempty" yaml:"time"`
	Timezone string `json:"timezone,omitempty" yaml:"timezone"`
	// Instant is an RFC 3339 timestamp used instead of Date/Time/Timezone.
	Instant string `json:"datetime,omitempty" yaml:"datetime"`

	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude"`
	Place     string   `json:"place,omitempty" yaml:"place"`

	Ayanamsa     string   `json:"ayanamsa,omitempty" yaml:"ayanamsa"`
	HouseSystem  string   `json:"house_system,omitempty" yaml:"house_system"`
	Bodies       []string `json:"bodies,omitempty" yaml:"bodies"`
	IncludeOuter bool     `json:"include_outer,omitempty" yaml:"include_outer"`
	DashaCount   *int     `json:"dasha_count,omitempty" yaml:"dasha_count"`
	Divisions    []int    `json:"divisions,omitempty" yaml:"divisions"`
}

// UTC resolves the record's instant.
func (r Record) UTC() (time.Time, error) {
	if s := strings.TrimSpace(r.Instant); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, &kp.InputError{Field: "datetime", Reason: "must be RFC 3339: " + err.Error()}
		}
		return t.UTC(), nil
	}
	if strings.TrimSpace(r.Date) == "" {
		return time.Time{}, &kp.InputError{Field: "date", Reason: "is required"}
	}
	t, err := Parse(r.Date, r.Time, r.Timezone)
	if err != nil {
		return time.Time{}, &kp.InputError{Field: "date", Reason: err.Error()}
	}
	return t, nil
}

// Request builds a chart request. Settings the record leaves empty are
// taken from defaults. The result is not yet validated; Engine.Compute
// does that.
func (r Record) Request(defaults kp.Request) (kp.Request, error) {
	req := defaults
	req.Name = r.Name

	t, err := r.UTC()
	if err != nil {
		return kp.Request{}, err
	}
	req.Time = t

	switch {
	case r.Latitude != nil && r.Longitude != nil:
		req.Observer = astro.Observer{LatDeg: *r.Latitude, LonDeg: *r.Longitude, Name: r.Place}
	case r.Latitude != nil || r.Longitude != nil:
		return kp.Request{}, &kp.InputError{Field: "latitude", Reason: "latitude and longitude must be given together"}
	case r.Place != "":
		req.Observer.Name = r.Place
	}

	if r.Ayanamsa != "" {
		a, err := astro.ParseAyanamsa(r.Ayanamsa)
		if err != nil {
			return kp.Request{}, &kp.InputError{Field: "ayanamsa", Reason: err.Error()}
		}
		req.Ayanamsa = &a
	}
	if r.HouseSystem != "" {
		h, err := ephem.ParseHouseSystem(r.HouseSystem)
		if err != nil {
			return kp.Request{}, &kp.InputError{Field: "house_system", Reason: err.Error()}
		}
		req.HouseSystem = h
	}
	if len(r.Bodies) > 0 {
		req.Bodies = make([]ephem.Body, 0, len(r.Bodies))
		for _, name := range r.Bodies {
			b, ok := ephem.ParseBody(name)
			if !ok {
				return kp.Request{}, &kp.InputError{Field: "bodies", Reason: "unknown body " + name}
			}
			req.Bodies = append(req.Bodies, b)
		}
	}
	if r.IncludeOuter {
		req.IncludeOuter = true
	}
	if r.DashaCount != nil {
		req.DashaCount = kp.Count(*r.DashaCount)
	}
	if len(r.Divisions) > 0 {
		req.Divisions = make([]kp.Division, len(r.Divisions))
		for i, d := range r.Divisions {
			req.Divisions[i] = kp.Division(d)
		}
	}
	return req, nil
}
