// Package ephem supplies raw tropical ephemeris data (body positions and
// house cusps) to the chart engine.
package ephem

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/litescript/ls-kp/internal/astro"
)

// ErrDerivedBody is returned when a provider is asked for a body that is
// always computed from another body of the same chart.
var ErrDerivedBody = errors.New("body is derived, not provided")

// ErrUnknownBody is returned for bodies a provider cannot resolve.
var ErrUnknownBody = errors.New("unknown body")

// ErrNonFinite marks a NaN or infinite value in provider output.
var ErrNonFinite = errors.New("non-finite ephemeris value")

// RawPosition is a geocentric tropical position for one body at one instant.
type RawPosition struct {
	Body       Body      `json:"body" yaml:"-"`
	Time       time.Time `json:"time" yaml:"-"`
	Longitude  float64   `json:"longitude" yaml:"lon"` // ecliptic longitude, degrees
	Latitude   float64   `json:"latitude" yaml:"lat"`  // ecliptic latitude, degrees
	DistanceAU float64   `json:"distance_au" yaml:"dist"`
	Speed      float64   `json:"speed" yaml:"speed"` // degrees per day, negative when retrograde
}

// Check rejects a position with a NaN or infinite field.
func (p RawPosition) Check() error {
	switch {
	case !finite(p.Longitude):
		return fmt.Errorf("longitude %v: %w", p.Longitude, ErrNonFinite)
	case !finite(p.Latitude):
		return fmt.Errorf("latitude %v: %w", p.Latitude, ErrNonFinite)
	case !finite(p.DistanceAU):
		return fmt.Errorf("distance %v: %w", p.DistanceAU, ErrNonFinite)
	case !finite(p.Speed):
		return fmt.Errorf("speed %v: %w", p.Speed, ErrNonFinite)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RawHouses is a tropical house frame: twelve cusps plus the angles.
type RawHouses struct {
	System    HouseSystem `json:"system" yaml:"system"`
	Cusps     [12]float64 `json:"cusps" yaml:"cusps"`
	Ascendant float64     `json:"ascendant" yaml:"asc"`
	Midheaven float64     `json:"midheaven" yaml:"mc"`
}

// Check rejects a frame with a NaN or infinite cusp or angle.
func (h RawHouses) Check() error {
	for i, c := range h.Cusps {
		if !finite(c) {
			return fmt.Errorf("cusp %d %v: %w", i+1, c, ErrNonFinite)
		}
	}
	if !finite(h.Ascendant) || !finite(h.Midheaven) {
		return fmt.Errorf("ascendant %v, midheaven %v: %w", h.Ascendant, h.Midheaven, ErrNonFinite)
	}
	return nil
}

// Provider defines the interface for ephemeris data sources.
// All longitudes are tropical; sidereal conversion happens downstream.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// Position returns the tropical position of a body at t.
	// Ketu is never provided; callers derive it from Rahu.
	Position(ctx context.Context, body Body, t time.Time) (RawPosition, error)

	// Houses returns tropical house cusps for an instant and place.
	Houses(ctx context.Context, t time.Time, obs astro.Observer, sys HouseSystem) (RawHouses, error)
}

// Mode represents which ephemeris source to use.
type Mode int

const (
	ModeHorizons Mode = iota // Query JPL Horizons (default)
	ModeSnapshot             // Read a YAML ephemeris snapshot
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeHorizons:
		return "horizons"
	case ModeSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "horizons":
		return ModeHorizons, nil
	case "snapshot":
		return ModeSnapshot, nil
	default:
		return ModeHorizons, fmt.Errorf("unknown ephemeris mode %q (want horizons or snapshot)", s)
	}
}

// HouseSystem identifies a house division method by its conventional letter.
type HouseSystem byte

const (
	Placidus  HouseSystem = 'P'
	Porphyry  HouseSystem = 'O'
	Equal     HouseSystem = 'E'
	WholeSign HouseSystem = 'W'
)

// String returns the house system name.
func (h HouseSystem) String() string {
	switch h {
	case Placidus:
		return "placidus"
	case Porphyry:
		return "porphyry"
	case Equal:
		return "equal"
	case WholeSign:
		return "whole-sign"
	default:
		return "unknown"
	}
}

// ParseHouseSystem accepts a one-letter code or a system name.
func ParseHouseSystem(s string) (HouseSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "p", "placidus":
		return Placidus, nil
	case "o", "porphyry":
		return Porphyry, nil
	case "e", "equal":
		return Equal, nil
	case "w", "whole", "whole-sign", "wholesign":
		return WholeSign, nil
	default:
		return 0, fmt.Errorf("unknown house system %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (h HouseSystem) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *HouseSystem) UnmarshalText(b []byte) error {
	sys, err := ParseHouseSystem(string(b))
	if err != nil {
		return err
	}
	*h = sys
	return nil
}
