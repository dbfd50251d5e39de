// Package ephemtest provides a fixed ephemeris for tests.
package ephemtest

import (
	"time"

	"github.com/litescript/ls-kp/internal/ephem"
)

// Birth is the instant the fixture was captured at.
var Birth = time.Date(1990, 11, 3, 6, 1, 29, 0, time.UTC)

// FixtureYAML is a snapshot with every body except Ketu and a Placidus
// house frame for a southern-Indian birthplace.
const FixtureYAML = `
time: 1990-11-03T06:01:29Z
source: fixture
bodies:
  Sun:     {lon: 220.52, lat: 0.0, dist: 0.9920, speed: 0.9996}
  Moon:    {lon: 47.45, lat: -4.21, dist: 0.0026, speed: 13.18}
  Mercury: {lon: 205.10, lat: 1.3, dist: 1.38, speed: 1.21}
  Venus:   {lon: 214.85, lat: 0.9, dist: 1.71, speed: 1.24}
  Mars:    {lon: 85.00, lat: 1.1, dist: 0.55, speed: -0.2}
  Jupiter: {lon: 131.40, lat: 0.6, dist: 5.12, speed: 0.05}
  Saturn:  {lon: 290.20, lat: 0.1, dist: 10.4, speed: 0.05}
  Rahu:    {lon: 310.00, speed: -0.053}
  Uranus:  {lon: 276.30, dist: 20.0, speed: 0.03}
  Neptune: {lon: 283.00, dist: 30.8, speed: 0.02}
  Pluto:   {lon: 227.10, dist: 30.5, speed: 0.04}
houses:
  system: placidus
  cusps: [250.3, 279.6, 312.1, 345.0, 15.7, 42.4, 70.3, 99.6, 132.1, 165.0, 195.7, 222.4]
  asc: 250.3
  mc: 165.0
`

// Snapshot returns the parsed fixture.
func Snapshot() ephem.Snapshot {
	snap, err := ephem.ParseSnapshot([]byte(FixtureYAML))
	if err != nil {
		panic(err)
	}
	return snap
}

// Provider returns a provider serving the fixture.
func Provider() *ephem.SnapshotProvider {
	return ephem.NewSnapshotProvider(Snapshot())
}
