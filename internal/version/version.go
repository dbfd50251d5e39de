// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - HTTP API, batch charts, transit watch with event detection
// 0.2.0 - Dasha schedule with antardashas, significators, divisional charts
// 0.1.0 - Initial release: KP chart core, Horizons ephemeris, chart report
