// Package report renders computed charts as JSON and as text tables.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/litescript/ls-kp/internal/kp"
)

// FormatDMS renders an angle as degrees, minutes and whole seconds, e.g.
// 13°20'00". Rounding carries into minutes and degrees.
func FormatDMS(deg float64) string {
	sign := ""
	if deg < 0 {
		sign = "-"
		deg = -deg
	}
	total := int64(math.Round(deg * 3600))
	d := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%s%d°%02d'%02d\"", sign, d, m, s)
}

// FormatPosition renders a zodiac location as "Leo 13°20'00\"".
func FormatPosition(loc kp.ZodiacLocation) string {
	return fmt.Sprintf("%s %s", loc.Sign, FormatDMS(loc.DegreeInSign))
}

// FormatYears renders a period length as whole years, months and days,
// using mean months of a Julian year.
func FormatYears(years float64) string {
	const eps = 1e-9
	y := math.Floor(years + eps)
	months := (years-y)*12 + eps
	m := math.Floor(months)
	d := math.Floor((months - m) * kp.DaysPerYear / 12)
	return fmt.Sprintf("%dy %dm %dd", int(y), int(m), int(d))
}

// FormatDate renders the calendar date of t in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
