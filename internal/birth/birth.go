// Package birth parses the date, clock time and zone of a birth record
// into a UTC instant.
package birth

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse combines a date, a clock time and a zone into a UTC instant.
//
// Dates are YYYY-MM-DD or DD/MM/YYYY. Times are HH:MM or HH:MM:SS with an
// optional AM/PM suffix. The zone is an IANA name ("Asia/Kolkata"), a UTC
// offset ("+05:30", "-0800") or empty for UTC.
func Parse(date, clock, zone string) (time.Time, error) {
	y, mo, d, err := parseDate(strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, err
	}
	h, mi, s, err := parseClock(strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, err
	}
	loc, err := ParseZone(zone)
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(y, time.Month(mo), d, h, mi, s, 0, loc)
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, fmt.Errorf("date %q does not exist", date)
	}
	return t.UTC(), nil
}

// ParseZone resolves an IANA zone name or a fixed UTC offset.
func ParseZone(zone string) (*time.Location, error) {
	zone = strings.TrimSpace(zone)
	switch strings.ToUpper(zone) {
	case "", "UTC", "Z", "GMT":
		return time.UTC, nil
	}
	if zone[0] == '+' || zone[0] == '-' {
		return parseOffset(zone)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", zone, err)
	}
	return loc, nil
}

func parseOffset(zone string) (*time.Location, error) {
	sign := 1
	if zone[0] == '-' {
		sign = -1
	}
	digits := strings.ReplaceAll(zone[1:], ":", "")
	if len(digits) != 2 && len(digits) != 4 {
		return nil, fmt.Errorf("invalid UTC offset %q (want ±HH:MM)", zone)
	}
	h, err := strconv.Atoi(digits[:2])
	if err != nil {
		return nil, fmt.Errorf("invalid UTC offset %q", zone)
	}
	m := 0
	if len(digits) == 4 {
		if m, err = strconv.Atoi(digits[2:]); err != nil {
			return nil, fmt.Errorf("invalid UTC offset %q", zone)
		}
	}
	if h > 14 || m > 59 {
		return nil, fmt.Errorf("UTC offset %q out of range", zone)
	}
	return time.FixedZone("UTC"+zone, sign*(h*3600+m*60)), nil
}

func parseDate(s string) (y, m, d int, err error) {
	var parts []string
	dayFirst := false
	switch {
	case strings.Contains(s, "-"):
		parts = strings.Split(s, "-")
	case strings.Contains(s, "/"):
		parts = strings.Split(s, "/")
		dayFirst = true
	default:
		return 0, 0, 0, fmt.Errorf("invalid date %q (want YYYY-MM-DD or DD/MM/YYYY)", s)
	}
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid date %q (want YYYY-MM-DD or DD/MM/YYYY)", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		if nums[i], err = strconv.Atoi(p); err != nil {
			return 0, 0, 0, fmt.Errorf("invalid date %q: %w", s, err)
		}
	}
	if dayFirst {
		d, m, y = nums[0], nums[1], nums[2]
	} else {
		y, m, d = nums[0], nums[1], nums[2]
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return 0, 0, 0, fmt.Errorf("invalid date %q", s)
	}
	return y, m, d, nil
}

func parseClock(s string) (h, m, sec int, err error) {
	if s == "" {
		return 0, 0, 0, fmt.Errorf("birth time is required")
	}
	period := ""
	if fields := strings.Fields(s); len(fields) == 2 {
		s, period = fields[0], strings.ToUpper(fields[1])
	} else if up := strings.ToUpper(s); strings.HasSuffix(up, "AM") || strings.HasSuffix(up, "PM") {
		s, period = strings.TrimSpace(s[:len(s)-2]), up[len(up)-2:]
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, fmt.Errorf("invalid time %q (want HH:MM[:SS] [AM|PM])", s)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		if vals[i], err = strconv.Atoi(p); err != nil {
			return 0, 0, 0, fmt.Errorf("invalid time %q: %w", s, err)
		}
	}
	h, m, sec = vals[0], vals[1], vals[2]

	switch period {
	case "":
	case "AM", "PM":
		if h < 1 || h > 12 {
			return 0, 0, 0, fmt.Errorf("invalid 12-hour time %q %s", s, period)
		}
		if period == "PM" && h != 12 {
			h += 12
		} else if period == "AM" && h == 12 {
			h = 0
		}
	default:
		return 0, 0, 0, fmt.Errorf("invalid time suffix %q", period)
	}

	if h > 23 || m > 59 || sec > 59 || h < 0 || m < 0 || sec < 0 {
		return 0, 0, 0, fmt.Errorf("time %q out of range", s)
	}
	return h, m, sec, nil
}
