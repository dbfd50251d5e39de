package kp

import (
	"iter"
	"math"
	"time"

	"github.com/litescript/ls-kp/internal/ephem"
)

// DaysPerYear is the Julian year used to turn dasha years into days.
const DaysPerYear = 365.25

// DashaLevel distinguishes major periods from their sub-periods.
type DashaLevel int

const (
	Mahadasha DashaLevel = iota + 1
	Antardasha
)

func (l DashaLevel) String() string {
	switch l {
	case Mahadasha:
		return "Mahadasha"
	case Antardasha:
		return "Antardasha"
	default:
		return "Unknown"
	}
}

// DashaPeriod is one interval of the Vimshottari sequence.
type DashaPeriod struct {
	Lord     ephem.Body    `json:"lord"`
	Parent   ephem.Body    `json:"parent,omitempty"` // mahadasha lord of an antardasha
	Level    DashaLevel    `json:"level"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
	// BirthRemainder marks the partial period running at birth.
	BirthRemainder bool `json:"birth_remainder"`
}

var dashaEffects = map[ephem.Body]string{
	ephem.Sun:     "Leadership, authority, government connections, health issues related to heart/eyes, father's influence",
	ephem.Moon:    "Emotional changes, travel, public recognition, mother's influence, mental peace or disturbance",
	ephem.Mercury: "Education, communication, business, writing, short travels, intellectual pursuits",
	ephem.Venus:   "Marriage, relationships, luxury, arts, beauty, vehicles, material comforts",
	ephem.Mars:    "Energy, conflicts, property matters, surgery, accidents, brother's influence",
	ephem.Jupiter: "Wisdom, spirituality, teaching, children, guru's blessings, financial gains",
	ephem.Saturn:  "Hard work, delays, obstacles, chronic health issues, servants, foreign connections",
	ephem.Rahu:    "Sudden changes, foreign influences, unconventional paths, material desires, confusion",
	ephem.Ketu:    "Spirituality, detachment, research, past karma results, health problems",
}

// DashaEffects returns the general themes of a period ruled by lord.
func DashaEffects(lord ephem.Body) string {
	if e, ok := dashaEffects[lord]; ok {
		return e
	}
	return "Unknown planetary influence"
}

// DashaStatus places a period relative to an instant.
type DashaStatus string

const (
	StatusPast    DashaStatus = "past"
	StatusCurrent DashaStatus = "current"
	StatusFuture  DashaStatus = "future"
)

// Status reports whether the period has ended, is running, or has yet to
// begin at the given instant.
func (p DashaPeriod) Status(at time.Time) DashaStatus {
	switch {
	case !at.Before(p.End):
		return StatusPast
	case !at.Before(p.Start):
		return StatusCurrent
	default:
		return StatusFuture
	}
}

// Years returns the period length in Julian years.
func (p DashaPeriod) Years() float64 {
	return p.Duration.Hours() / 24 / DaysPerYear
}

func yearsToDuration(years float64) time.Duration {
	return time.Duration(years * DaysPerYear * float64(24*time.Hour))
}

// BirthDasha returns the lord ruling at birth and the fraction of its
// period still to run, in (0, 1].
func BirthDasha(moonLon float64) (lord ephem.Body, remaining float64) {
	loc := Locate(moonLon)
	elapsed := moonLon - float64(loc.Nakshatra)*NakshatraSpan
	remaining = (NakshatraSpan - elapsed) / NakshatraSpan
	if remaining > 1 {
		remaining = 1
	} else if remaining <= 0 {
		remaining = math.SmallestNonzeroFloat64
	}
	return loc.StarLord, remaining
}

// Mahadashas yields the birth remainder followed by complete periods in
// cyclic order, indefinitely. Stop ranging to end the sequence.
func Mahadashas(moonLon float64, birth time.Time) iter.Seq[DashaPeriod] {
	lord, remaining := BirthDasha(moonLon)
	return func(yield func(DashaPeriod) bool) {
		d := yearsToDuration(remaining * DashaYears(lord))
		p := DashaPeriod{
			Lord:           lord,
			Level:          Mahadasha,
			Start:          birth,
			End:            birth.Add(d),
			Duration:       d,
			BirthRemainder: true,
		}
		idx := dashaIndex(lord)
		for yield(p) {
			idx = (idx + 1) % len(DashaOrder)
			next := DashaOrder[idx]
			d = yearsToDuration(DashaYears(next))
			p = DashaPeriod{
				Lord:     next,
				Level:    Mahadasha,
				Start:    p.End,
				End:      p.End.Add(d),
				Duration: d,
			}
		}
	}
}

// Schedule returns the birth-remainder period followed by count complete
// periods, count+1 entries in all.
func Schedule(moonLon float64, birth time.Time, count int) ([]DashaPeriod, error) {
	if count < 0 {
		return nil, invalid("count", "must not be negative, got %d", count)
	}
	out := make([]DashaPeriod, 0, count+1)
	for p := range Mahadashas(moonLon, birth) {
		out = append(out, p)
		if len(out) == count+1 {
			break
		}
	}
	return out, nil
}

// Antardashas divides a mahadasha into nine sub-periods proportional to
// each lord's weight, beginning with the mahadasha lord. For the birth
// remainder the sub-periods are laid out over the full theoretical period
// and those that finished before birth are dropped; the one running at
// birth is clipped to start at birth.
func Antardashas(maha DashaPeriod) []DashaPeriod {
	full := yearsToDuration(DashaYears(maha.Lord))
	cursor := maha.End.Add(-full)

	start := dashaIndex(maha.Lord)
	if start < 0 {
		return nil
	}

	out := make([]DashaPeriod, 0, len(DashaOrder))
	for i := 0; i < len(DashaOrder); i++ {
		lord := DashaOrder[(start+i)%len(DashaOrder)]
		d := yearsToDuration(DashaYears(maha.Lord) * DashaYears(lord) / CycleYears)
		end := cursor.Add(d)
		if i == len(DashaOrder)-1 {
			end = maha.End
		}

		p := DashaPeriod{
			Lord:   lord,
			Parent: maha.Lord,
			Level:  Antardasha,
			Start:  cursor,
			End:    end,
		}
		cursor = end

		if !p.End.After(maha.Start) {
			continue
		}
		if p.Start.Before(maha.Start) {
			p.Start = maha.Start
			p.BirthRemainder = true
		}
		p.Duration = p.End.Sub(p.Start)
		out = append(out, p)
	}
	return out
}

// CurrentPeriod returns the period running at the given instant.
func CurrentPeriod(periods []DashaPeriod, at time.Time) (DashaPeriod, bool) {
	for _, p := range periods {
		if p.Status(at) == StatusCurrent {
			return p, true
		}
	}
	return DashaPeriod{}, false
}
