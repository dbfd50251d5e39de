package kp

import "github.com/litescript/ls-kp/internal/ephem"

// Significators lists the bodies that signify one house.
type Significators struct {
	House     int          `json:"house"`
	Occupants []ephem.Body `json:"occupants"`
	StarLords []ephem.Body `json:"star_lords"` // star lords of the occupants
	SignLord  ephem.Body   `json:"sign_lord"`  // ruler of the cusp sign
	SubLord   ephem.Body   `json:"sub_lord"`   // cusp sub-lord
	Strong    []ephem.Body `json:"strong"`     // occupants and their star lords
	Weak      []ephem.Body `json:"weak"`       // cusp sign lord and sub-lord
}

// Analyze assigns every body to exactly one house and collects the four
// significator groups per house. A body listed more than once is counted
// at its first position only.
func Analyze(positions []BodyPosition, cusps Cusps) [12]Significators {
	var out [12]Significators
	for i := range out {
		out[i] = Significators{
			House:     i + 1,
			Occupants: []ephem.Body{},
			StarLords: []ephem.Body{},
			SignLord:  cusps[i].Location.SignLord(),
			SubLord:   cusps[i].SubLord.Lord,
		}
	}

	seen := make(map[ephem.Body]bool, len(positions))
	for _, p := range positions {
		if seen[p.Body] {
			continue
		}
		seen[p.Body] = true

		s := &out[HouseOf(p.Longitude, cusps)-1]
		s.Occupants = append(s.Occupants, p.Body)
		s.StarLords = appendUnique(s.StarLords, p.Location.StarLord)
	}

	for i := range out {
		s := &out[i]
		s.Strong = appendUnique(append([]ephem.Body{}, s.Occupants...), s.StarLords...)
		s.Weak = appendUnique([]ephem.Body{s.SignLord}, s.SubLord)
	}
	return out
}

// SignifiedHouses returns the houses a body signifies strongly and weakly.
func SignifiedHouses(sigs [12]Significators, body ephem.Body) (strong, weak []int) {
	for _, s := range sigs {
		if contains(s.Strong, body) {
			strong = append(strong, s.House)
		}
		if contains(s.Weak, body) {
			weak = append(weak, s.House)
		}
	}
	return strong, weak
}

func appendUnique(list []ephem.Body, bodies ...ephem.Body) []ephem.Body {
	for _, b := range bodies {
		if !contains(list, b) {
			list = append(list, b)
		}
	}
	return list
}

func contains(list []ephem.Body, b ephem.Body) bool {
	for _, x := range list {
		if x == b {
			return true
		}
	}
	return false
}
