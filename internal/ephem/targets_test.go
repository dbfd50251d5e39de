package ephem

import "testing"

func TestTargetsByNAIF(t *testing.T) {
	tests := []struct {
		id   TargetID
		want Body
	}{
		{NAIFSun, Sun},
		{NAIFMoon, Moon},
		{NAIFMercury, Mercury},
		{NAIFSaturn, Saturn},
		{NAIFPluto, Pluto},
	}

	for _, tc := range tests {
		t.Run(string(tc.want), func(t *testing.T) {
			got, ok := GetTargetByNAIF(tc.id)
			if !ok || got.Body != tc.want {
				t.Errorf("GetTargetByNAIF(%d) = %v, %v; want %v", tc.id, got.Body, ok, tc.want)
			}
		})
	}
}

func TestNodesHaveNoNAIFID(t *testing.T) {
	for _, b := range []Body{Rahu, Ketu} {
		info := TargetsByBody[b]
		if info.NAIFID != 0 || !info.Node {
			t.Errorf("%s: NAIFID=%d Node=%v, want computed node", b, info.NAIFID, info.Node)
		}
	}
	if !TargetsByBody[Ketu].Derived {
		t.Error("Ketu must be marked as derived")
	}
}

func TestParseBody(t *testing.T) {
	tests := []struct {
		in   string
		want Body
		ok   bool
	}{
		{"sun", Sun, true},
		{"  Jupiter ", Jupiter, true},
		{"RAHU", Rahu, true},
		{"north node", Rahu, true},
		{"South Node", Ketu, true},
		{"Pluto", Pluto, true},
		{"Chiron", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseBody(tc.in)
			if got != tc.want || ok != tc.ok {
				t.Errorf("ParseBody(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestBodyClassification(t *testing.T) {
	if len(ClassicalBodies) != 9 {
		t.Errorf("ClassicalBodies has %d entries, want 9", len(ClassicalBodies))
	}
	if len(AllBodies()) != len(Targets) {
		t.Errorf("AllBodies() length mismatch")
	}
	if !Sun.IsLuminary() || Mars.IsLuminary() {
		t.Error("IsLuminary misclassifies")
	}
	if !Ketu.IsNode() || Moon.IsNode() {
		t.Error("IsNode misclassifies")
	}
	if Body("Chiron").Known() {
		t.Error("unknown body reported as known")
	}
	if Mars.Glyph() != "♂" || Body("Chiron").Glyph() != "C" {
		t.Errorf("Glyph() = %q / %q", Mars.Glyph(), Body("Chiron").Glyph())
	}
}
