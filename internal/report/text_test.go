package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/ephem/ephemtest"
	"github.com/litescript/ls-kp/internal/kp"
)

func TestWriteChartReport(t *testing.T) {
	chart := fixtureChart(t, ephemtest.Provider())

	var buf bytes.Buffer
	WriteChartReport(&buf, chart, reportNow, TextOptions{Antardashas: true})
	out := buf.String()

	for _, want := range []string{
		"fixture @ 1990-11-03T06:01:29Z",
		"Chennai",
		"Planets",
		"House Cusps",
		"Significators",
		"Aspects",
		"Divisional Charts",
		"D9 Navamsa",
		"Vimshottari Dasha",
		"antardashas",
		"(balance)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if cur, ok := kp.CurrentPeriod(chart.Dashas, reportNow); !ok || !strings.Contains(out, kp.DashaEffects(cur.Lord)) {
		t.Error("running period effects missing")
	}
	// Mars is retrograde in the fixture.
	if !strings.Contains(out, "Retrograde (R)") {
		t.Error("retrograde marker missing")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain report should not contain escape codes")
	}
}

func TestWriteChartReportWithoutHouses(t *testing.T) {
	chart := fixtureChart(t, ephemtest.Provider())
	chart.Cusps = nil
	chart.Significators = nil
	chart.HousesErr = &kp.ProviderError{Err: ephem.ErrPolarLatitude}

	var buf bytes.Buffer
	WriteChartReport(&buf, chart, reportNow, TextOptions{})
	out := buf.String()
	if !strings.Contains(out, "unavailable: houses:") {
		t.Errorf("houses failure not reported:\n%s", out)
	}
	if strings.Contains(out, "Significators") {
		t.Error("significators section should be omitted without houses")
	}
}

func TestWriteDashaTable(t *testing.T) {
	periods, err := kp.Schedule(0, ephemtest.Birth, 1)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	WriteDashaTable(&buf, periods, ephemtest.Birth, false)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2", len(lines))
	}
	if !strings.HasPrefix(lines[1], "Ketu") || !strings.Contains(lines[1], "current (balance)") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "Venus") || !strings.Contains(lines[2], "future") {
		t.Errorf("second row = %q", lines[2])
	}
}
