package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/ephem/ephemtest"
	"github.com/litescript/ls-kp/internal/kp"
	"github.com/litescript/ls-kp/internal/metrics"
)

const recordsYAML = `
records:
  - name: first
    datetime: "1990-11-03T06:01:29Z"
  - name: undated
    time: "10:00"
  - name: second
    date: "03/11/1990"
    time: "11:31:29 AM"
    timezone: "+05:30"
    latitude: 28.61
    longitude: 77.21
  - name: polar-ish
    datetime: "1990-11-03T06:01:29Z"
    latitude: 95
    longitude: 0
`

func testDefaults() kp.Request {
	return kp.Request{
		Observer: astro.Observer{LatDeg: 13.08, LonDeg: 80.27},
		Ayanamsa: kp.AyanamsaOf(astro.Tropical),
	}
}

func TestParseRecords(t *testing.T) {
	recs, err := ParseRecords([]byte(recordsYAML))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 || recs[2].Name != "second" || recs[2].Latitude == nil || *recs[2].Latitude != 28.61 {
		t.Fatalf("records = %+v", recs)
	}

	bare, err := ParseRecords([]byte("- name: a\n  datetime: \"2000-01-01T00:00:00Z\"\n- name: b\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(bare) != 2 || bare[1].Name != "b" {
		t.Errorf("bare list = %+v", bare)
	}

	if _, err := ParseRecords([]byte("records: [unterminated")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "births.yaml")
	if err := os.WriteFile(path, []byte(recordsYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	recs, err := LoadRecords(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 {
		t.Errorf("got %d records", len(recs))
	}
	if _, err := LoadRecords(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRun(t *testing.T) {
	recs, err := ParseRecords([]byte(recordsYAML))
	if err != nil {
		t.Fatal(err)
	}
	c, err := metrics.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	r := NewRunner(kp.NewEngine(ephemtest.Provider()), WithWorkers(3), WithDefaults(testDefaults()), WithMetrics(c))
	rep, err := r.Run(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}

	if rep.RunID == "" {
		t.Error("missing run ID")
	}
	if len(rep.Results) != len(recs) {
		t.Fatalf("got %d results, want %d", len(rep.Results), len(recs))
	}
	for i, res := range rep.Results {
		if res.Index != i || res.Record.Name != recs[i].Name {
			t.Errorf("result %d out of order: %d %s", i, res.Index, res.Record.Name)
		}
		if (res.Chart == nil) == (res.Err == nil) {
			t.Errorf("result %d: exactly one of chart and error must be set", i)
		}
	}
	if rep.Failed() != 2 {
		t.Errorf("Failed() = %d, want 2", rep.Failed())
	}
	for _, i := range []int{1, 3} {
		if !errors.Is(rep.Results[i].Err, kp.ErrInvalidInput) {
			t.Errorf("result %d err = %v, want ErrInvalidInput", i, rep.Results[i].Err)
		}
	}
	if got := rep.Results[2].Chart.Observer.LatDeg; got != 28.61 {
		t.Errorf("second record latitude = %v", got)
	}
	if len(rep.Unfinished()) != 0 {
		t.Errorf("Unfinished() = %v", rep.Unfinished())
	}

	if got := testutil.ToFloat64(c.BatchRecords.WithLabelValues("ok")); got != 2 {
		t.Errorf("batch ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.BatchRecords.WithLabelValues("error")); got != 2 {
		t.Errorf("batch error = %v, want 2", got)
	}
}

func TestRunCancelled(t *testing.T) {
	recs, _ := ParseRecords([]byte(recordsYAML))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := NewRunner(kp.NewEngine(ephemtest.Provider()), WithDefaults(testDefaults())).Run(ctx, recs)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if rep == nil || len(rep.Results) != len(recs) {
		t.Fatal("partial report missing")
	}
	for _, res := range rep.Results {
		if res.Chart != nil {
			t.Errorf("record %d computed after cancellation", res.Index)
		}
	}
}

func TestRunEmpty(t *testing.T) {
	rep, err := NewRunner(kp.NewEngine(ephemtest.Provider())).Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Results) != 0 || rep.Failed() != 0 {
		t.Errorf("empty run = %+v", rep)
	}
}

func TestReportOutput(t *testing.T) {
	recs, _ := ParseRecords([]byte(recordsYAML))
	rep, err := NewRunner(kp.NewEngine(ephemtest.Provider()), WithDefaults(testDefaults())).Run(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}

	exp := rep.Export(ephemtest.Birth)
	if exp.Total != 4 || exp.Failed != 2 || len(exp.Results) != 4 {
		t.Fatalf("export = %+v", exp)
	}
	if exp.Results[0].Chart == nil || exp.Results[1].Error == "" {
		t.Errorf("export results = %+v", exp.Results[:2])
	}

	var buf bytes.Buffer
	if err := rep.WriteJSON(&buf, ephemtest.Birth); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"run_id": "`+rep.RunID+`"`) {
		t.Error("JSON output missing run ID")
	}

	buf.Reset()
	rep.WriteSummary(&buf, ephemtest.Birth)
	out := buf.String()
	for _, want := range []string{"first", "second", "undated", "error:", "Rohini"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
