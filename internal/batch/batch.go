// Package batch computes charts for a file of birth records with a bounded
// worker pool.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/litescript/ls-kp/internal/birth"
	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/kp"
	"github.com/litescript/ls-kp/internal/logging"
	"github.com/litescript/ls-kp/internal/metrics"
	"github.com/litescript/ls-kp/internal/report"
)

// DefaultWorkers is used when no worker count is configured.
const DefaultWorkers = 4

// File is the on-disk layout of a batch: a list under "records".
type File struct {
	Records []birth.Record `yaml:"records"`
}

// ParseRecords decodes a batch file. A bare YAML list of records is
// accepted as well as the "records:" form.
func ParseRecords(data []byte) ([]birth.Record, error) {
	var list []birth.Record
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	return f.Records, nil
}

// LoadRecords reads and decodes a batch file.
func LoadRecords(path string) ([]birth.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return ParseRecords(data)
}

// Result is the outcome of one record. Exactly one of Chart and Err is set.
type Result struct {
	Index  int
	Record birth.Record
	Chart  *kp.Chart
	Err    error
}

// Report is a completed run. Results are in input order.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Results  []Result
}

// Failed counts records that produced no chart.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Runner computes batches.
type Runner struct {
	engine   *kp.Engine
	defaults kp.Request
	workers  int
	log      *logging.Logger
	metrics  *metrics.Collector
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of charts computed concurrently.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithDefaults sets chart settings records may leave empty.
func WithDefaults(req kp.Request) Option {
	return func(r *Runner) { r.defaults = req }
}

// WithLogger sets the runner logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithMetrics records per-record outcomes.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = c }
}

// NewRunner creates a batch runner over a chart engine.
func NewRunner(engine *kp.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:  engine,
		workers: DefaultWorkers,
		log:     logging.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run computes a chart for every record. A record that fails does not
// stop the run; only cancellation of ctx does, in which case the error
// is returned with the partial report.
func (r *Runner) Run(ctx context.Context, records []birth.Record) (*Report, error) {
	rep := &Report{
		RunID:   uuid.NewString(),
		Started: r.now(),
		Results: make([]Result, len(records)),
	}
	for i, rec := range records {
		rep.Results[i] = Result{Index: i, Record: rec}
	}
	log := r.log.WithField("run_id", rep.RunID)

	workers := r.workers
	if workers > len(records) {
		workers = len(records)
	}
	log.Info("batch started: %d records, %d workers", len(records), workers)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobs {
				rep.Results[i] = r.compute(ctx, i, records[i])
				res := rep.Results[i]
				if res.Err != nil {
					log.WithField("worker_id", workerID).Warn("record %d (%s): %v", i, res.Record.Name, res.Err)
				}
			}
		}(w)
	}

feed:
	for i := range records {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	rep.Finished = r.now()
	if err := ctx.Err(); err != nil {
		return rep, err
	}
	log.Info("batch finished: %d ok, %d failed in %s", len(records)-rep.Failed(), rep.Failed(),
		rep.Finished.Sub(rep.Started).Round(time.Millisecond))
	return rep, nil
}

func (r *Runner) compute(ctx context.Context, i int, rec birth.Record) Result {
	res := Result{Index: i, Record: rec}
	req, err := rec.Request(r.defaults)
	if err != nil {
		res.Err = err
		r.metrics.RecordBatch(false)
		return res
	}

	started := time.Now()
	chart, err := r.engine.Compute(ctx, req)
	r.metrics.ObserveChart(metrics.ChartOutcome(chart != nil && chart.Complete(), err), time.Since(started))
	r.metrics.RecordBatch(err == nil)
	if err != nil {
		res.Err = err
		return res
	}
	res.Chart = chart
	return res
}

// Unfinished returns the records a cancelled run never computed.
func (r *Report) Unfinished() []int {
	var out []int
	for i, res := range r.Results {
		if res.Chart == nil && res.Err == nil {
			out = append(out, i)
		}
	}
	return out
}

// ResultExport is one record in the JSON output.
type ResultExport struct {
	Index int                 `json:"index"`
	Name  string              `json:"name,omitempty"`
	Chart *report.ChartExport `json:"chart,omitempty"`
	Error string              `json:"error,omitempty"`
}

// ReportExport is the JSON form of a run.
type ReportExport struct {
	RunID    string         `json:"run_id"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	Total    int            `json:"total"`
	Failed   int            `json:"failed"`
	Results  []ResultExport `json:"results"`
}

// Export converts the run for JSON output, evaluating dasha status at now.
func (r *Report) Export(now time.Time) ReportExport {
	out := ReportExport{
		RunID:    r.RunID,
		Started:  r.Started,
		Finished: r.Finished,
		Total:    len(r.Results),
		Failed:   r.Failed(),
		Results:  make([]ResultExport, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		e := ResultExport{Index: res.Index, Name: res.Record.Name}
		switch {
		case res.Err != nil:
			e.Error = res.Err.Error()
		case res.Chart != nil:
			e.Chart = report.ExportChart(res.Chart, now)
		default:
			e.Error = "not computed"
		}
		out.Results = append(out.Results, e)
	}
	return out
}

// WriteJSON writes the run as indented JSON.
func (r *Report) WriteJSON(w io.Writer, now time.Time) error {
	return report.WriteJSON(w, r.Export(now))
}

// WriteSummary prints one line per record: the Ascendant, the Moon's star
// and the mahadasha running at now, or the error.
func (r *Report) WriteSummary(w io.Writer, now time.Time) {
	fmt.Fprintf(w, "Batch %s: %d records, %d failed\n\n", r.RunID, len(r.Results), r.Failed())
	fmt.Fprintf(w, "%-4s %-20s %-22s %-14s %s\n", "#", "NAME", "ASCENDANT", "MOON STAR", "DASHA")
	for _, res := range r.Results {
		name := res.Record.Name
		if name == "" {
			name = "-"
		}
		if res.Chart == nil {
			msg := "not computed"
			if res.Err != nil {
				msg = res.Err.Error()
			}
			fmt.Fprintf(w, "%-4d %-20s error: %s\n", res.Index+1, name, msg)
			continue
		}

		asc, star, dasha := "-", "-", "-"
		if p := res.Chart.Ascendant; p != nil {
			asc = report.FormatPosition(p.Location)
		}
		if moon, ok := res.Chart.Position(ephem.Moon); ok {
			star = moon.Location.Nakshatra.String()
		}
		if cur, ok := kp.CurrentPeriod(res.Chart.Dashas, now); ok {
			dasha = string(cur.Lord)
		}
		fmt.Fprintf(w, "%-4d %-20s %-22s %-14s %s\n", res.Index+1, name, asc, star, dasha)
	}
}
