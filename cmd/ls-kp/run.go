package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/litescript/ls-kp/internal/batch"
	"github.com/litescript/ls-kp/internal/birth"
	"github.com/litescript/ls-kp/internal/config"
	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/kp"
	"github.com/litescript/ls-kp/internal/logging"
	"github.com/litescript/ls-kp/internal/metrics"
	"github.com/litescript/ls-kp/internal/report"
	"github.com/litescript/ls-kp/internal/server"
	"github.com/litescript/ls-kp/internal/state"
	"github.com/litescript/ls-kp/internal/ui"
)

// app holds the components shared by every run mode.
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	metrics  *metrics.Collector
	engine   *kp.Engine
	defaults kp.Request
	out      io.Writer
}

func newApp(cfg *config.Config, logger *logging.Logger) (*app, error) {
	collector, err := metrics.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Using %s ephemeris", provider.Name())

	return &app{
		cfg:     cfg,
		log:     logger,
		metrics: collector,
		engine:  kp.NewEngine(collector.InstrumentProvider(provider), kp.WithLogger(logger)),
		defaults: kp.Request{
			Observer:     cfg.Observer(),
			Ayanamsa:     kp.AyanamsaOf(cfg.Ayanamsa()),
			HouseSystem:  cfg.HouseSystem(),
			IncludeOuter: cfg.Chart.IncludeOuter,
			DashaCount:   kp.Count(cfg.Chart.DashaCount),
		},
		out: os.Stdout,
	}, nil
}

func newProvider(cfg *config.Config) (ephem.Provider, error) {
	if cfg.Mode() == ephem.ModeSnapshot {
		p, err := ephem.LoadSnapshot(cfg.Ephemeris.SnapshotPath)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		return p, nil
	}
	return ephem.NewHorizonsProvider(
		ephem.WithBaseURL(cfg.Ephemeris.HorizonsURL),
		ephem.WithTimeout(cfg.Ephemeris.Timeout),
		ephem.WithRateLimit(cfg.Ephemeris.RateLimit),
	), nil
}

// reportOptions control the chart subcommand's output.
type reportOptions struct {
	json         bool
	noColor      bool
	antardashas  bool
	saveSnapshot string
}

// natal resolves a birth record against the config defaults and computes
// its chart. A non-empty snapshotPath also captures the raw ephemeris.
func (a *app) natal(ctx context.Context, rec birth.Record, snapshotPath string) (*kp.Chart, error) {
	if rec.Instant == "" && rec.Date == "" {
		return nil, errors.New("a birth --date or --datetime is required")
	}
	req, err := rec.Request(a.defaults)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	chart, err := a.engine.Compute(ctx, req)
	a.metrics.ObserveChart(metrics.ChartOutcome(chart != nil && chart.Complete(), err), time.Since(start))
	if err != nil {
		return nil, err
	}

	log := a.log.WithField("chart", chart.ID)
	for _, f := range chart.Failures() {
		log.WithField("body", f.Body).WithError(f.Err).Warn("Position unavailable")
	}
	if chart.HousesErr != nil {
		log.WithError(chart.HousesErr).Warn("Houses unavailable")
	}

	if snapshotPath != "" {
		if err := a.saveSnapshot(ctx, req, snapshotPath); err != nil {
			return nil, err
		}
	}
	return chart, nil
}

// runReport prints one chart as text or JSON.
func (a *app) runReport(ctx context.Context, rec birth.Record, opts reportOptions) error {
	chart, err := a.natal(ctx, rec, opts.saveSnapshot)
	if err != nil {
		return err
	}

	now := time.Now()
	if opts.json {
		export := report.ExportChart(chart, now)
		export.Dashas = report.ExportDashas(chart.Dashas, now, opts.antardashas)
		return export.WriteJSON(a.out)
	}

	color := !opts.noColor && a.out == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
	report.WriteChartReport(a.out, chart, now, report.TextOptions{Color: color, Antardashas: opts.antardashas})
	return nil
}

func (a *app) saveSnapshot(ctx context.Context, req kp.Request, path string) error {
	req = req.WithDefaults()
	snap, err := ephem.CaptureSnapshot(ctx, a.engine.Provider(), req.Time, req.Observer, req.HouseSystem, req.Bodies)
	if err != nil {
		return fmt.Errorf("capture snapshot: %w", err)
	}
	if err := ephem.WriteSnapshot(path, snap); err != nil {
		return err
	}
	a.log.Info("Snapshot written to %s", path)
	return nil
}

// runBatch computes every record in a file and prints the results.
func (a *app) runBatch(ctx context.Context, path string, jsonOut bool) error {
	records, err := batch.LoadRecords(path)
	if err != nil {
		return err
	}

	runner := batch.NewRunner(a.engine,
		batch.WithWorkers(a.cfg.Batch.Workers),
		batch.WithDefaults(a.defaults),
		batch.WithLogger(a.log),
		batch.WithMetrics(a.metrics),
	)
	rep, runErr := runner.Run(ctx, records)
	if rep == nil {
		return runErr
	}

	now := time.Now()
	if jsonOut {
		if err := rep.WriteJSON(a.out, now); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	} else {
		rep.WriteSummary(a.out, now)
	}

	if runErr != nil {
		return fmt.Errorf("batch interrupted with %d records unfinished: %w", len(rep.Unfinished()), runErr)
	}
	if n := rep.Failed(); n > 0 {
		return fmt.Errorf("%d of %d records failed", n, len(rep.Results))
	}
	return nil
}

// serve runs the HTTP API until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	srv := server.New(a.engine,
		server.WithLogger(a.log),
		server.WithMetrics(a.metrics),
		server.WithDefaults(a.defaults),
	)
	return srv.ListenAndServe(ctx, a.cfg.Server)
}

// runTUI opens the chart viewer and keeps transits refreshed in the
// background.
func (a *app) runTUI(ctx context.Context, rec birth.Record) error {
	natal, err := a.natal(ctx, rec, "")
	if err != nil {
		return err
	}

	stateCfg := state.DefaultConfig()
	stateCfg.RefreshInterval = a.cfg.Transits.RefreshInterval
	stateCfg.MaxEvents = a.cfg.Transits.MaxEvents
	stateCfg.OnEvent = func(e state.Event) {
		a.metrics.RecordTransitEvent(string(e.Type))
	}
	stateMgr := state.NewManager(stateCfg)

	// Console logs would tear the alt screen.
	switch a.cfg.Logging.Output {
	case "", "stderr", "stdout":
		a.log.SetOutput(io.Discard)
	}

	p := tea.NewProgram(ui.New(natal, stateMgr), tea.WithAltScreen(), tea.WithContext(ctx))

	go a.runFetchLoop(ctx, natal, stateMgr, p)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}

func (a *app) runFetchLoop(ctx context.Context, natal *kp.Chart, stateMgr *state.Manager, p *tea.Program) {
	a.doFetch(ctx, natal, stateMgr, p)

	ticker := time.NewTicker(stateMgr.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Debug("Transit loop shutting down")
			return
		case <-ticker.C:
			a.doFetch(ctx, natal, stateMgr, p)
		}
	}
}

// doFetch computes the sky now for the natal observer.
func (a *app) doFetch(ctx context.Context, natal *kp.Chart, stateMgr *state.Manager, p *tea.Program) {
	start := time.Now()
	chart, err := a.engine.Compute(ctx, kp.TransitRequest(natal, start, a.defaults.IncludeOuter))
	dur := time.Since(start)
	a.metrics.ObserveChart(metrics.ChartOutcome(chart != nil && chart.Complete(), err), dur)

	if err != nil {
		a.log.Error("Transit fetch failed: %v", err)
		stateMgr.Update(nil, dur, err)
		p.Send(ui.ErrorMsg{Error: err})
		return
	}

	a.log.Debug("Transits computed in %v", dur)
	stateMgr.Update(chart, dur, nil)
	p.Send(ui.DataUpdateMsg{Snapshot: stateMgr.Snapshot()})
}
