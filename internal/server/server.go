// Package server exposes chart and dasha computation over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	stdlog "log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/litescript/ls-kp/internal/birth"
	"github.com/litescript/ls-kp/internal/config"
	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/kp"
	"github.com/litescript/ls-kp/internal/logging"
	"github.com/litescript/ls-kp/internal/metrics"
	"github.com/litescript/ls-kp/internal/report"
	"github.com/litescript/ls-kp/internal/version"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 30 * time.Second

	// RequestIDHeader carries the per-request ID in both directions.
	RequestIDHeader = "X-Request-ID"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status   string    `json:"status"`
	Version  string    `json:"version"`
	Provider string    `json:"provider"`
	Time     time.Time `json:"time"`
}

// DashaRequest asks for a Vimshottari schedule. Either MoonLongitude
// (sidereal degrees) is given or the Moon is computed from the birth
// record.
type DashaRequest struct {
	birth.Record
	MoonLongitude *float64 `json:"moon_longitude,omitempty"`
	// At is the RFC 3339 instant period status is evaluated at; now if empty.
	At          string `json:"at,omitempty"`
	Antardashas bool   `json:"antardashas,omitempty"`
}

// DashaResponse is the schedule with the birth balance.
type DashaResponse struct {
	BirthTime     time.Time            `json:"birth_time"`
	MoonLongitude float64              `json:"moon_longitude"`
	Nakshatra     string               `json:"nakshatra"`
	Lord          ephem.Body           `json:"lord"`
	BalanceYears  float64              `json:"balance_years"`
	Balance       string               `json:"balance"`
	Current       *report.DashaExport  `json:"current,omitempty"`
	Periods       []report.DashaExport `json:"periods"`
}

// Server serves the chart API.
type Server struct {
	engine   *kp.Engine
	defaults kp.Request
	log      *logging.Logger
	metrics  *metrics.Collector
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics records HTTP and chart metrics and serves /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithDefaults sets the chart settings used when a request omits them.
func WithDefaults(req kp.Request) Option {
	return func(s *Server) { s.defaults = req }
}

// WithClock overrides the clock used for dasha status.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server over a chart engine.
func New(engine *kp.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		log:    logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with all routes and middleware installed.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.requestID, s.instrument)
	s.RegisterRoutes(router)
	return router
}

// RegisterRoutes registers all API routes.
func (s *Server) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/charts", s.CreateChart).Methods(http.MethodPost)
	api.HandleFunc("/dasha", s.CreateDasha).Methods(http.MethodPost)
	api.HandleFunc("/transits", s.Transits).Methods(http.MethodGet)

	router.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	// A subrouter resolves its own mismatches.
	for _, rt := range []*mux.Router{router, api} {
		rt.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowed)
		rt.NotFoundHandler = http.HandlerFunc(s.notFound)
	}
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.sendError(w, r, "method_not_allowed", fmt.Sprintf("%s is not supported on %s", r.Method, r.URL.Path), http.StatusMethodNotAllowed)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.sendError(w, r, "not_found", "no route for "+r.URL.Path, http.StatusNotFound)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	errLog := s.log.Writer()
	defer errLog.Close()

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorLog:     stdlog.New(errLog, "", 0),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP API listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down HTTP API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// CreateChart handles POST /api/v1/charts.
func (s *Server) CreateChart(w http.ResponseWriter, r *http.Request) {
	var rec birth.Record
	if !s.decode(w, r, &rec) {
		return
	}

	req, err := rec.Request(s.defaults)
	if err != nil {
		s.sendComputeError(w, r, err)
		return
	}

	started := time.Now()
	chart, err := s.engine.Compute(r.Context(), req)
	s.metrics.ObserveChart(metrics.ChartOutcome(chart != nil && chart.Complete(), err), time.Since(started))
	if err != nil {
		s.sendComputeError(w, r, err)
		return
	}

	s.logger(r).WithField("chart_id", chart.ID).Debug("chart computed, %d failures", len(chart.Failures()))

	export := report.ExportChart(chart, s.now())
	// Sub-periods only on request.
	export.Dashas = report.ExportDashas(chart.Dashas, s.now(), r.URL.Query().Get("antardashas") == "true")
	s.sendJSON(w, export, http.StatusOK)
}

// CreateDasha handles POST /api/v1/dasha.
func (s *Server) CreateDasha(w http.ResponseWriter, r *http.Request) {
	var dr DashaRequest
	if !s.decode(w, r, &dr) {
		return
	}

	birthTime, err := dr.UTC()
	if err != nil {
		s.sendComputeError(w, r, err)
		return
	}

	at := s.now()
	if dr.At != "" {
		if at, err = time.Parse(time.RFC3339, dr.At); err != nil {
			s.sendComputeError(w, r, &kp.InputError{Field: "at", Reason: "must be RFC 3339: " + err.Error()})
			return
		}
	}

	var moon float64
	if dr.MoonLongitude != nil {
		moon = *dr.MoonLongitude
		if math.IsNaN(moon) || math.IsInf(moon, 0) || moon < 0 || moon >= 360 {
			s.sendComputeError(w, r, &kp.InputError{Field: "moon_longitude", Reason: fmt.Sprintf("must be within [0, 360), got %v", moon)})
			return
		}
	} else {
		if moon, err = s.moonAt(r, dr.Record); err != nil {
			s.sendComputeError(w, r, err)
			return
		}
	}

	count := kp.DefaultDashaCount
	if s.defaults.DashaCount != nil {
		count = *s.defaults.DashaCount
	}
	if dr.DashaCount != nil {
		count = *dr.DashaCount
	}
	periods, err := kp.Schedule(moon, birthTime, count)
	if err != nil {
		s.sendComputeError(w, r, &kp.InputError{Field: "dasha_count", Reason: err.Error()})
		return
	}

	lord, remaining := kp.BirthDasha(moon)
	resp := DashaResponse{
		BirthTime:     birthTime,
		MoonLongitude: moon,
		Nakshatra:     kp.Locate(moon).Nakshatra.String(),
		Lord:          lord,
		BalanceYears:  remaining * kp.DashaYears(lord),
		Balance:       report.FormatYears(remaining * kp.DashaYears(lord)),
		Periods:       report.ExportDashas(periods, at, dr.Antardashas),
	}
	if cur, ok := kp.CurrentPeriod(periods, at); ok {
		e := report.ExportDashas([]kp.DashaPeriod{cur}, at, false)[0]
		resp.Current = &e
	}
	s.sendJSON(w, resp, http.StatusOK)
}

// Transits handles GET /api/v1/transits. The sky is cast for the "at"
// query parameter, or now, over the server's default place unless
// latitude and longitude are given.
func (s *Server) Transits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	at := s.now()
	if v := q.Get("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.sendComputeError(w, r, &kp.InputError{Field: "at", Reason: "must be RFC 3339: " + err.Error()})
			return
		}
		at = t
	}

	req := s.defaults
	req.Name = "transits"
	req.Time = at.UTC()
	req.Bodies = nil
	req.IncludeOuter = q.Get("include_outer") == "true"
	req.DashaCount = kp.Count(0)
	req.Divisions = []kp.Division{kp.D1}

	lat, lon := q.Get("latitude"), q.Get("longitude")
	switch {
	case lat != "" && lon != "":
		var err error
		if req.Observer.LatDeg, err = strconv.ParseFloat(lat, 64); err != nil {
			s.sendComputeError(w, r, &kp.InputError{Field: "latitude", Reason: err.Error()})
			return
		}
		if req.Observer.LonDeg, err = strconv.ParseFloat(lon, 64); err != nil {
			s.sendComputeError(w, r, &kp.InputError{Field: "longitude", Reason: err.Error()})
			return
		}
		req.Observer.Name = q.Get("place")
	case lat != "" || lon != "":
		s.sendComputeError(w, r, &kp.InputError{Field: "latitude", Reason: "latitude and longitude must be given together"})
		return
	}

	started := time.Now()
	chart, err := s.engine.Compute(r.Context(), req)
	s.metrics.ObserveChart(metrics.ChartOutcome(chart != nil && chart.Complete(), err), time.Since(started))
	if err != nil {
		s.sendComputeError(w, r, err)
		return
	}
	s.sendJSON(w, report.ExportChart(chart, at), http.StatusOK)
}

// moonAt computes the sidereal Moon for a birth record.
func (s *Server) moonAt(r *http.Request, rec birth.Record) (float64, error) {
	rec.Bodies = []string{string(ephem.Moon)}
	rec.IncludeOuter = false
	req, err := rec.Request(s.defaults)
	if err != nil {
		return 0, err
	}
	req.Divisions = []kp.Division{kp.D1}

	chart, err := s.engine.Compute(r.Context(), req)
	if err != nil {
		return 0, err
	}
	moon, ok := chart.Position(ephem.Moon)
	if !ok {
		cause := errors.New("moon position unavailable")
		if f := chart.Failures(); len(f) > 0 {
			cause = f[0].Err
		}
		return 0, cause
	}
	return moon.Longitude, nil
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, HealthResponse{
		Status:   "ok",
		Version:  version.Version,
		Provider: s.engine.Provider().Name(),
		Time:     s.now().UTC(),
	}, http.StatusOK)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.sendError(w, r, "invalid_json", "request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// sendComputeError maps rejected input to 400 and everything else to 500.
func (s *Server) sendComputeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, kp.ErrInvalidInput):
		s.sendError(w, r, "invalid_input", err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.sendError(w, r, "unavailable", err.Error(), http.StatusServiceUnavailable)
	default:
		s.logger(r).WithError(err).Error("request failed")
		s.sendError(w, r, "internal", err.Error(), http.StatusInternalServerError)
	}
}

// sendJSON sends a JSON response.
func (s *Server) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("write response: %v", err)
	}
}

// sendError sends an error response.
func (s *Server) sendError(w http.ResponseWriter, r *http.Request, kind, message string, statusCode int) {
	s.sendJSON(w, ErrorResponse{Error: kind, Message: message, Code: statusCode}, statusCode)
}

func (s *Server) logger(r *http.Request) *logging.Logger {
	return s.log.WithField("request_id", r.Header.Get(RequestIDHeader))
}

// requestID assigns an ID to every request, keeping one the client sent.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request counts and latency by route template.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.ObserveHTTP(route, r.Method, rec.status, time.Since(started))
		s.logger(r).Debug("%s %s -> %d in %s", r.Method, r.URL.Path, rec.status, time.Since(started).Round(time.Millisecond))
	})
}
