// Package metrics exposes Prometheus collectors for chart computation, the
// ephemeris provider and the HTTP API.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/kp"
)

const namespace = "lskp"

// Collector bundles the application metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Charts        *prometheus.CounterVec
	ChartDuration prometheus.Histogram

	ProviderRequests *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	BatchRecords  *prometheus.CounterVec
	TransitEvents *prometheus.CounterVec
}

// NewCollector registers all collectors against reg, defaulting to the
// global registry when nil. Registering twice on the same registry reuses
// the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Charts, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "charts_total",
		Help:      "Charts computed, labeled by outcome (ok, partial, invalid, error).",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if c.ChartDuration, err = registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "chart_duration_seconds",
		Help:      "Chart computation latency in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})); err != nil {
		return nil, err
	}
	if c.ProviderRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ephemeris_requests_total",
		Help:      "Ephemeris provider calls by provider, kind and outcome.",
	}, []string{"provider", "kind", "outcome"})); err != nil {
		return nil, err
	}
	if c.ProviderDuration, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ephemeris_request_duration_seconds",
		Help:      "Ephemeris provider latency in seconds.",
		Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"provider", "kind"})); err != nil {
		return nil, err
	}
	if c.HTTPRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "API requests by route, method and status code.",
	}, []string{"route", "method", "code"})); err != nil {
		return nil, err
	}
	if c.HTTPDuration, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "API request latency in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
	}, []string{"route"})); err != nil {
		return nil, err
	}
	if c.BatchRecords, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_records_total",
		Help:      "Batch records processed, labeled by outcome.",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if c.TransitEvents, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transit_events_total",
		Help:      "Transit events detected, labeled by type.",
	}, []string{"type"})); err != nil {
		return nil, err
	}
	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveChart records one chart computation.
func (c *Collector) ObserveChart(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.Charts.WithLabelValues(outcome).Inc()
	c.ChartDuration.Observe(d.Seconds())
}

// ObserveHTTP records one API request.
func (c *Collector) ObserveHTTP(route, method string, code int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	c.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordBatch counts one batch record.
func (c *Collector) RecordBatch(ok bool) {
	if c == nil {
		return
	}
	c.BatchRecords.WithLabelValues(outcome(ok)).Inc()
}

// RecordTransitEvent counts one transit event.
func (c *Collector) RecordTransitEvent(eventType string) {
	if c == nil {
		return
	}
	c.TransitEvents.WithLabelValues(eventType).Inc()
}

// ChartOutcome classifies a computation for the charts counter.
func ChartOutcome(complete bool, err error) string {
	switch {
	case err == nil && complete:
		return "ok"
	case err == nil:
		return "partial"
	case errors.Is(err, kp.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// InstrumentProvider wraps p so every call is counted and timed.
func (c *Collector) InstrumentProvider(p ephem.Provider) ephem.Provider {
	if c == nil {
		return p
	}
	return &instrumentedProvider{next: p, c: c}
}

type instrumentedProvider struct {
	next ephem.Provider
	c    *Collector
}

func (p *instrumentedProvider) Name() string {
	return p.next.Name()
}

func (p *instrumentedProvider) Position(ctx context.Context, body ephem.Body, t time.Time) (ephem.RawPosition, error) {
	start := time.Now()
	pos, err := p.next.Position(ctx, body, t)
	p.observe("position", start, err)
	return pos, err
}

func (p *instrumentedProvider) Houses(ctx context.Context, t time.Time, obs astro.Observer, sys ephem.HouseSystem) (ephem.RawHouses, error) {
	start := time.Now()
	h, err := p.next.Houses(ctx, t, obs, sys)
	p.observe("houses", start, err)
	return h, err
}

func (p *instrumentedProvider) observe(kind string, start time.Time, err error) {
	name := p.next.Name()
	p.c.ProviderRequests.WithLabelValues(name, kind, outcome(err == nil)).Inc()
	p.c.ProviderDuration.WithLabelValues(name, kind).Observe(time.Since(start).Seconds())
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		return nil, err
	}
	return h, nil
}
