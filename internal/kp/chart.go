package kp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/logging"
)

// DefaultDashaCount is the number of complete mahadashas scheduled after
// the birth remainder, one full cycle.
const DefaultDashaCount = 9

// Request describes a chart to compute. Time must already be UTC-resolved
// by the caller. Nil Ayanamsa and DashaCount take the defaults; a 0°
// ayanamsa or a count of 0 must be set explicitly.
type Request struct {
	Name         string
	Time         time.Time
	Observer     astro.Observer
	Ayanamsa     *astro.Ayanamsa // defaults to KP-Newcomb
	HouseSystem  ephem.HouseSystem
	Bodies       []ephem.Body // defaults to the nine KP lords
	IncludeOuter bool         // add Uranus, Neptune and Pluto to the default set
	DashaCount   *int         // defaults to DefaultDashaCount
	Divisions    []Division   // defaults to D9 and D10
}

// AyanamsaOf returns a request value for a.
func AyanamsaOf(a astro.Ayanamsa) *astro.Ayanamsa {
	return &a
}

// Count returns a request value for a dasha count.
func Count(n int) *int {
	return &n
}

// WithDefaults fills unset optional fields.
func (r Request) WithDefaults() Request {
	if r.HouseSystem == 0 {
		r.HouseSystem = ephem.Placidus
	}
	if r.Ayanamsa == nil {
		r.Ayanamsa = AyanamsaOf(astro.KPNewcomb)
	}
	if len(r.Bodies) == 0 {
		r.Bodies = append([]ephem.Body{}, ephem.ClassicalBodies...)
		if r.IncludeOuter {
			r.Bodies = append(r.Bodies, ephem.OuterBodies...)
		}
	}
	if r.DashaCount == nil {
		r.DashaCount = Count(DefaultDashaCount)
	}
	if len(r.Divisions) == 0 {
		r.Divisions = []Division{D9, D10}
	}
	return r
}

// TransitRequest returns a request for the sky at t as seen from a natal
// chart's place, with the natal ayanamsa and house system. Only D1 and the
// running dasha period are computed.
func TransitRequest(natal *Chart, t time.Time, includeOuter bool) Request {
	return Request{
		Name:         "transits",
		Time:         t,
		Observer:     natal.Observer,
		Ayanamsa:     AyanamsaOf(natal.Ayanamsa),
		HouseSystem:  natal.HouseSystem,
		IncludeOuter: includeOuter,
		DashaCount:   Count(0),
		Divisions:    []Division{D1},
	}
}

// Validate rejects a request before any ephemeris lookup is made.
func (r Request) Validate() error {
	if r.Time.IsZero() {
		return invalid("time", "is required")
	}
	if y := r.Time.Year(); y < 1800 || y > 2399 {
		return invalid("time", "year %d outside supported range 1800-2399", y)
	}
	if !finite(r.Observer.LatDeg) || r.Observer.LatDeg < -90 || r.Observer.LatDeg > 90 {
		return invalid("latitude", "must be within [-90, 90], got %v", r.Observer.LatDeg)
	}
	if !finite(r.Observer.LonDeg) || r.Observer.LonDeg < -180 || r.Observer.LonDeg > 180 {
		return invalid("longitude", "must be within [-180, 180], got %v", r.Observer.LonDeg)
	}
	if r.Ayanamsa == nil {
		return invalid("ayanamsa", "is required")
	}
	if err := r.Ayanamsa.Validate(); err != nil {
		return invalid("ayanamsa", "%v", err)
	}
	if r.HouseSystem.String() == "unknown" {
		return invalid("house_system", "unsupported system %d", int(r.HouseSystem))
	}
	seen := make(map[ephem.Body]bool, len(r.Bodies))
	for _, b := range r.Bodies {
		if !b.Known() {
			return invalid("bodies", "unknown body %q", b)
		}
		if seen[b] {
			return invalid("bodies", "%s listed twice", b)
		}
		seen[b] = true
	}
	if r.DashaCount == nil {
		return invalid("dasha_count", "is required")
	}
	if *r.DashaCount < 0 {
		return invalid("dasha_count", "must not be negative, got %d", *r.DashaCount)
	}
	for _, d := range r.Divisions {
		if d < 1 {
			return invalid("divisions", "D-number must be positive, got %d", int(d))
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// BodyResult is either a position or the failure that prevented it.
type BodyResult struct {
	Body     ephem.Body
	Position *BodyPosition
	Err      error
}

// OK reports whether the position is present.
func (r BodyResult) OK() bool {
	return r.Err == nil && r.Position != nil
}

// MarshalJSON renders the error as a string.
func (r BodyResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Body     ephem.Body    `json:"body"`
		Position *BodyPosition `json:"position,omitempty"`
		Error    string        `json:"error,omitempty"`
	}{Body: r.Body, Position: r.Position}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// SpecialPoint is a sensitive chart point such as the Ascendant.
type SpecialPoint struct {
	Name      string         `json:"name"`
	Longitude float64        `json:"longitude"`
	Location  ZodiacLocation `json:"location"`
	SubLord   SubLordResult  `json:"sub_lord"`
}

func newSpecialPoint(name string, tropical float64, ayanamsa astro.Ayanamsa) SpecialPoint {
	lon := ayanamsa.ToSidereal(tropical)
	return SpecialPoint{Name: name, Longitude: lon, Location: Locate(lon), SubLord: SubLordOf(lon)}
}

// Chart is the full result of one computation. Derived sections that
// depend on a failed input are left empty; the cause is in the matching
// error field.
type Chart struct {
	ID          string
	Name        string
	Time        time.Time
	Observer    astro.Observer
	Ayanamsa    astro.Ayanamsa
	HouseSystem ephem.HouseSystem
	Provider    string

	Bodies []BodyResult

	Cusps     *Cusps
	Ascendant *SpecialPoint
	Midheaven *SpecialPoint
	HousesErr error

	Aspects       []Aspect
	Significators *[12]Significators
	Vargas        map[Division]map[ephem.Body]ZodiacLocation
	VargaNames    map[Division]string
	Strengths     []Strength

	Dashas   []DashaPeriod
	DashaErr error
}

// Positions returns the successfully computed positions in request order.
func (c *Chart) Positions() []BodyPosition {
	out := make([]BodyPosition, 0, len(c.Bodies))
	for _, r := range c.Bodies {
		if r.OK() {
			out = append(out, *r.Position)
		}
	}
	return out
}

// Position returns one body's position.
func (c *Chart) Position(body ephem.Body) (BodyPosition, bool) {
	for _, r := range c.Bodies {
		if r.Body == body && r.OK() {
			return *r.Position, true
		}
	}
	return BodyPosition{}, false
}

// Failures returns the per-body errors.
func (c *Chart) Failures() []BodyResult {
	var out []BodyResult
	for _, r := range c.Bodies {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Complete reports whether every section of the chart was produced.
func (c *Chart) Complete() bool {
	return len(c.Failures()) == 0 && c.HousesErr == nil && c.DashaErr == nil
}

// Engine computes charts from an ephemeris provider.
type Engine struct {
	provider  ephem.Provider
	divisions *DivisionSet
	log       *logging.Logger
	now       func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// NewEngine creates a chart engine over a provider.
func NewEngine(p ephem.Provider, opts ...EngineOption) *Engine {
	e := &Engine{
		provider:  p,
		divisions: NewDivisionSet(),
		log:       logging.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Provider returns the engine's ephemeris provider.
func (e *Engine) Provider() ephem.Provider {
	return e.provider
}

// Divisions returns the engine's divisional chart rules. Rules registered
// here apply to this engine only.
func (e *Engine) Divisions() *DivisionSet {
	return e.divisions
}

// Compute validates the request, gathers raw positions and cusps, and
// derives every chart section. Invalid requests fail before the provider
// is called. Provider failures are recorded per body or on the house
// frame and the rest of the chart is still produced. Only cancellation of
// ctx aborts a computation in progress.
func (e *Engine) Compute(ctx context.Context, req Request) (*Chart, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for _, d := range req.Divisions {
		if _, ok := e.divisions.rule(d); !ok {
			return nil, invalid("divisions", "unsupported division %s, have %v", d, e.divisions.List())
		}
	}
	req.Time = req.Time.UTC()

	chart := &Chart{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Time:        req.Time,
		Observer:    req.Observer,
		Ayanamsa:    *req.Ayanamsa,
		HouseSystem: req.HouseSystem,
		Provider:    e.provider.Name(),
	}
	log := e.log.WithField("chart_id", chart.ID)
	started := e.now()

	results, err := e.fetchBodies(ctx, req)
	if err != nil {
		return nil, err
	}
	chart.Bodies = results

	raw, herr := e.provider.Houses(ctx, req.Time, req.Observer, req.HouseSystem)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if herr == nil {
		herr = raw.Check()
	}
	if herr == nil {
		cusps, berr := BuildCusps(raw.Cusps, *req.Ayanamsa)
		if berr != nil {
			herr = berr
		} else {
			chart.Cusps = &cusps
			asc := newSpecialPoint("Ascendant", raw.Ascendant, *req.Ayanamsa)
			mc := newSpecialPoint("Midheaven", raw.Midheaven, *req.Ayanamsa)
			chart.Ascendant, chart.Midheaven = &asc, &mc
		}
	}
	if herr != nil {
		chart.HousesErr = &ProviderError{Err: herr}
		log.Warn("house frame unavailable: %v", herr)
	}

	if chart.Cusps != nil {
		for i := range chart.Bodies {
			if p := chart.Bodies[i].Position; p != nil {
				p.House = HouseOf(p.Longitude, *chart.Cusps)
			}
		}
	}

	positions := chart.Positions()
	chart.Aspects = DetectAspects(positions)
	for _, p := range positions {
		if !p.Body.IsNode() {
			chart.Strengths = append(chart.Strengths, PlanetStrength(p))
		}
	}
	if chart.Cusps != nil {
		sigs := Analyze(positions, *chart.Cusps)
		chart.Significators = &sigs
	}

	chart.Vargas = make(map[Division]map[ephem.Body]ZodiacLocation, len(req.Divisions))
	chart.VargaNames = make(map[Division]string, len(req.Divisions))
	for _, d := range req.Divisions {
		v, err := e.divisions.Chart(positions, d)
		if err != nil {
			return nil, err
		}
		chart.Vargas[d] = v
		chart.VargaNames[d] = e.divisions.Name(d)
	}

	if moon, ok := chart.Position(ephem.Moon); ok {
		chart.Dashas, chart.DashaErr = Schedule(moon.Longitude, req.Time, *req.DashaCount)
	} else {
		chart.DashaErr = fmt.Errorf("dasha needs the Moon: %w", ErrProviderFailure)
	}

	log.Debug("computed %d/%d bodies via %s in %s", len(positions), len(chart.Bodies),
		chart.Provider, e.now().Sub(started).Round(time.Millisecond))
	return chart, nil
}

// fetchBodies queries every requested body concurrently. Ketu is never
// fetched; it is derived from this computation's Rahu.
func (e *Engine) fetchBodies(ctx context.Context, req Request) ([]BodyResult, error) {
	fetch := make([]ephem.Body, 0, len(req.Bodies)+1)
	wantKetu, haveRahu := false, false
	for _, b := range req.Bodies {
		switch b {
		case ephem.Ketu:
			wantKetu = true
		case ephem.Rahu:
			haveRahu = true
			fetch = append(fetch, b)
		default:
			fetch = append(fetch, b)
		}
	}
	if wantKetu && !haveRahu {
		fetch = append(fetch, ephem.Rahu)
	}

	fetched := make(map[ephem.Body]BodyResult, len(fetch))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, b := range fetch {
		wg.Add(1)
		go func(b ephem.Body) {
			defer wg.Done()
			res := BodyResult{Body: b}
			raw, err := e.provider.Position(ctx, b, req.Time)
			if err == nil {
				err = raw.Check()
			}
			if err != nil {
				res.Err = &ProviderError{Body: b, Err: err}
			} else {
				raw.Body = b
				pos := NewBodyPosition(raw, *req.Ayanamsa)
				res.Position = &pos
			}
			mu.Lock()
			fetched[b] = res
			mu.Unlock()
		}(b)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]BodyResult, 0, len(req.Bodies))
	for _, b := range req.Bodies {
		if b != ephem.Ketu {
			out = append(out, fetched[b])
			continue
		}
		rahu := fetched[ephem.Rahu]
		if !rahu.OK() {
			out = append(out, BodyResult{Body: ephem.Ketu, Err: &ProviderError{
				Body: ephem.Ketu,
				Err:  fmt.Errorf("derived from Rahu: %w", rahu.Err),
			}})
			continue
		}
		ketu := DeriveKetu(*rahu.Position)
		out = append(out, BodyResult{Body: ephem.Ketu, Position: &ketu})
	}
	return out, nil
}
