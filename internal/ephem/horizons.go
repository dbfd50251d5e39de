package ephem

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/version"
)

const (
	// HorizonsAPIURL is the JPL Horizons JSON API endpoint.
	HorizonsAPIURL = "https://ssd.jpl.nasa.gov/api/horizons.api"

	// PositionCacheTTL is how long a fetched position is reused.
	PositionCacheTTL = 10 * time.Minute

	// RequestTimeout is the HTTP request timeout.
	RequestTimeout = 30 * time.Second

	// DefaultRequestsPerSecond throttles calls to the public API.
	DefaultRequestsPerSecond = 4
)

// HorizonsProvider queries JPL Horizons for geocentric ecliptic positions.
// Rahu comes from the analytic mean node and house cusps are computed
// locally, so only true bodies hit the network.
type HorizonsProvider struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter

	mu    sync.RWMutex
	cache map[positionKey]*cachedPosition
	now   func() time.Time
}

type positionKey struct {
	body Body
	at   int64 // unix seconds
}

// cachedPosition stores a fetched position.
type cachedPosition struct {
	pos       RawPosition
	fetchedAt time.Time
}

// HorizonsOption configures a HorizonsProvider.
type HorizonsOption func(*HorizonsProvider)

// WithBaseURL points the provider at a different Horizons endpoint.
func WithBaseURL(u string) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.baseURL = u
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HorizonsOption {
	return func(p *HorizonsProvider) {
		p.client = client
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables throttling.
func WithRateLimit(perSecond float64) HorizonsOption {
	return func(p *HorizonsProvider) {
		if perSecond <= 0 {
			p.limiter = nil
			return
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewHorizonsProvider creates a new Horizons API client.
func NewHorizonsProvider(opts ...HorizonsOption) *HorizonsProvider {
	p := &HorizonsProvider{
		baseURL: HorizonsAPIURL,
		timeout: RequestTimeout,
		limiter: rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		cache:   make(map[positionKey]*cachedPosition),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		p.client = &http.Client{
			Timeout: p.timeout,
		}
	}

	return p
}

// Name implements Provider.
func (p *HorizonsProvider) Name() string {
	return "Horizons"
}

// Position implements Provider.
func (p *HorizonsProvider) Position(ctx context.Context, body Body, t time.Time) (RawPosition, error) {
	info, ok := TargetsByBody[body]
	if !ok {
		return RawPosition{}, fmt.Errorf("%w: %q", ErrUnknownBody, body)
	}
	if info.Derived {
		return RawPosition{}, fmt.Errorf("%s: %w", body, ErrDerivedBody)
	}
	if body == Rahu {
		return MeanNode(t), nil
	}

	key := positionKey{body: body, at: t.Unix()}

	p.mu.RLock()
	cached, ok := p.cache[key]
	p.mu.RUnlock()

	if ok && p.now().Sub(cached.fetchedAt) < PositionCacheTTL {
		return cached.pos, nil
	}

	pos, err := p.queryPosition(ctx, info, t)
	if err != nil {
		return RawPosition{}, err
	}

	now := p.now()
	p.mu.Lock()
	p.pruneLocked(now)
	p.cache[key] = &cachedPosition{
		pos:       pos,
		fetchedAt: now,
	}
	p.mu.Unlock()

	return pos, nil
}

// Houses implements Provider.
func (p *HorizonsProvider) Houses(ctx context.Context, t time.Time, obs astro.Observer, sys HouseSystem) (RawHouses, error) {
	if err := ctx.Err(); err != nil {
		return RawHouses{}, err
	}
	return CalculateHouses(t, obs, sys)
}

// pruneLocked drops expired positions. Live transit charts ask for a new
// instant on every refresh, so old keys are never looked up again.
func (p *HorizonsProvider) pruneLocked(now time.Time) {
	for k, c := range p.cache {
		if now.Sub(c.fetchedAt) >= PositionCacheTTL {
			delete(p.cache, k)
		}
	}
}

// queryPosition fetches two rows one day apart; the second gives the speed.
func (p *HorizonsProvider) queryPosition(ctx context.Context, info TargetInfo, t time.Time) (RawPosition, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return RawPosition{}, fmt.Errorf("horizons rate limit: %w", err)
		}
	}

	// Values must be quoted with single quotes
	params := url.Values{}
	params.Set("format", "json")
	params.Set("COMMAND", fmt.Sprintf("'%d'", info.NAIFID))
	params.Set("OBJ_DATA", "NO")
	params.Set("MAKE_EPHEM", "YES")
	params.Set("EPHEM_TYPE", "OBSERVER")
	params.Set("CENTER", "'500@399'") // geocentre
	params.Set("START_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(t)))
	params.Set("STOP_TIME", fmt.Sprintf("'%s'", formatHorizonsTime(t.Add(24*time.Hour))))
	params.Set("STEP_SIZE", "'1 d'")
	params.Set("QUANTITIES", "'20,31'") // 20=range, 31=ecliptic lon/lat
	params.Set("TIME_DIGITS", "SECONDS")
	params.Set("ANG_FORMAT", "DEG")

	reqURL := p.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return RawPosition{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "ls-kp/"+version.Version)

	resp, err := p.client.Do(req)
	if err != nil {
		return RawPosition{}, fmt.Errorf("horizons request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return RawPosition{}, fmt.Errorf("horizons returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RawPosition{}, fmt.Errorf("failed to read response: %w", err)
	}

	return parseHorizonsResponse(info.Body, t, body)
}

// horizonsResponse represents the JSON API response.
type horizonsResponse struct {
	Signature struct {
		Version string `json:"version"`
		Source  string `json:"source"`
	} `json:"signature"`
	Result string `json:"result"`
	Error  string `json:"error"`
}

// parseHorizonsResponse turns a two-row observer table into a position
// with a daily speed.
func parseHorizonsResponse(body Body, t time.Time, raw []byte) (RawPosition, error) {
	var resp horizonsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return RawPosition{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if resp.Error != "" {
		return RawPosition{}, fmt.Errorf("horizons error: %s", strings.TrimSpace(resp.Error))
	}

	rows, err := parseEphemerisTable(resp.Result)
	if err != nil {
		return RawPosition{}, err
	}
	if len(rows) < 2 {
		return RawPosition{}, fmt.Errorf("horizons returned %d rows for %s, want 2", len(rows), body)
	}

	first, second := rows[0], rows[1]
	days := second.time.Sub(first.time).Hours() / 24
	if days <= 0 {
		return RawPosition{}, fmt.Errorf("horizons rows out of order for %s", body)
	}

	return RawPosition{
		Body:       body,
		Time:       t.UTC(),
		Longitude:  astro.Normalize(first.lon),
		Latitude:   first.lat,
		DistanceAU: first.delta,
		Speed:      astro.SignedDifference(first.lon, second.lon) / days,
	}, nil
}

// ephemerisRow is one parsed line of the observer table.
type ephemerisRow struct {
	time     time.Time
	delta    float64 // AU
	deltaDot float64 // km/s
	lon      float64
	lat      float64
}

// parseEphemerisTable extracts rows from the Horizons text output.
func parseEphemerisTable(result string) ([]ephemerisRow, error) {
	var rows []ephemerisRow

	// Find the data section between $$SOE and $$EOE markers
	soeIdx := strings.Index(result, "$$SOE")
	eoeIdx := strings.Index(result, "$$EOE")
	if soeIdx == -1 || eoeIdx == -1 || soeIdx >= eoeIdx {
		return nil, fmt.Errorf("could not find ephemeris data markers")
	}

	for _, line := range strings.Split(result[soeIdx+5:eoeIdx], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		row, err := parseEphemerisLine(line)
		if err != nil {
			continue // Skip unparseable lines
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// parseEphemerisLine parses a single ephemeris data line.
// Format for QUANTITIES='20,31':
// 2024-Jan-01 00:00:00     0.98330   -0.0126  280.3456  -0.0002
// Fields: date, time, optional flags, delta, deldot, ObsEcLon, ObsEcLat
func parseEphemerisLine(line string) (ephemerisRow, error) {
	fields := strings.Fields(line)
	if len(fields) < 6 {
		return ephemerisRow{}, fmt.Errorf("insufficient fields: %d", len(fields))
	}

	t, err := parseHorizonsDateTime(fields[0] + " " + fields[1])
	if err != nil {
		return ephemerisRow{}, err
	}

	// Skip any flag fields (like *, *m, Cm, Nm, Am, etc.)
	var vals []float64
	for _, f := range fields[2:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			continue
		}
		if !finite(v) {
			return ephemerisRow{}, fmt.Errorf("value %q: %w", f, ErrNonFinite)
		}
		vals = append(vals, v)
		if len(vals) == 4 {
			break
		}
	}
	if len(vals) < 4 {
		return ephemerisRow{}, fmt.Errorf("could not find range and ecliptic values")
	}

	return ephemerisRow{
		time:     t,
		delta:    vals[0],
		deltaDot: vals[1],
		lon:      vals[2],
		lat:      vals[3],
	}, nil
}

// parseHorizonsDateTime parses Horizons date format like "2025-Dec-05 00:00:00".
func parseHorizonsDateTime(s string) (time.Time, error) {
	for _, layout := range []string{
		"2006-Jan-02 15:04:05",
		"2006-Jan-02 15:04:05.000",
		"2006-Jan-02 15:04",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// formatHorizonsTime formats a time for Horizons API.
func formatHorizonsTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
