// Package state tracks live transit charts and the events between them
// with thread-safe access.
package state

import (
	"sync"
	"time"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/kp"
)

// EventType represents the type of transit event.
type EventType string

const (
	EventSignIngress       EventType = "SIGN_INGRESS"
	EventNakshatraChange   EventType = "NAKSHATRA_CHANGE"
	EventStationRetrograde EventType = "STATION_RETROGRADE"
	EventStationDirect     EventType = "STATION_DIRECT"
)

// Event is a change in a body's placement between two refreshes.
type Event struct {
	Type      EventType  `json:"type"`
	Timestamp time.Time  `json:"timestamp"` // transit instant of the newer chart
	Body      ephem.Body `json:"body"`
	From      string     `json:"from,omitempty"`
	To        string     `json:"to,omitempty"`
	Longitude float64    `json:"longitude"`
}

// TimeSeries is a single data point with timestamp.
type TimeSeries struct {
	Timestamp time.Time
	Value     float64
}

// Manager handles transit state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	current       *kp.Chart
	lastFetch     time.Time
	lastError     error
	fetchDuration time.Duration

	prev map[ephem.Body]kp.BodyPosition

	// Sidereal longitudes per body, oldest first.
	trails      map[ephem.Body][]TimeSeries
	maxBodyHist int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int
	onEvent      func(Event)

	refreshInterval time.Duration
	now             func() time.Time
}

// Config holds configuration for the state manager.
type Config struct {
	MaxBodyHist     int
	MaxEvents       int
	RefreshInterval time.Duration
	// OnEvent, if set, is called for each detected event while the
	// manager's lock is held. It must not call back into the manager.
	OnEvent func(Event)
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodyHist:     288, // a day at five-minute refreshes
		MaxEvents:       50,
		RefreshInterval: 5 * time.Minute,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	maxBodyHist := cfg.MaxBodyHist
	if maxBodyHist < 2 {
		maxBodyHist = 2
	}
	return &Manager{
		maxBodyHist:     maxBodyHist,
		maxEvents:       maxEvents,
		events:          make([]Event, 0, maxEvents),
		onEvent:         cfg.OnEvent,
		refreshInterval: cfg.RefreshInterval,
		trails:          make(map[ephem.Body][]TimeSeries),
		prev:            make(map[ephem.Body]kp.BodyPosition),
		now:             time.Now,
	}
}

// Update records a refresh. A nil chart records only the fetch outcome.
func (m *Manager) Update(chart *kp.Chart, fetchDuration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastFetch = m.now()
	m.lastError = err
	m.fetchDuration = fetchDuration

	if chart == nil {
		return
	}

	m.detectEvents(chart)
	m.current = chart
	m.updateTrails(chart)

	for _, p := range chart.Positions() {
		m.prev[p.Body] = p
	}
}

// detectEvents compares the new chart with the previous placements.
// Bodies seen for the first time produce no events.
func (m *Manager) detectEvents(chart *kp.Chart) {
	for _, cur := range chart.Positions() {
		prev, ok := m.prev[cur.Body]
		if !ok {
			continue
		}

		if prev.Location.Sign != cur.Location.Sign {
			m.addEvent(Event{
				Type:      EventSignIngress,
				Timestamp: chart.Time,
				Body:      cur.Body,
				From:      prev.Location.Sign.String(),
				To:        cur.Location.Sign.String(),
				Longitude: cur.Longitude,
			})
		}
		if prev.Location.Nakshatra != cur.Location.Nakshatra {
			m.addEvent(Event{
				Type:      EventNakshatraChange,
				Timestamp: chart.Time,
				Body:      cur.Body,
				From:      prev.Location.Nakshatra.String(),
				To:        cur.Location.Nakshatra.String(),
				Longitude: cur.Longitude,
			})
		}

		switch {
		case !prev.Retrograde && cur.Retrograde && cur.Motion != kp.MotionNA:
			m.addEvent(Event{
				Type:      EventStationRetrograde,
				Timestamp: chart.Time,
				Body:      cur.Body,
				From:      prev.Motion.String(),
				To:        cur.Motion.String(),
				Longitude: cur.Longitude,
			})
		case prev.Retrograde && !cur.Retrograde && cur.Motion != kp.MotionNA:
			m.addEvent(Event{
				Type:      EventStationDirect,
				Timestamp: chart.Time,
				Body:      cur.Body,
				From:      prev.Motion.String(),
				To:        cur.Motion.String(),
				Longitude: cur.Longitude,
			})
		}
	}
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
	if m.onEvent != nil {
		m.onEvent(e)
	}
}

func (m *Manager) updateTrails(chart *kp.Chart) {
	for _, p := range chart.Positions() {
		trail := append(m.trails[p.Body], TimeSeries{Timestamp: chart.Time, Value: p.Longitude})
		if len(trail) > m.maxBodyHist {
			trail = trail[1:]
		}
		m.trails[p.Body] = trail
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Chart         *kp.Chart
	LastFetch     time.Time
	NextRefresh   time.Time
	LastError     error
	FetchDuration time.Duration
	Events        []Event
	// Observed is each body's daily motion measured across the last two
	// refreshes. Bodies seen only once are absent.
	Observed map[ephem.Body]float64
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var next time.Time
	if !m.lastFetch.IsZero() {
		next = m.lastFetch.Add(m.refreshInterval)
	}
	return Snapshot{
		Chart:         m.current,
		LastFetch:     m.lastFetch,
		NextRefresh:   next,
		LastError:     m.lastError,
		FetchDuration: m.fetchDuration,
		Events:        m.getEventsOrdered(),
		Observed:      m.observedSpeeds(),
	}
}

// observedSpeeds estimates daily motion from the last two recorded
// longitudes, taking the short way across 0°.
func (m *Manager) observedSpeeds() map[ephem.Body]float64 {
	out := make(map[ephem.Body]float64, len(m.trails))
	for body, trail := range m.trails {
		n := len(trail)
		if n < 2 {
			continue
		}
		p1, p2 := trail[n-2], trail[n-1]
		days := p2.Timestamp.Sub(p1.Timestamp).Hours() / 24
		if days <= 0 {
			continue
		}
		out[body] = astro.SignedDifference(p1.Value, p2.Value) / days
	}
	return out
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Full: oldest entry sits at the write position.
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RefreshInterval returns the configured refresh interval.
func (m *Manager) RefreshInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshInterval
}
