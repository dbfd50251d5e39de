package state

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/litescript/ls-kp/internal/astro"
	"github.com/litescript/ls-kp/internal/ephem"
	"github.com/litescript/ls-kp/internal/kp"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type placement struct {
	body  ephem.Body
	lon   float64
	speed float64
}

func chartAt(at time.Time, ps ...placement) *kp.Chart {
	c := &kp.Chart{Time: at}
	for _, p := range ps {
		pos := kp.NewBodyPosition(ephem.RawPosition{Body: p.body, Longitude: p.lon, Speed: p.speed}, astro.Tropical)
		c.Bodies = append(c.Bodies, kp.BodyResult{Body: p.body, Position: &pos})
	}
	return c
}

func TestNewManager(t *testing.T) {
	cfg := DefaultConfig()
	m := NewManager(cfg)

	if m.RefreshInterval() != cfg.RefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", m.RefreshInterval(), cfg.RefreshInterval)
	}
	if snap := m.Snapshot(); snap.Chart != nil || len(snap.Observed) != 0 {
		t.Errorf("fresh manager has data: %+v", snap)
	}
	if snap := m.Snapshot(); !snap.NextRefresh.IsZero() {
		t.Errorf("NextRefresh before any fetch = %v, want zero", snap.NextRefresh)
	}
}

func TestManager_Update(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.now = func() time.Time { return t0 }

	c := chartAt(t0, placement{ephem.Sun, 10, 1})
	m.Update(c, 100*time.Millisecond, nil)

	snap := m.Snapshot()
	if snap.Chart != c {
		t.Error("Snapshot chart doesn't match")
	}
	if snap.FetchDuration != 100*time.Millisecond {
		t.Errorf("FetchDuration = %v, want 100ms", snap.FetchDuration)
	}
	if want := t0.Add(DefaultConfig().RefreshInterval); !snap.NextRefresh.Equal(want) {
		t.Errorf("NextRefresh = %v, want %v", snap.NextRefresh, want)
	}
}

func TestManager_UpdateWithError(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.Update(chartAt(t0, placement{ephem.Sun, 10, 1}), 0, nil)

	fetchErr := errors.New("fetch failed")
	m.Update(nil, 50*time.Millisecond, fetchErr)

	snap := m.Snapshot()
	if snap.LastError != fetchErr {
		t.Errorf("LastError = %v, want %v", snap.LastError, fetchErr)
	}
	if snap.Chart == nil {
		t.Error("a failed refresh should keep the previous chart")
	}
}

func TestManager_ObservedSpeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyHist = 2
	m := NewManager(cfg)

	m.Update(chartAt(t0, placement{ephem.Moon, 355, 13}), 0, nil)
	if _, ok := m.Snapshot().Observed[ephem.Moon]; ok {
		t.Error("speed observed from a single point")
	}

	// Half a day later, across 0°.
	m.Update(chartAt(t0.Add(12*time.Hour), placement{ephem.Moon, 1.5, 13}, placement{ephem.Sun, 10, 1}), 0, nil)
	obs := m.Snapshot().Observed
	if v := obs[ephem.Moon]; math.Abs(v-13) > 1e-9 {
		t.Errorf("Moon speed = %v, want 13", v)
	}
	if _, ok := obs[ephem.Sun]; ok {
		t.Error("Sun seen once should have no observed speed")
	}

	// Only the last two points count, and the trail is capped.
	m.Update(chartAt(t0.Add(24*time.Hour), placement{ephem.Moon, 1.5, 0}), 0, nil)
	if v := m.Snapshot().Observed[ephem.Moon]; v != 0 {
		t.Errorf("Moon speed after standing still = %v, want 0", v)
	}
	if n := len(m.trails[ephem.Moon]); n != 2 {
		t.Errorf("trail length = %d, want 2", n)
	}
}

func TestManager_ObservedSpeedSameInstant(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.Update(chartAt(t0, placement{ephem.Moon, 10, 13}), 0, nil)
	m.Update(chartAt(t0, placement{ephem.Moon, 10, 13}), 0, nil)
	if _, ok := m.Snapshot().Observed[ephem.Moon]; ok {
		t.Error("no time elapsed, speed should be absent")
	}
}

func TestManager_EventDetection(t *testing.T) {
	var seen []EventType
	cfg := DefaultConfig()
	cfg.OnEvent = func(e Event) { seen = append(seen, e.Type) }
	m := NewManager(cfg)

	m.Update(chartAt(t0,
		placement{ephem.Sun, 29.9, 1},
		placement{ephem.Mars, 50, 0.3},
		placement{ephem.Saturn, 100, -0.05},
		placement{ephem.Rahu, 10, -0.05},
	), 0, nil)
	if len(m.Snapshot().Events) != 0 {
		t.Fatal("first refresh should produce no events")
	}

	later := t0.Add(24 * time.Hour)
	m.Update(chartAt(later,
		placement{ephem.Sun, 30.9, 1},     // Aries -> Taurus, Krittika stays
		placement{ephem.Mars, 50, -0.02},  // turns retrograde
		placement{ephem.Saturn, 100, 0.2}, // turns direct
		placement{ephem.Rahu, 9.9, -0.05}, // nodes never station
	), 0, nil)

	events := m.Snapshot().Events
	want := []struct {
		typ  EventType
		body ephem.Body
		from string
		to   string
	}{
		{EventSignIngress, ephem.Sun, "Aries", "Taurus"},
		{EventStationRetrograde, ephem.Mars, "Direct", "Retrograde"},
		{EventStationDirect, ephem.Saturn, "Retrograde", "Direct"},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events %+v, want %d", len(events), events, len(want))
	}
	for i, w := range want {
		e := events[i]
		if e.Type != w.typ || e.Body != w.body || e.From != w.from || e.To != w.to {
			t.Errorf("event %d = %+v, want %v %v %s->%s", i, e, w.typ, w.body, w.from, w.to)
		}
		if !e.Timestamp.Equal(later) {
			t.Errorf("event %d timestamp = %v, want %v", i, e.Timestamp, later)
		}
	}
	if len(seen) != len(want) {
		t.Errorf("OnEvent saw %d events, want %d", len(seen), len(want))
	}
}

func TestManager_NakshatraChange(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.Update(chartAt(t0, placement{ephem.Moon, 13.2, 13}), 0, nil)
	m.Update(chartAt(t0.Add(time.Hour), placement{ephem.Moon, 13.4, 13}), 0, nil)

	events := m.Snapshot().Events
	if len(events) != 1 || events[0].Type != EventNakshatraChange {
		t.Fatalf("events = %+v, want one nakshatra change", events)
	}
	if events[0].From != "Ashwini" || events[0].To != "Bharani" {
		t.Errorf("change = %s -> %s", events[0].From, events[0].To)
	}
}

func TestManager_EventRingBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEvents = 3
	m := NewManager(cfg)

	// Each step moves the Moon into the next nakshatra.
	for i := 0; i < 6; i++ {
		lon := float64(i)*kp.NakshatraSpan + 1
		m.Update(chartAt(t0.Add(time.Duration(i)*time.Hour), placement{ephem.Moon, lon, 13}), 0, nil)
	}

	events := m.Snapshot().Events
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Errorf("events not in chronological order: %v then %v", events[i-1].Timestamp, events[i].Timestamp)
		}
	}
	if got := events[2].To; got != kp.Nakshatra(5).String() {
		t.Errorf("newest event to = %s, want %s", got, kp.Nakshatra(5))
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(DefaultConfig())
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Update(chartAt(t0.Add(time.Duration(i*100+j)*time.Minute), placement{ephem.Moon, float64(j), 13}), 0, nil)
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				snap := m.Snapshot()
				_ = snap.Observed[ephem.Moon]
			}
		}()
	}
	wg.Wait()
}
