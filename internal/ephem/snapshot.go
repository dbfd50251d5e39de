package ephem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/litescript/ls-kp/internal/astro"
)

// ErrNotInSnapshot is returned for bodies a snapshot does not carry.
var ErrNotInSnapshot = errors.New("body not in snapshot")

// Snapshot is a frozen set of tropical ephemeris values, usually captured
// from a live provider, that can be replayed offline.
type Snapshot struct {
	Time     time.Time            `yaml:"time"`
	Source   string               `yaml:"source,omitempty"`
	Bodies   map[Body]RawPosition `yaml:"bodies"`
	Houses   *RawHouses           `yaml:"houses,omitempty"`
	Failures map[Body]string      `yaml:"failures,omitempty"`
}

// SnapshotProvider serves positions from a Snapshot. The same values are
// returned whatever instant is requested.
type SnapshotProvider struct {
	snap Snapshot
	name string
}

// NewSnapshotProvider wraps an in-memory snapshot.
func NewSnapshotProvider(snap Snapshot) *SnapshotProvider {
	name := "Snapshot"
	if snap.Source != "" {
		name = "Snapshot(" + snap.Source + ")"
	}
	return &SnapshotProvider{snap: snap, name: name}
}

// LoadSnapshot reads a YAML snapshot file.
func LoadSnapshot(path string) (*SnapshotProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewSnapshotProvider(snap), nil
}

// ParseSnapshot decodes and checks a YAML snapshot.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	for body, pos := range snap.Bodies {
		if !body.Known() {
			return Snapshot{}, fmt.Errorf("snapshot: %w %q", ErrUnknownBody, body)
		}
		if body == Ketu {
			return Snapshot{}, fmt.Errorf("snapshot: Ketu: %w", ErrDerivedBody)
		}
		if err := pos.Check(); err != nil {
			return Snapshot{}, fmt.Errorf("snapshot: %s: %w", body, err)
		}
	}
	if snap.Houses != nil {
		if err := snap.Houses.Check(); err != nil {
			return Snapshot{}, fmt.Errorf("snapshot: houses: %w", err)
		}
	}
	return snap, nil
}

// Snapshot returns the underlying snapshot.
func (p *SnapshotProvider) Snapshot() Snapshot {
	return p.snap
}

// Name implements Provider.
func (p *SnapshotProvider) Name() string {
	return p.name
}

// Position implements Provider.
func (p *SnapshotProvider) Position(ctx context.Context, body Body, t time.Time) (RawPosition, error) {
	if err := ctx.Err(); err != nil {
		return RawPosition{}, err
	}
	if body == Ketu {
		return RawPosition{}, fmt.Errorf("%s: %w", body, ErrDerivedBody)
	}
	if reason, ok := p.snap.Failures[body]; ok {
		return RawPosition{}, fmt.Errorf("%s: %s", body, reason)
	}
	pos, ok := p.snap.Bodies[body]
	if !ok {
		return RawPosition{}, fmt.Errorf("%s: %w", body, ErrNotInSnapshot)
	}
	pos.Body = body
	pos.Time = p.snap.Time
	if pos.Time.IsZero() {
		pos.Time = t.UTC()
	}
	return pos, nil
}

// Houses implements Provider. Recorded cusps are returned when present and
// of the requested system; otherwise cusps are computed for t.
func (p *SnapshotProvider) Houses(ctx context.Context, t time.Time, obs astro.Observer, sys HouseSystem) (RawHouses, error) {
	if err := ctx.Err(); err != nil {
		return RawHouses{}, err
	}
	if h := p.snap.Houses; h != nil {
		if h.System != 0 && h.System != sys {
			return RawHouses{}, fmt.Errorf("snapshot holds %s cusps, %s requested", h.System, sys)
		}
		out := *h
		out.System = sys
		return out, nil
	}
	return CalculateHouses(t, obs, sys)
}

// CaptureSnapshot records what a provider returns for the given bodies at t.
// Per-body failures are kept in the snapshot rather than aborting it.
func CaptureSnapshot(ctx context.Context, p Provider, t time.Time, obs astro.Observer, sys HouseSystem, bodies []Body) (Snapshot, error) {
	snap := Snapshot{
		Time:   t.UTC(),
		Source: p.Name(),
		Bodies: make(map[Body]RawPosition),
	}

	for _, b := range bodies {
		if b == Ketu {
			continue
		}
		pos, err := p.Position(ctx, b, t)
		if err != nil {
			if ctx.Err() != nil {
				return Snapshot{}, ctx.Err()
			}
			if snap.Failures == nil {
				snap.Failures = make(map[Body]string)
			}
			snap.Failures[b] = err.Error()
			continue
		}
		snap.Bodies[b] = pos
	}

	h, err := p.Houses(ctx, t, obs, sys)
	if err != nil {
		return Snapshot{}, fmt.Errorf("capture houses: %w", err)
	}
	snap.Houses = &h

	return snap, nil
}

// WriteSnapshot writes a snapshot as YAML.
func WriteSnapshot(path string, snap Snapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
