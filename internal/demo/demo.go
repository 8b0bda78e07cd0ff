// Package demo serves list data when the backend is unreachable and demo
// mode is switched on: first the last good snapshot from the offline cache,
// then the bundled fixtures.
package demo

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Sources reported by Load.
const (
	SourceSnapshot = "snapshot"
	SourceFixture  = "fixture"
)

// ErrNoData is returned when neither a snapshot nor a fixture exists.
var ErrNoData = errors.New("no demo data")

//go:embed fixtures.yaml
var fixturesYAML []byte

var (
	fixturesOnce sync.Once
	fixtures     map[string]json.RawMessage
	fixturesErr  error
)

// Fixture returns the bundled records for a view as a JSON array.
func Fixture(view string) (json.RawMessage, error) {
	fixturesOnce.Do(func() {
		fixtures, fixturesErr = parseFixtures(fixturesYAML)
	})
	if fixturesErr != nil {
		return nil, fixturesErr
	}
	raw, ok := fixtures[view]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoData, view)
	}
	return raw, nil
}

// parseFixtures converts the YAML document into one JSON array per view so
// the records decode through the same path as backend responses.
func parseFixtures(b []byte) (map[string]json.RawMessage, error) {
	var doc map[string][]map[string]any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	out := make(map[string]json.RawMessage, len(doc))
	for view, records := range doc {
		raw, err := json.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", view, err)
		}
		out[view] = raw
	}
	return out, nil
}

// SnapshotStore is the offline cache of last good list responses.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, view string, payload []byte, ttl time.Duration) error
	LoadSnapshot(ctx context.Context, view string) ([]byte, bool, error)
}

// Fallback answers list loads the backend failed. A nil Store skips the
// snapshot step.
type Fallback struct {
	Enabled bool
	Store   SnapshotStore
	TTL     time.Duration
	Logger  *zap.Logger
}

// snapshotKey separates snapshots of one view taken under different scopes.
func snapshotKey(view, scope string) string {
	if scope == "" {
		return view
	}
	return view + ":" + scope
}

// Remember stores a successful backend response as the snapshot of the view
// within scope. Only a Load with the same scope reads it back.
func (f *Fallback) Remember(ctx context.Context, view, scope string, raw json.RawMessage) {
	if f == nil || f.Store == nil || len(raw) == 0 {
		return
	}
	if err := f.Store.SaveSnapshot(ctx, snapshotKey(view, scope), raw, f.TTL); err != nil {
		f.logger().Warn("save snapshot", zap.String("view", view), zap.Error(err))
	}
}

// Load returns fallback data for the view and where it came from: the
// snapshot remembered within scope, else the bundled fixture. It fails
// immediately when demo mode is off.
func (f *Fallback) Load(ctx context.Context, view, scope string) (json.RawMessage, string, error) {
	if f == nil || !f.Enabled {
		return nil, "", ErrNoData
	}
	if f.Store != nil {
		raw, ok, err := f.Store.LoadSnapshot(ctx, snapshotKey(view, scope))
		switch {
		case err != nil:
			f.logger().Warn("load snapshot", zap.String("view", view), zap.Error(err))
		case ok:
			return raw, SourceSnapshot, nil
		}
	}
	raw, err := Fixture(view)
	if err != nil {
		return nil, "", err
	}
	return raw, SourceFixture, nil
}

func (f *Fallback) logger() *zap.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return zap.L()
}
