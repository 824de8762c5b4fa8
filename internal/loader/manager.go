package loader

import (
	"context"
	"log/slog"
	"time"
)

// Manager drives a Loader on an interval, building and swapping a new
// Version into source whenever the loader reports a change. A failed load
// or build is logged and the previously accepted Version keeps serving,
// per §7's SupergraphLoad error policy.
type Manager struct {
	Loader   Loader
	Source   *Source
	Interval time.Duration
}

// ReloadOnce runs a single load/build/swap cycle. It returns true if a new
// Version was installed.
func (m *Manager) ReloadOnce(ctx context.Context) (bool, error) {
	result, err := m.Loader.Load(ctx)
	if err != nil {
		return false, err
	}
	changed, ok := result.(Changed)
	if !ok {
		return false, nil
	}
	version, err := BuildVersion(changed.SDL)
	if err != nil {
		return false, err
	}
	m.Source.Swap(version)
	return true, nil
}

// Run blocks, reloading on every tick of Interval until ctx is canceled. The
// first reload happens immediately rather than waiting a full interval, so
// Source has a Version as soon as possible.
func (m *Manager) Run(ctx context.Context) {
	if _, err := m.ReloadOnce(ctx); err != nil {
		slog.Error("supergraph load failed", "error", err)
	}

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if changed, err := m.ReloadOnce(ctx); err != nil {
				slog.Error("supergraph reload failed, keeping previous version", "error", err)
			} else if changed {
				slog.Info("supergraph version reloaded")
			}
		}
	}
}
