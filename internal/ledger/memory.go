package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryLedger is a process-local Ledger. State is lost on restart and is not
// shared between instances.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: map[string][]time.Time{}}
}

func (m *MemoryLedger) Timestamps(_ context.Context, key string, since time.Time) ([]time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recent := prune(m.entries[key], since)
	if len(recent) == 0 {
		delete(m.entries, key)
		return nil, nil
	}
	m.entries[key] = recent

	out := make([]time.Time, len(recent))
	copy(out, recent)
	return out, nil
}

func (m *MemoryLedger) Record(_ context.Context, key string, at time.Time, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append(m.entries[key], at)
	return nil
}

// Sweep removes keys whose timestamps all fall outside the window ending at
// now and reports how many were removed.
func (m *MemoryLedger) Sweep(now time.Time, window time.Duration) int {
	since := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, ts := range m.entries {
		recent := prune(ts, since)
		if len(recent) == 0 {
			delete(m.entries, key)
			removed++
			continue
		}
		m.entries[key] = recent
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *MemoryLedger) Run(ctx context.Context, interval, window time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Sweep(now, window); n > 0 && logger != nil {
				logger.Debug("ledger sweep", "removed", n, "remaining", m.Len())
			}
		}
	}
}

// Len returns the number of tracked keys.
func (m *MemoryLedger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// prune keeps timestamps strictly after since. ts is assumed ascending.
func prune(ts []time.Time, since time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(since) {
		i++
	}
	return ts[i:]
}
