// Package ledger keeps per-client submission timestamps and decides whether a
// client may submit again within a trailing window.
package ledger

import (
	"context"
	"time"
)

// Ledger stores submission timestamps per client key.
type Ledger interface {
	// Timestamps drops entries at or before since and returns the remaining
	// ones in ascending order.
	Timestamps(ctx context.Context, key string, since time.Time) ([]time.Time, error)
	// Record appends at to the key. ttl is a hint for backends that expire
	// idle keys.
	Record(ctx context.Context, key string, at time.Time, ttl time.Duration) error
}
