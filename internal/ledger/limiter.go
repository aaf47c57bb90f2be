package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Decision is the outcome of one Limiter.Allow call.
type Decision struct {
	Allowed bool
	// Count is the number of submissions in the window, including this one
	// when allowed.
	Count int
	// RetryAfter is set when denied: time until the oldest entry leaves the
	// window.
	RetryAfter time.Duration
}

type LimiterOpts struct {
	TimeProvider func() time.Time
}

// Limiter allows at most limit submissions per key in any trailing window.
// Check and record for one key are serialized within the process.
type Limiter struct {
	ledger       Ledger
	limit        int
	window       time.Duration
	timeProvider func() time.Time
	locks        keyedMutex
}

func NewLimiter(l Ledger, limit int, window time.Duration, opts *LimiterOpts) *Limiter {
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	return &Limiter{
		ledger:       l,
		limit:        limit,
		window:       window,
		timeProvider: timeProvider,
		locks:        keyedMutex{locks: map[string]*refLock{}},
	}
}

func (l *Limiter) Limit() int { return l.limit }

func (l *Limiter) Window() time.Duration { return l.window }

// Allow records a submission for key unless the key is at its limit.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	unlock := l.locks.lock(key)
	defer unlock()

	now := l.timeProvider()
	recent, err := l.ledger.Timestamps(ctx, key, now.Add(-l.window))
	if err != nil {
		return Decision{}, fmt.Errorf("read ledger: %w", err)
	}

	if len(recent) >= l.limit {
		retry := time.Duration(0)
		if len(recent) > 0 {
			retry = recent[0].Add(l.window).Sub(now)
		}
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, Count: len(recent), RetryAfter: retry}, nil
	}

	if err := l.ledger.Record(ctx, key, now, l.window); err != nil {
		return Decision{}, fmt.Errorf("write ledger: %w", err)
	}
	return Decision{Allowed: true, Count: len(recent) + 1}, nil
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and forgets it once no goroutine
// holds or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	rl, ok := k.locks[key]
	if !ok {
		rl = &refLock{}
		k.locks[key] = rl
	}
	rl.refs++
	k.mu.Unlock()

	rl.mu.Lock()

	return func() {
		rl.mu.Unlock()
		k.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
