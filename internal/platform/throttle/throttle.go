// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package throttle implements the per-identity sliding-window request throttle.

Each [Throttle] owns its window map for the lifetime of the process. Nothing
is shared between instances and nothing is coordinated across processes, so
two server replicas each admit up to the ceiling on their own.

Concurrency:

  - The subject map is guarded by one mutex that is held only for lookup.
  - Each subject carries its own mutex, held across prune+check+append, so two
    concurrent requests for the same key can never both observe "under ceiling"
    when only one of them fits.
*/
package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// # Policy

// Policy is the (ceiling, window) pair of one throttle instance.
type Policy struct {
	// Name labels the policy in logs and metrics (e.g. "auth", "api").
	Name string
	// Ceiling is the number of admissions allowed inside one window.
	Ceiling int
	// Window is the trailing duration admissions are counted over.
	Window time.Duration
}

// Validate rejects unusable policies.
func (p Policy) Validate() error {
	if p.Ceiling < 1 {
		return fmt.Errorf("throttle: policy %q ceiling must be >= 1, got %d", p.Name, p.Ceiling)
	}
	if p.Window <= 0 {
		return fmt.Errorf("throttle: policy %q window must be positive, got %s", p.Name, p.Window)
	}
	return nil
}

// Decision is the outcome of one [Throttle.Admit] call.
type Decision struct {
	Allowed bool
	// RetryAfter is how long until the oldest counted entry leaves the window.
	// Zero when Allowed.
	RetryAfter time.Duration
	// Remaining is the number of admissions left in the current window.
	Remaining int
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int((d.RetryAfter + time.Second - 1) / time.Second)
}

// # Throttle

type subject struct {
	mu      sync.Mutex
	stamps  []time.Time
	evicted bool
}

// Throttle tracks admission timestamps per subject key.
type Throttle struct {
	policy Policy
	now    func() time.Time

	mu       sync.Mutex
	subjects map[string]*subject
}

// New creates a Throttle for policy.
func New(policy Policy) (*Throttle, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Throttle{
		policy:   policy,
		now:      time.Now,
		subjects: make(map[string]*subject),
	}, nil
}

// Policy returns the policy the throttle enforces.
func (throttle *Throttle) Policy() Policy {
	return throttle.policy
}

// Allow is [Throttle.Admit] at the current wall-clock time.
func (throttle *Throttle) Allow(key string) Decision {
	return throttle.Admit(key, throttle.now())
}

// Admit decides whether one more request for key fits in the window ending at now.
//
// Entries older than now-window are dropped first. When the remaining count
// has reached the ceiling the request is denied and nothing is recorded;
// otherwise now is appended and the request is admitted.
func (throttle *Throttle) Admit(key string, now time.Time) Decision {
	for {
		entry := throttle.lookup(key)

		entry.mu.Lock()
		if entry.evicted {
			// Swept between lookup and lock; retry against the fresh entry.
			entry.mu.Unlock()
			continue
		}

		decision := throttle.admitLocked(entry, now)
		entry.mu.Unlock()
		return decision
	}
}

// admitLocked keeps entry.stamps in ascending order. A caller that read the
// clock before a concurrent caller took the lock is recorded at the newest
// stamp instead of behind it.
func (throttle *Throttle) admitLocked(entry *subject, now time.Time) Decision {
	if count := len(entry.stamps); count > 0 && now.Before(entry.stamps[count-1]) {
		now = entry.stamps[count-1]
	}

	cutoff := now.Add(-throttle.policy.Window)

	// ── 1. Prune ──────────────────────────────────────────────────────────
	stale := 0
	for stale < len(entry.stamps) && entry.stamps[stale].Before(cutoff) {
		stale++
	}
	if stale > 0 {
		entry.stamps = append(entry.stamps[:0], entry.stamps[stale:]...)
	}

	// ── 2. Check ──────────────────────────────────────────────────────────
	if len(entry.stamps) >= throttle.policy.Ceiling {
		retryAfter := throttle.policy.Window - now.Sub(entry.stamps[0])
		if retryAfter < 0 {
			retryAfter = 0
		}
		return Decision{Allowed: false, RetryAfter: retryAfter}
	}

	// ── 3. Append ─────────────────────────────────────────────────────────
	entry.stamps = append(entry.stamps, now)
	return Decision{Allowed: true, Remaining: throttle.policy.Ceiling - len(entry.stamps)}
}

func (throttle *Throttle) lookup(key string) *subject {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()

	entry, found := throttle.subjects[key]
	if !found {
		entry = &subject{stamps: make([]time.Time, 0, throttle.policy.Ceiling)}
		throttle.subjects[key] = entry
	}
	return entry
}

// # Housekeeping

// Sweep drops every subject whose newest entry has left the window at now.
// It returns the number of subjects removed.
func (throttle *Throttle) Sweep(now time.Time) int {
	cutoff := now.Add(-throttle.policy.Window)

	throttle.mu.Lock()
	defer throttle.mu.Unlock()

	removed := 0
	for key, entry := range throttle.subjects {
		entry.mu.Lock()
		if len(entry.stamps) == 0 || entry.stamps[len(entry.stamps)-1].Before(cutoff) {
			entry.evicted = true
			delete(throttle.subjects, key)
			removed++
		}
		entry.mu.Unlock()
	}
	return removed
}

// Len reports how many subjects are currently tracked.
func (throttle *Throttle) Len() int {
	throttle.mu.Lock()
	defer throttle.mu.Unlock()
	return len(throttle.subjects)
}

// StartJanitor sweeps the throttle every interval until context is cancelled.
func (throttle *Throttle) StartJanitor(context context.Context, interval time.Duration, onSweep func(removed int)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				removed := throttle.Sweep(throttle.now())
				if onSweep != nil {
					onSweep(removed)
				}
			case <-context.Done():
				// Stop the goroutine when the application shuts down
				return
			}
		}
	}()
}
