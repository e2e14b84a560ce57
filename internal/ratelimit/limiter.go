// Package ratelimit implements fixed-window request throttling over the cache
// adapter. Counters live in the shared cache under rate:<scope>:<identifier>
// and reset when their TTL elapses.
package ratelimit

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"servicos-ja/backend/internal/cache"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter decides admit/deny for a named operation class and identifier
// (user id or client IP) using fixed-window counters.
//
// Failure policy is fail-open: when the counter store is unreachable the
// request is admitted. Availability of the primary function outweighs
// throttling precision; this asymmetry is deliberate.
type Limiter struct {
	cache cache.Cache
}

// New returns a Limiter over the given counter store.
func New(c cache.Cache) *Limiter {
	return &Limiter{cache: c}
}

// Check admits or denies one attempt in the given scope for identifier.
// At most limit attempts are admitted per window. Denials report the counter's
// live expiry as ResetAt, not a freshly computed one, so repeated denied
// attempts never reset the caller's window.
func (l *Limiter) Check(ctx context.Context, scope, identifier string, limit int, window time.Duration) Decision {
	now := time.Now()
	key := cache.RateKey(scope, identifier)

	if limit <= 0 {
		return Decision{Allowed: false, Remaining: 0, ResetAt: now.Add(window)}
	}

	cur, err := l.cache.Get(ctx, key)
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		log.Printf("ratelimit: %s: counter read failed, failing open: %v", key, err)
		return Decision{Allowed: true, Remaining: limit, ResetAt: now.Add(window)}
	}
	if err == nil {
		if n, perr := strconv.Atoi(cur); perr == nil && n >= limit {
			return Decision{Allowed: false, Remaining: 0, ResetAt: l.resetAt(ctx, key, now, window)}
		}
	}

	n, err := l.cache.Increment(ctx, key, window)
	if err != nil {
		log.Printf("ratelimit: %s: counter increment failed, failing open: %v", key, err)
		return Decision{Allowed: true, Remaining: limit, ResetAt: now.Add(window)}
	}
	// Concurrent checks may race past the read; the increment result is the
	// arbiter. One extra admitted request per window under contention is the
	// accepted tradeoff.
	if n > int64(limit) {
		return Decision{Allowed: false, Remaining: 0, ResetAt: l.resetAt(ctx, key, now, window)}
	}
	remaining := limit - int(n)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining, ResetAt: l.resetAt(ctx, key, now, window)}
}

// resetAt reports when the counter at key expires, preferring the key's live
// TTL over a recomputed window end.
func (l *Limiter) resetAt(ctx context.Context, key string, now time.Time, window time.Duration) time.Time {
	ttl, err := l.cache.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		return now.Add(window)
	}
	return now.Add(ttl)
}
