package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Memory implements Cache with an in-process map. Used when no Redis address is
// configured (single-instance deployments) and in tests. Entries expire lazily
// on access.
type Memory struct {
	mu sync.Mutex
	m  map[string]memEntry
}

type memEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]memEntry)}
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Get returns the value for key, or ErrMiss.
func (c *Memory) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok || e.expired(time.Now()) {
		delete(c.m, key)
		return "", ErrMiss
	}
	return e.value, nil
}

// Set stores value under key with the given TTL.
func (c *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.m[key] = memEntry{value: value, expiresAt: exp}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Memory) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

// Increment increments the counter at key, creating it with the given TTL when absent.
func (c *Memory) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	e, ok := c.m[key]
	if !ok || e.expired(now) {
		var exp time.Time
		if ttl > 0 {
			exp = now.Add(ttl)
		}
		c.m[key] = memEntry{value: "1", expiresAt: exp}
		return 1, nil
	}
	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		n = 0
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	c.m[key] = e
	return n, nil
}

// TTL returns the remaining lifetime of key, or ErrMiss.
func (c *Memory) TTL(ctx context.Context, key string) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	e, ok := c.m[key]
	if !ok || e.expired(now) {
		delete(c.m, key)
		return 0, ErrMiss
	}
	if e.expiresAt.IsZero() {
		return 0, nil
	}
	return e.expiresAt.Sub(now), nil
}

// Ping always succeeds for the in-process cache.
func (c *Memory) Ping(ctx context.Context) error { return nil }
