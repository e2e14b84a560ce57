// Package cache defines the key-value cache adapter used for cache-aside user
// lookups and rate-limit counters. The cache is a performance layer only:
// callers must treat any failure as a miss and fall back to the authoritative
// store.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get and TTL when the key is absent or expired.
// Callers use errors.Is to distinguish a true miss from an infrastructure failure,
// though both must degrade the same way (fall through to the durable store).
var ErrMiss = errors.New("cache miss")

// Cache is the adapter over a shared key-value store (Redis in production,
// in-process memory otherwise). Any operation may fail; no caller may treat
// the cache as a source of truth.
type Cache interface {
	// Get returns the value for key, or ErrMiss.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key with the given TTL. ttl must be positive.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Increment atomically increments the counter at key and returns the new
	// count. The TTL is set only when the key is created by this call, so the
	// window of an existing counter is never extended.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// TTL returns the remaining lifetime of key, or ErrMiss if absent.
	// Keys without expiry report zero.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Ping reports whether the store is reachable. Used by readiness checks.
	Ping(ctx context.Context) error
}

// Key namespaces. All cache keys in the system go through these helpers.
const (
	userKeyPrefix    = "user:"
	sessionKeyPrefix = "session:"
	tokenKeyPrefix   = "token:"
	rateKeyPrefix    = "rate:"
)

// UserKey is the cache key for a user projection by normalized email.
func UserKey(email string) string { return userKeyPrefix + email }

// SessionKey is the cache key for a user's session marker.
func SessionKey(userID string) string { return sessionKeyPrefix + userID }

// TokenKey is the cache key for a verified access-token payload.
func TokenKey(accessToken string) string { return tokenKeyPrefix + accessToken }

// RateKey is the cache key for a rate-limit counter in the given scope
// (identifier is a user id or client IP).
func RateKey(scope, identifier string) string { return rateKeyPrefix + scope + ":" + identifier }
