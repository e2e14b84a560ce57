package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"servicos-ja/backend/internal/config"
	"servicos-ja/backend/internal/ratelimit"
	"servicos-ja/backend/internal/telemetry"
)

// RateLimiter decides admit/deny for one request. Implemented by ratelimit.Limiter.
type RateLimiter interface {
	Check(ctx context.Context, scope, identifier string, limit int, window time.Duration) ratelimit.Decision
}

// RateLimitByIP throttles requests per client IP under the given scope and policy.
// Used in front of unauthenticated endpoints (login, register). events may be nil.
func RateLimitByIP(limiter RateLimiter, scope string, policy config.RatePolicy, events telemetry.EventEmitter) func(http.Handler) http.Handler {
	return rateLimit(limiter, scope, policy, events, func(r *http.Request) string {
		return ClientIP(r)
	})
}

// RateLimitByUser throttles per authenticated user id, falling back to the
// client IP when no identity is in context. Mount after RequireAuth for
// user-scoped policies.
func RateLimitByUser(limiter RateLimiter, scope string, policy config.RatePolicy, events telemetry.EventEmitter) func(http.Handler) http.Handler {
	return rateLimit(limiter, scope, policy, events, func(r *http.Request) string {
		if id, ok := GetUserID(r.Context()); ok {
			return id
		}
		return ClientIP(r)
	})
}

func rateLimit(limiter RateLimiter, scope string, policy config.RatePolicy, events telemetry.EventEmitter, identify func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := identify(r)
			d := limiter.Check(r.Context(), scope, identifier, policy.Limit, policy.Window)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(policy.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				retryAfter := int(time.Until(d.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				telemetry.EmitAsync(events, r.Context(), &telemetry.SecurityEvent{
					EventType:  telemetry.EventRateLimited,
					IP:         ClientIP(r),
					Details:    scope + ":" + identifier,
					OccurredAt: time.Now().UTC(),
				})
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the client address, honoring X-Forwarded-For and X-Real-IP
// set by the reverse proxy in front of the API.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		if ip := strings.TrimSpace(fwd); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
