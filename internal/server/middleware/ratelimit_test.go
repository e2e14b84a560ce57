package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"servicos-ja/backend/internal/cache"
	"servicos-ja/backend/internal/config"
	"servicos-ja/backend/internal/ratelimit"
	"servicos-ja/backend/internal/telemetry"
	userdomain "servicos-ja/backend/internal/user/domain"
)

type capturingEmitter struct {
	events chan *telemetry.SecurityEvent
}

func (c *capturingEmitter) Emit(ctx context.Context, e *telemetry.SecurityEvent) error {
	c.events <- e
	return nil
}

func TestRateLimitByIP(t *testing.T) {
	limiter := ratelimit.New(cache.NewMemory())
	policy := config.RatePolicy{Limit: 2, Window: time.Minute}
	emitter := &capturingEmitter{events: make(chan *telemetry.SecurityEvent, 1)}
	h := RateLimitByIP(limiter, "login", policy, emitter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response should carry Retry-After")
	}
	if rec.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("429 response should carry X-RateLimit-Reset")
	}
	select {
	case e := <-emitter.events:
		if e.EventType != telemetry.EventRateLimited {
			t.Errorf("event type = %q, want %q", e.EventType, telemetry.EventRateLimited)
		}
		if e.IP != "203.0.113.7" {
			t.Errorf("event ip = %q, want 203.0.113.7", e.IP)
		}
	case <-time.After(2 * time.Second):
		t.Error("denial should emit a rate_limited event")
	}

	// A different IP is a separate counter.
	req = httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "198.51.100.9:1234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other ip: status = %d, want 200", rec.Code)
	}
}

func TestRateLimitByUser_FallsBackToIP(t *testing.T) {
	limiter := ratelimit.New(cache.NewMemory())
	policy := config.RatePolicy{Limit: 1, Window: time.Minute}
	h := RateLimitByUser(limiter, "api_write", policy, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Authenticated: counted per user id, regardless of IP.
	user := &userdomain.Projection{ID: "user-1"}
	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/thing", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		req = req.WithContext(WithIdentity(req.Context(), user))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("auth request %d: status = %d, want %d", i+1, rec.Code, want)
		}
	}

	// Unauthenticated from a fresh IP: separate counter.
	req := httptest.NewRequest(http.MethodPost, "/api/thing", nil)
	req.RemoteAddr = "198.51.100.9:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("anon request: status = %d, want 200", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{"remote addr", "203.0.113.7:1234", "", "", "203.0.113.7"},
		{"x-forwarded-for single", "10.0.0.1:80", "198.51.100.9", "", "198.51.100.9"},
		{"x-forwarded-for chain", "10.0.0.1:80", "198.51.100.9, 10.0.0.2", "", "198.51.100.9"},
		{"x-real-ip", "10.0.0.1:80", "", "198.51.100.10", "198.51.100.10"},
		{"forwarded beats real-ip", "10.0.0.1:80", "198.51.100.9", "198.51.100.10", "198.51.100.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if got := ClientIP(req); got != tc.want {
				t.Errorf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}
