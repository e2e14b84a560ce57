// Package handler exposes liveness and readiness probes.
package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger reports whether the cache store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves /healthz. The database is the authoritative store, so its
// failure makes the probe fail; the cache is a performance layer, so its
// failure only degrades the report.
type Handler struct {
	db    *sql.DB
	cache Pinger
}

func New(db *sql.DB, cache Pinger) *Handler {
	return &Handler{db: db, cache: cache}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	resp := healthResponse{Status: "ok", Checks: map[string]string{}}

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			resp.Checks["database"] = "down"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks["database"] = "ok"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			resp.Checks["cache"] = "down"
			if resp.Status == "ok" {
				resp.Status = "degraded"
			}
		} else {
			resp.Checks["cache"] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
