// Package handler exposes the admin user-management routes.
package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	userdomain "servicos-ja/backend/internal/user/domain"
)

const defaultPageSize = 50

// UserStore is the part of the user repository the admin routes consume.
type UserStore interface {
	List(ctx context.Context, limit, offset int32) ([]*userdomain.User, error)
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	Update(ctx context.Context, u *userdomain.User) error
	SetActive(ctx context.Context, id string, active bool) error
}

// CacheClearer invalidates a user's cache entries after an admin change.
// Implemented by the auth service.
type CacheClearer interface {
	ClearUserCache(ctx context.Context, userID, email string)
}

// Handler serves the /api/admin routes. Mounted behind RequireAuth and
// RequireRole(admin).
type Handler struct {
	users UserStore
	cache CacheClearer
}

func New(users UserStore, cache CacheClearer) *Handler {
	return &Handler{users: users, cache: cache}
}

// Mount registers the admin routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/users", h.ListUsers)
	r.Patch("/users/{id}", h.UpdateUser)
}

type listResponse struct {
	Success bool                     `json:"success"`
	Users   []*userdomain.Projection `json:"users"`
}

type userResponse struct {
	Success bool                   `json:"success"`
	User    *userdomain.Projection `json:"user,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"isActive"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultPageSize)
	offset := queryInt(r, "offset", 0)
	if limit <= 0 || limit > 200 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	users, err := h.users.List(r.Context(), int32(limit), int32(offset))
	if err != nil {
		log.Printf("admin handler: list users: %v", err)
		writeJSON(w, http.StatusInternalServerError, userResponse{Error: "internal error"})
		return
	}
	out := make([]*userdomain.Projection, len(users))
	for i, u := range users {
		out[i] = u.Sanitize()
	}
	writeJSON(w, http.StatusOK, listResponse{Success: true, Users: out})
}

// UpdateUser edits a user's name and/or active flag. Any change clears the
// user's cache entries so stale sessions stop verifying as soon as the token
// cache ages out.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || (req.Name == nil && req.IsActive == nil) {
		writeJSON(w, http.StatusBadRequest, userResponse{Error: "invalid request body"})
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		log.Printf("admin handler: get user %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, userResponse{Error: "internal error"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, userResponse{Error: "user not found"})
		return
	}
	if req.Name != nil {
		user.Name = *req.Name
		user.UpdatedAt = time.Now().UTC()
		if err := h.users.Update(r.Context(), user); err != nil {
			log.Printf("admin handler: update user %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, userResponse{Error: "internal error"})
			return
		}
	}
	if req.IsActive != nil {
		if err := h.users.SetActive(r.Context(), id, *req.IsActive); err != nil {
			log.Printf("admin handler: set active %s: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, userResponse{Error: "internal error"})
			return
		}
		user.IsActive = *req.IsActive
	}
	if h.cache != nil {
		h.cache.ClearUserCache(r.Context(), user.ID, user.Email)
	}
	writeJSON(w, http.StatusOK, userResponse{Success: true, User: user.Sanitize()})
}

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
