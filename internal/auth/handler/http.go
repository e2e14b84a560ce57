// Package handler exposes the auth service over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"servicos-ja/backend/internal/auth/service"
	"servicos-ja/backend/internal/server/middleware"
	userdomain "servicos-ja/backend/internal/user/domain"
)

// AuthService is the part of the auth service the HTTP layer consumes.
type AuthService interface {
	Register(ctx context.Context, email, password, name string, role userdomain.Role) (*userdomain.Projection, error)
	Authenticate(ctx context.Context, email, password string) (*service.AuthResult, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*service.AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Handler serves the /api/auth routes.
type Handler struct {
	auth AuthService
}

func New(auth AuthService) *Handler {
	return &Handler{auth: auth}
}

// Mount registers the public auth routes on r. The caller wraps login and
// register with the rate-limit middleware; /me is mounted behind RequireAuth
// by the router.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	Success      bool                   `json:"success"`
	User         *userdomain.Projection `json:"user,omitempty"`
	AccessToken  string                 `json:"accessToken,omitempty"`
	RefreshToken string                 `json:"refreshToken,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	proj, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name, userdomain.Role(req.Role))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Success: true, User: proj})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Success:      true,
		User:         res.User,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.auth.RefreshAccessToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Success:      true,
		User:         res.User,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Success: true})
}

// Me returns the authenticated user from context. Mounted behind RequireAuth.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Success: true, User: user})
}

// writeServiceError maps auth service sentinel errors to HTTP status codes.
// The refresh failure reasons stay distinguishable in the body; the login
// failure reason never does.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrAccountDisabled):
		writeError(w, http.StatusForbidden, service.ErrAccountDisabled.Error())
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		writeError(w, http.StatusConflict, service.ErrEmailAlreadyRegistered.Error())
	case errors.Is(err, service.ErrRefreshTokenInvalid),
		errors.Is(err, service.ErrRefreshTokenExpired),
		errors.Is(err, service.ErrRefreshTokenRevoked):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrUserInactive):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		log.Printf("auth handler: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, authResponse{Success: false, Error: msg})
}
