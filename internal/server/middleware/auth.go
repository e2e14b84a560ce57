package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	userdomain "servicos-ja/backend/internal/user/domain"
)

const bearerPrefix = "bearer "

// TokenVerifier resolves a raw access token to its user. Implemented by the
// auth service.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*userdomain.Projection, error)
}

// RequireAuth validates the Bearer access token on every request and puts the
// resolved user into the request context. Requests without a valid token get
// 401; the body never says why the token failed.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r)
			if token == "" {
				unauthorized(w)
				return
			}
			user, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user)))
		})
	}
}

// RequireRole allows the request through only when the authenticated user has
// the given role. Must be mounted after RequireAuth.
func RequireRole(role userdomain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if user.Role != role {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractBearer returns the Bearer token from the Authorization header, or ""
// if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "missing or invalid authorization")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": msg})
}
