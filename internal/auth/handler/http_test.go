package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"servicos-ja/backend/internal/auth/service"
	"servicos-ja/backend/internal/server/middleware"
	userdomain "servicos-ja/backend/internal/user/domain"
)

// stubAuthService implements AuthService with canned results.
type stubAuthService struct {
	registerRes *userdomain.Projection
	registerErr error
	authRes     *service.AuthResult
	authErr     error
	refreshRes  *service.AuthResult
	refreshErr  error
	logoutErr   error

	lastEmail    string
	lastPassword string
	lastRefresh  string
}

func (s *stubAuthService) Register(ctx context.Context, email, password, name string, role userdomain.Role) (*userdomain.Projection, error) {
	s.lastEmail = email
	return s.registerRes, s.registerErr
}

func (s *stubAuthService) Authenticate(ctx context.Context, email, password string) (*service.AuthResult, error) {
	s.lastEmail, s.lastPassword = email, password
	return s.authRes, s.authErr
}

func (s *stubAuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*service.AuthResult, error) {
	s.lastRefresh = refreshToken
	return s.refreshRes, s.refreshErr
}

func (s *stubAuthService) Logout(ctx context.Context, refreshToken string) error {
	s.lastRefresh = refreshToken
	return s.logoutErr
}

func serve(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/api/auth", func(r chi.Router) {
		h.Mount(r)
		r.Get("/me", h.Me)
	})
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestLogin_Success(t *testing.T) {
	stub := &stubAuthService{
		authRes: &service.AuthResult{
			AccessToken:  "access",
			RefreshToken: "refresh",
			User:         &userdomain.Projection{ID: "user-1", Email: "ana@example.com"},
		},
	}
	rec := serve(New(stub), http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"pw"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode(t, rec)
	if body["success"] != true {
		t.Error("success should be true")
	}
	if body["accessToken"] != "access" || body["refreshToken"] != "refresh" {
		t.Errorf("tokens missing from response: %v", body)
	}
	if stub.lastEmail != "ana@example.com" {
		t.Errorf("service got email %q", stub.lastEmail)
	}
}

func TestLogin_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"account disabled", service.ErrAccountDisabled, http.StatusForbidden},
		{"store failure", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubAuthService{authErr: tc.err}
			rec := serve(New(stub), http.MethodPost, "/api/auth/login", `{"email":"a@b.co","password":"x"}`)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if body := decode(t, rec); body["success"] != false {
				t.Error("success should be false")
			}
		})
	}
}

func TestLogin_BadBody(t *testing.T) {
	rec := serve(New(&stubAuthService{}), http.MethodPost, "/api/auth/login", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRegister(t *testing.T) {
	stub := &stubAuthService{registerRes: &userdomain.Projection{ID: "user-1", Email: "novo@example.com"}}
	rec := serve(New(stub), http.MethodPost, "/api/auth/register", `{"email":"novo@example.com","password":"12345678","name":"Novo"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	stub = &stubAuthService{registerErr: service.ErrEmailAlreadyRegistered}
	rec = serve(New(stub), http.MethodPost, "/api/auth/register", `{"email":"novo@example.com","password":"12345678"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: status = %d, want 409", rec.Code)
	}

	stub = &stubAuthService{registerErr: service.ErrInvalidInput}
	rec = serve(New(stub), http.MethodPost, "/api/auth/register", `{"email":"bad","password":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid input: status = %d, want 400", rec.Code)
	}
}

func TestRefresh_DistinguishesFailureStates(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want string
	}{
		{service.ErrRefreshTokenInvalid, "refresh token invalid"},
		{service.ErrRefreshTokenExpired, "refresh token expired"},
		{service.ErrRefreshTokenRevoked, "refresh token revoked"},
	} {
		stub := &stubAuthService{refreshErr: tc.err}
		rec := serve(New(stub), http.MethodPost, "/api/auth/refresh", `{"refreshToken":"value"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%v: status = %d, want 401", tc.err, rec.Code)
		}
		if body := decode(t, rec); body["error"] != tc.want {
			t.Errorf("error = %v, want %q", body["error"], tc.want)
		}
	}
}

func TestRefresh_Success(t *testing.T) {
	stub := &stubAuthService{
		refreshRes: &service.AuthResult{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			User:         &userdomain.Projection{ID: "user-1"},
		},
	}
	rec := serve(New(stub), http.MethodPost, "/api/auth/refresh", `{"refreshToken":"old"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if stub.lastRefresh != "old" {
		t.Errorf("service got refresh token %q", stub.lastRefresh)
	}
}

func TestLogout(t *testing.T) {
	stub := &stubAuthService{}
	rec := serve(New(stub), http.MethodPost, "/api/auth/logout", `{"refreshToken":"value"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMe(t *testing.T) {
	h := New(&stubAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), &userdomain.Projection{ID: "user-1", Email: "ana@example.com"}))
	rec := httptest.NewRecorder()
	h.Me(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode(t, rec)
	user, _ := body["user"].(map[string]any)
	if user == nil || user["email"] != "ana@example.com" {
		t.Errorf("user = %v", body["user"])
	}

	// Without identity in context.
	rec = httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
