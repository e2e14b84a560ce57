package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"servicos-ja/backend/internal/audit"
	"servicos-ja/backend/internal/cache"
	refreshdomain "servicos-ja/backend/internal/refreshtoken/domain"
	refreshrepo "servicos-ja/backend/internal/refreshtoken/repository"
	"servicos-ja/backend/internal/security"
	"servicos-ja/backend/internal/telemetry"
	userdomain "servicos-ja/backend/internal/user/domain"
)

// Sentinel errors for the auth service; handlers map them to HTTP status codes.
// ErrInvalidCredentials covers both unknown email and wrong password so the
// response never reveals which one failed.
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountDisabled        = errors.New("account disabled")
	ErrInvalidToken           = errors.New("invalid token")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserInactive           = errors.New("user inactive")
	ErrRefreshTokenInvalid    = errors.New("refresh token invalid")
	ErrRefreshTokenExpired    = errors.New("refresh token expired")
	ErrRefreshTokenRevoked    = errors.New("refresh token revoked")
)

// AuthResult holds the outcome of Authenticate or RefreshAccessToken.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *userdomain.Projection
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	SetLastLogin(ctx context.Context, id string, at time.Time) error
}

// RefreshTokenRepo is the minimal refresh-token repository needed by the auth service.
type RefreshTokenRepo interface {
	GetByHashWithUser(ctx context.Context, tokenHash string) (*refreshrepo.TokenWithUser, error)
	Create(ctx context.Context, t *refreshdomain.RefreshToken) error
	Revoke(ctx context.Context, id string) error
	RevokeAllByUser(ctx context.Context, userID string) error
	Rotate(ctx context.Context, oldID string, next *refreshdomain.RefreshToken) error
}

// tokenPayload is the JSON shape cached under token:<accessToken>. A hit lets
// VerifyAccessToken skip signature verification and the user lookup entirely;
// its TTL is bounded by the token's own expiry so a cached entry can never
// outlive the token.
type tokenPayload struct {
	UserID string                 `json:"userId"`
	Email  string                 `json:"email"`
	User   *userdomain.Projection `json:"user"`
}

// sessionPayload is the JSON shape cached under session:<userId>.
type sessionPayload struct {
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	LoggedInAt time.Time `json:"loggedInAt"`
}

// AuthService implements login, token verification, refresh rotation, and the
// cache-invalidation hook used by logout and profile updates.
type AuthService struct {
	userRepo  UserRepo
	tokenRepo RefreshTokenRepo
	cache     cache.Cache
	hasher    *security.Hasher
	tokens    *security.TokenProvider
	auditLog  audit.ActivityLogger
	emitter   telemetry.EventEmitter

	userTTL            time.Duration
	sessionTTL         time.Duration
	rotationRevokesAll bool
}

// NewAuthService returns an AuthService with the given dependencies.
// auditLog and emitter may be nil; both are best-effort sinks.
func NewAuthService(
	userRepo UserRepo,
	tokenRepo RefreshTokenRepo,
	c cache.Cache,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	auditLog audit.ActivityLogger,
	emitter telemetry.EventEmitter,
	userTTL, sessionTTL time.Duration,
	rotationRevokesAll bool,
) *AuthService {
	return &AuthService{
		userRepo:           userRepo,
		tokenRepo:          tokenRepo,
		cache:              c,
		hasher:             hasher,
		tokens:             tokens,
		auditLog:           auditLog,
		emitter:            emitter,
		userTTL:            userTTL,
		sessionTTL:         sessionTTL,
		rotationRevokesAll: rotationRevokesAll,
	}
}

// Register creates a user with the given email, password, name, and role.
// Admin accounts cannot be created through registration.
func (s *AuthService) Register(ctx context.Context, email, password, name string, role userdomain.Role) (*userdomain.Projection, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if role != userdomain.RoleProfessional {
		role = userdomain.RoleClient
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashed,
		Name:         strings.TrimSpace(name),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logEvent(ctx, user.ID, audit.ActionRegister, "")
	s.emit(ctx, telemetry.EventRegister, user.ID, email, "")
	return user.Sanitize(), nil
}

// Authenticate checks the email/password pair against the user store and, on
// success, issues an access and a refresh token and warms the user, session,
// and token cache entries.
//
// The cache is consulted first but never trusted for the password comparison:
// the hash always comes from the live store, so a stale or placeholder hash in
// cache cannot affect the outcome.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	// Cache-aside read for the profile. Hit or miss, the live store lookup
	// below always runs: the password hash can never come from cache.
	_, _ = s.cache.Get(ctx, cache.UserKey(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.logEvent(ctx, "", audit.ActionUserNotFound, email)
		s.emit(ctx, telemetry.EventLoginFailure, "", email, audit.ActionUserNotFound)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		s.logEvent(ctx, user.ID, audit.ActionAccountDisabled, "")
		s.emit(ctx, telemetry.EventLoginFailure, user.ID, email, audit.ActionAccountDisabled)
		return nil, ErrAccountDisabled
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.logEvent(ctx, user.ID, audit.ActionInvalidPassword, "")
		s.emit(ctx, telemetry.EventLoginFailure, user.ID, email, audit.ActionInvalidPassword)
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.userRepo.SetLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	accessToken, _, accessExp, err := s.tokens.IssueAccess(user.ID, email)
	if err != nil {
		return nil, err
	}
	refreshToken, jti, refreshExp, err := s.tokens.IssueRefresh(user.ID, email)
	if err != nil {
		return nil, err
	}
	row := &refreshdomain.RefreshToken{
		ID:        uuid.New().String(),
		TokenHash: security.HashRefreshToken(refreshToken),
		JTI:       jti,
		UserID:    user.ID,
		ExpiresAt: refreshExp,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tokenRepo.Create(ctx, row); err != nil {
		return nil, err
	}

	proj := user.Sanitize()
	s.cacheSet(ctx, cache.UserKey(email), proj, s.userTTL)
	s.cacheSet(ctx, cache.SessionKey(user.ID), &sessionPayload{UserID: user.ID, Email: email, LoggedInAt: now}, s.sessionTTL)
	s.cacheToken(ctx, accessToken, proj, accessExp)

	s.logEvent(ctx, user.ID, audit.ActionLoginSuccess, "")
	s.emit(ctx, telemetry.EventLoginSuccess, user.ID, email, "")

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
		User:         proj,
	}, nil
}

// VerifyAccessToken resolves the raw access token to its user. A cached
// token:<token> entry short-circuits both signature verification and the user
// lookup; any cache error is treated as a miss and the slow path runs.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*userdomain.Projection, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	if raw, err := s.cache.Get(ctx, cache.TokenKey(token)); err == nil {
		var payload tokenPayload
		if err := json.Unmarshal([]byte(raw), &payload); err == nil && payload.User != nil {
			return payload.User, nil
		}
	}

	userID, _, expiresAt, err := s.tokens.ValidateAccess(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	proj := user.Sanitize()
	s.cacheToken(ctx, token, proj, expiresAt)
	return proj, nil
}

// RefreshAccessToken exchanges a refresh token for a fresh access token,
// rotating the refresh token. The three failure states are disjoint: a value
// never issued is invalid, a revoked row is revoked, an expired row is expired.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenInvalid
	}
	tw, err := s.tokenRepo.GetByHashWithUser(ctx, security.HashRefreshToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if tw == nil {
		s.emit(ctx, telemetry.EventRefreshDenied, "", "", "unknown token")
		return nil, ErrRefreshTokenInvalid
	}
	row, user := tw.Token, tw.User
	if row.IsRevoked {
		s.logEvent(ctx, user.ID, audit.ActionRefreshRejected, "revoked")
		s.emit(ctx, telemetry.EventRefreshDenied, user.ID, user.Email, "revoked")
		return nil, ErrRefreshTokenRevoked
	}
	if !row.ExpiresAt.After(time.Now().UTC()) {
		s.logEvent(ctx, user.ID, audit.ActionRefreshRejected, "expired")
		s.emit(ctx, telemetry.EventRefreshDenied, user.ID, user.Email, "expired")
		return nil, ErrRefreshTokenExpired
	}
	if !user.IsActive {
		s.logEvent(ctx, user.ID, audit.ActionRefreshRejected, "account disabled")
		return nil, ErrAccountDisabled
	}

	accessToken, _, accessExp, err := s.tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	newRefresh, jti, refreshExp, err := s.tokens.IssueRefresh(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	next := &refreshdomain.RefreshToken{
		ID:        uuid.New().String(),
		TokenHash: security.HashRefreshToken(newRefresh),
		JTI:       jti,
		UserID:    user.ID,
		ExpiresAt: refreshExp,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.rotationRevokesAll {
		// Single-session policy: every outstanding token goes, then the new
		// one is created. The old token is revoked before the new one exists,
		// so it can never race back into use.
		if err := s.tokenRepo.RevokeAllByUser(ctx, user.ID); err != nil {
			return nil, err
		}
		if err := s.tokenRepo.Create(ctx, next); err != nil {
			return nil, err
		}
	} else {
		if err := s.tokenRepo.Rotate(ctx, row.ID, next); err != nil {
			return nil, err
		}
	}

	proj := user.Sanitize()
	s.cacheToken(ctx, accessToken, proj, accessExp)

	s.logEvent(ctx, user.ID, audit.ActionTokenRefreshed, "")
	s.emit(ctx, telemetry.EventTokenRefreshed, user.ID, user.Email, "")

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    accessExp,
		User:         proj,
	}, nil
}

// Logout revokes the session identified by the refresh token and clears the
// user's cache entries. An unrecognized token is a no-op: logout never fails
// toward the client.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	tw, err := s.tokenRepo.GetByHashWithUser(ctx, security.HashRefreshToken(refreshToken))
	if err != nil {
		return err
	}
	if tw == nil {
		return nil
	}
	if err := s.tokenRepo.Revoke(ctx, tw.Token.ID); err != nil {
		return err
	}
	s.ClearUserCache(ctx, tw.User.ID, tw.User.Email)
	s.logEvent(ctx, tw.User.ID, audit.ActionLogout, "")
	s.emit(ctx, telemetry.EventLogout, tw.User.ID, tw.User.Email, "")
	return nil
}

// ClearUserCache deletes session:<userId>, and user:<email> when email is
// given. Used after logout, profile update, or deactivation so the next
// authenticate or verify call sees live data. Outstanding access tokens are
// not revoked; they expire on their own.
func (s *AuthService) ClearUserCache(ctx context.Context, userID, email string) {
	if err := s.cache.Delete(ctx, cache.SessionKey(userID)); err != nil {
		log.Printf("auth: clear session cache for %s: %v", userID, err)
	}
	if email = normalizeEmail(email); email != "" {
		if err := s.cache.Delete(ctx, cache.UserKey(email)); err != nil {
			log.Printf("auth: clear user cache for %s: %v", email, err)
		}
	}
	// token:<accessToken> entries are keyed by raw token value and cannot be
	// enumerated here; they age out with the token.
}

// cacheSet marshals v and stores it best-effort. Cache failures are logged,
// never surfaced.
func (s *AuthService) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), ttl); err != nil {
		log.Printf("auth: cache set %s: %v", key, err)
	}
}

// cacheToken stores the verified token payload with a TTL capped at the
// token's remaining lifetime.
func (s *AuthService) cacheToken(ctx context.Context, token string, proj *userdomain.Projection, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	s.cacheSet(ctx, cache.TokenKey(token), &tokenPayload{UserID: proj.ID, Email: proj.Email, User: proj}, ttl)
}

func (s *AuthService) logEvent(ctx context.Context, userID, action, details string) {
	if s.auditLog == nil {
		return
	}
	s.auditLog.LogEvent(ctx, userID, action, details)
}

func (s *AuthService) emit(ctx context.Context, eventType, userID, email, details string) {
	telemetry.EmitAsync(s.emitter, ctx, &telemetry.SecurityEvent{
		EventType:  eventType,
		UserID:     userID,
		Email:      email,
		Details:    details,
		OccurredAt: time.Now().UTC(),
	})
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	return nil
}
