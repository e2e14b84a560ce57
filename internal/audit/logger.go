package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"servicos-ja/backend/internal/audit/domain"
	auditrepo "servicos-ja/backend/internal/audit/repository"
)

// Actions recorded by the auth code paths.
const (
	ActionUserNotFound    = "user_not_found"
	ActionInvalidPassword = "invalid_password"
	ActionAccountDisabled = "account_disabled"
	ActionLoginSuccess    = "login_success"
	ActionRegister        = "register"
	ActionTokenRefreshed  = "token_refreshed"
	ActionRefreshRejected = "refresh_rejected"
	ActionLogout          = "logout"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// ActivityLogger writes a single activity event with explicit action. Used by auth code paths.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type ActivityLogger interface {
	LogEvent(ctx context.Context, userID, action, details string)
}

// Logger implements ActivityLogger using the activity log repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an ActivityLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one activity log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, userID, action, details string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	entry := &domain.ActivityLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Details:   details,
		IP:        ip,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s: %v", action, err)
	}
}
