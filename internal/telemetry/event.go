package telemetry

import "time"

// Event types emitted by the auth code paths.
const (
	EventLoginSuccess   = "login_success"
	EventLoginFailure   = "login_failure"
	EventRegister       = "register"
	EventTokenRefreshed = "token_refreshed"
	EventRefreshDenied  = "refresh_denied"
	EventLogout         = "logout"
	EventRateLimited    = "rate_limited"
)

// SecurityEvent is a single security-relevant occurrence, serialized as JSON
// on the event stream.
type SecurityEvent struct {
	EventType  string    `json:"eventType"`
	UserID     string    `json:"userId,omitempty"`
	Email      string    `json:"email,omitempty"`
	IP         string    `json:"ip,omitempty"`
	Details    string    `json:"details,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
