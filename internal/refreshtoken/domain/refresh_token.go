package domain

import "time"

// RefreshToken is a persisted, revocable credential bound to one user. The raw
// token value is never stored; TokenHash is its SHA-256 hex digest.
//
// A token is usable only while IsRevoked is false and ExpiresAt is in the
// future. Rotation revokes the consumed row and creates a fresh one in the
// same transaction.
type RefreshToken struct {
	ID        string
	TokenHash string
	JTI       string // jti claim of the signed token; rotation binding
	UserID    string
	ExpiresAt time.Time
	IsRevoked bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable reports whether the token can still mint access tokens at the given instant.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t != nil && !t.IsRevoked && t.ExpiresAt.After(now)
}
