package repository

import (
	"context"

	"servicos-ja/backend/internal/refreshtoken/domain"
	userdomain "servicos-ja/backend/internal/user/domain"
)

// TokenWithUser is a refresh-token row joined with its owning user.
type TokenWithUser struct {
	Token *domain.RefreshToken
	User  *userdomain.User
}

// Repository defines persistence for refresh tokens. Lookups are by the
// SHA-256 hash of the presented token value; Get methods return (nil, nil)
// when no row matches.
type Repository interface {
	GetByHashWithUser(ctx context.Context, tokenHash string) (*TokenWithUser, error)
	Create(ctx context.Context, t *domain.RefreshToken) error
	Revoke(ctx context.Context, id string) error
	RevokeAllByUser(ctx context.Context, userID string) error
	// Rotate revokes the old row and creates the new one as a single atomic
	// unit, so a consumed token can never race back into use.
	Rotate(ctx context.Context, oldID string, next *domain.RefreshToken) error
}
