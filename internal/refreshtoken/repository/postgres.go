package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"servicos-ja/backend/internal/refreshtoken/domain"
	userdomain "servicos-ja/backend/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a refresh-token repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByHashWithUser returns the refresh-token row for tokenHash joined with its
// owner, or nil if not found.
func (r *PostgresRepository) GetByHashWithUser(ctx context.Context, tokenHash string) (*TokenWithUser, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT t.id, t.token_hash, t.jti, t.user_id, t.expires_at, t.is_revoked, t.created_at, t.updated_at,
		       u.id, u.email, u.password_hash, u.name, u.role, u.is_active, u.last_login_at, u.created_at, u.updated_at
		FROM refresh_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1`, tokenHash)

	var (
		t         domain.RefreshToken
		u         userdomain.User
		name      sql.NullString
		role      string
		lastLogin sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.TokenHash, &t.JTI, &t.UserID, &t.ExpiresAt, &t.IsRevoked, &t.CreatedAt, &t.UpdatedAt,
		&u.ID, &u.Email, &u.PasswordHash, &name, &role, &u.IsActive, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Name = name.String
	u.Role = userdomain.Role(role)
	if lastLogin.Valid {
		at := lastLogin.Time
		u.LastLoginAt = &at
	}
	return &TokenWithUser{Token: &t, User: &u}, nil
}

// Create persists the refresh-token row. The row must have ID and TokenHash set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	return createToken(ctx, r.db, t)
}

// Revoke marks the row with the given id as revoked.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
	return err
}

// RevokeAllByUser marks every non-revoked row of the user as revoked.
// Used by logout-everywhere and the single-session rotation policy.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE, updated_at = $2 WHERE user_id = $1 AND is_revoked = FALSE`,
		userID, time.Now().UTC())
	return err
}

// Rotate revokes the row oldID and creates next inside one transaction.
// If the old row was already revoked by a concurrent rotation, the transaction
// aborts and the error surfaces to the caller.
func (r *PostgresRepository) Rotate(ctx context.Context, oldID string, next *domain.RefreshToken) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE, updated_at = $2 WHERE id = $1 AND is_revoked = FALSE`,
		oldID, time.Now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("refresh token %s already revoked", oldID)
	}
	if err := createToken(ctx, tx, next); err != nil {
		return err
	}
	return tx.Commit()
}

// execer covers *sql.DB and *sql.Tx for createToken.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func createToken(ctx context.Context, db execer, t *domain.RefreshToken) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, token_hash, jti, user_id, expires_at, is_revoked, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.TokenHash, t.JTI, t.UserID, t.ExpiresAt, t.IsRevoked, t.CreatedAt, t.UpdatedAt)
	return err
}
