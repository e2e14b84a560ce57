package repository

import (
	"context"
	"database/sql"
	"errors"

	"servicos-ja/backend/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an activity log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the activity log for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.ActivityLog, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, action, details, ip, created_at
		FROM activity_logs WHERE id = $1`, id)
	a, err := scanActivityLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// ListByUser returns activity logs for the given user, newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.ActivityLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, action, details, ip, created_at
		FROM activity_logs WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ActivityLog
	for rows.Next() {
		a, err := scanActivityLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create persists the activity log. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.ActivityLog) error {
	uid := sql.NullString{String: a.UserID, Valid: a.UserID != ""}
	details := sql.NullString{String: a.Details, Valid: a.Details != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, user_id, action, details, ip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, uid, a.Action, details, a.IP, a.CreatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivityLog(row rowScanner) (*domain.ActivityLog, error) {
	var (
		a       domain.ActivityLog
		uid     sql.NullString
		details sql.NullString
	)
	if err := row.Scan(&a.ID, &uid, &a.Action, &details, &a.IP, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.UserID = uid.String
	a.Details = details.String
	return &a, nil
}
