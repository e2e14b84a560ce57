package repository

import (
	"context"

	"servicos-ja/backend/internal/audit/domain"
)

// Repository defines persistence for activity logs.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.ActivityLog, error)
	ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.ActivityLog, error)
	Create(ctx context.Context, a *domain.ActivityLog) error
}
