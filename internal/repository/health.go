package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evijayan2/smsmonitor/internal/apperrors"
)

type HealthRepository struct {
	db *pgxpool.Pool
}

func NewHealthRepository(db *pgxpool.Pool) *HealthRepository {
	return &HealthRepository{
		db: db,
	}
}

func (r *HealthRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabaseUnavailable, err)
	}

	return nil
}

// CountUnread backs the health payload so operators can see the backlog at a glance.
func (r *HealthRepository) CountUnread(ctx context.Context, ext RepoExtension) (int64, error) {
	if ext == nil {
		ext = r.db
	}

	const query = `
		SELECT COUNT(*) FROM sms.messages WHERE is_read = false;
	`

	var count int64
	if err := ext.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
