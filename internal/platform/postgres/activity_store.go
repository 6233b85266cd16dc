package postgres

import (
	"context"
	"fmt"

	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/store"
)

// PostgresActivityStore implements store.ActivityStore.
type PostgresActivityStore struct {
	db store.DBTX
}

// NewPostgresActivityStore creates a new PostgresActivityStore.
func NewPostgresActivityStore(db store.DBTX) *PostgresActivityStore {
	return &PostgresActivityStore{db: db}
}

var _ store.ActivityStore = (*PostgresActivityStore)(nil)

// Record implements store.ActivityStore.Record.
func (s *PostgresActivityStore) Record(ctx context.Context, activity *domain.Activity) error {
	if activity.Type == "" {
		return fmt.Errorf("%w: activity type is required", store.ErrInvalidEntity)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_activity (id, user_id, activity_type, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		activity.ID, activity.UserID, activity.Type, activity.Details, activity.CreatedAt,
	)
	if err != nil {
		return store.NewStoreError("activity", "create", "insert failed", MapError(err))
	}
	return nil
}
