package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/store"
)

// selectUser derives is_admin in the same query that loads the identity so
// that sign-in and session resolution can never disagree about it.
const selectUser = `
	SELECT u.id, u.email, u.username, u.password_hash, u.is_active,
	       u.created_at, u.updated_at,
	       EXISTS (SELECT 1 FROM administrators a WHERE a.user_id = u.id) AS is_admin
	FROM users u
`

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db store.DBTX
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// It accepts a database connection that should be initialized and managed by the caller.
func NewPostgresUserStore(db store.DBTX) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// WithTx implements store.UserStore.WithTx.
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{db: tx}
}

// GetByEmail implements store.UserStore.GetByEmail.
// Emails are compared after lower-casing and trimming.
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+` WHERE u.email = $1`, normalizeEmail(email))
	return s.scanUser(ctx, row, "email")
}

// GetByID implements store.UserStore.GetByID.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, selectUser+` WHERE u.id = $1`, id)
	return s.scanUser(ctx, row, "id")
}

func (s *PostgresUserStore) scanUser(ctx context.Context, row *sql.Row, lookup string) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.IsAdmin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		logger.FromContext(ctx).Error("failed to load user", "lookup", lookup, "error", err)
		return nil, store.NewStoreError("user", "get", "query failed", MapError(err))
	}
	return &u, nil
}

// Create implements store.UserStore.Create.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	user.Email = normalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.IsActive,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrEmailExists
		}
		return store.NewStoreError("user", "create", "insert failed", MapError(err))
	}

	logger.FromContext(ctx).Debug("user created", "user_id", user.ID)
	return nil
}

// Delete implements store.UserStore.Delete.
// Administrator and activity rows are removed by ON DELETE CASCADE.
func (s *PostgresUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return store.NewStoreError("user", "delete", "delete failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// SetAdmin implements store.UserStore.SetAdmin.
func (s *PostgresUserStore) SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return store.NewStoreError("user", "set_admin", "lookup failed", MapError(err))
	}
	if !exists {
		return store.ErrUserNotFound
	}

	if !isAdmin {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM administrators WHERE user_id = $1`, id); err != nil {
			return store.NewStoreError("administrator", "delete", "delete failed", MapError(err))
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO administrators (id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), id, time.Now().UTC(),
	)
	if err != nil {
		return store.NewStoreError("administrator", "create", "insert failed", MapError(err))
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
