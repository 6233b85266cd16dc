package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
)

// UserStore defines the interface for identity persistence. It is the
// credential store consulted by sign-in and session resolution.
type UserStore interface {
	// GetByEmail retrieves a user by email address, including the password
	// hash and the derived IsAdmin flag.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByID retrieves a user by ID, including the derived IsAdmin flag.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// Create saves a new user. The password must already be hashed.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// Delete removes a user and any administrator record.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// SetAdmin creates or removes the administrator record that IsAdmin is
	// derived from. Granting an existing admin is a no-op.
	// Returns ErrUserNotFound if the user does not exist.
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) error

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}

// ActivityStore records entries in the user activity log.
type ActivityStore interface {
	// Record appends an activity entry.
	// Returns ErrInvalidEntity if the referenced user does not exist.
	Record(ctx context.Context, activity *domain.Activity) error
}
