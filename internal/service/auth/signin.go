package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/redact"
	"github.com/phrazzld/marketplace-api/internal/store"
)

// dummyPassword is hashed once at construction. Unknown emails are checked
// against that hash so they cost the same as a wrong password.
const dummyPassword = "marketplace-timing-equalizer"

// Authenticator performs credential sign-in.
type Authenticator struct {
	users        store.UserStore
	activities   store.ActivityStore
	passwords    PasswordVerifier
	tokens       TokenService
	storeTimeout time.Duration
	dummyHash    string
}

// NewAuthenticator creates an Authenticator. activities may be nil, in which
// case sign-ins are not recorded.
func NewAuthenticator(
	users store.UserStore,
	activities store.ActivityStore,
	passwords PasswordVerifier,
	tokens TokenService,
	storeTimeout time.Duration,
) (*Authenticator, error) {
	dummyHash, err := passwords.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy password hash: %w", err)
	}
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}

	return &Authenticator{
		users:        users,
		activities:   activities,
		passwords:    passwords,
		tokens:       tokens,
		storeTimeout: storeTimeout,
		dummyHash:    dummyHash,
	}, nil
}

// SignIn checks the credentials and issues a session token.
//
// Unknown email, wrong password and inactive account all return
// ErrInvalidCredentials. Store and signing failures wrap
// domain.ErrDependency.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (*domain.User, string, error) {
	log := logger.FromContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	lookupCtx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	user, err := a.users.GetByEmail(lookupCtx, email)
	cancel()
	if err != nil {
		if store.IsNotFoundError(err) {
			a.passwords.Verify(password, a.dummyHash)
			log.Debug("sign-in rejected", "reason", "unknown email", "email", redact.Email(email))
			return nil, "", ErrInvalidCredentials
		}
		log.Error("sign-in lookup failed", "error", redact.Error(err))
		return nil, "", wrapDependency("sign-in lookup failed", err)
	}

	if !a.passwords.Verify(password, user.PasswordHash) {
		log.Debug("sign-in rejected", "reason", "wrong password", "user_id", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	if !user.IsActive {
		log.Debug("sign-in rejected", "reason", "inactive account", "user_id", user.ID)
		return nil, "", ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(ctx, user)
	if err != nil {
		return nil, "", wrapDependency("token issuance failed", err)
	}

	a.recordSignIn(ctx, user)

	log.Info("user signed in", "user_id", user.ID, "is_admin", user.IsAdmin)
	return user, token, nil
}

func (a *Authenticator) recordSignIn(ctx context.Context, user *domain.User) {
	if a.activities == nil {
		return
	}

	recordCtx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()

	if err := a.activities.Record(recordCtx, domain.NewActivity(user.ID, domain.ActivitySignIn, "")); err != nil {
		logger.FromContext(ctx).Warn("failed to record sign-in activity",
			"user_id", user.ID,
			"error", redact.Error(err))
	}
}

func wrapDependency(msg string, err error) error {
	if errors.Is(err, domain.ErrDependency) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrDependency, msg, err)
}
