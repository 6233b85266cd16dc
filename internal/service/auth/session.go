package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/store"
)

// DefaultStoreTimeout bounds a single credential store lookup.
const DefaultStoreTimeout = 3 * time.Second

// Session is a live, verified session backed by an existing active identity.
type Session struct {
	Identity *domain.User
	// IsAdmin is the store's current value, not the token's claim.
	IsAdmin bool
}

// SessionResolver turns a raw Cookie header into a live session.
type SessionResolver struct {
	users        store.UserStore
	tokens       TokenService
	storeTimeout time.Duration
}

// NewSessionResolver creates a SessionResolver. A non-positive timeout
// uses DefaultStoreTimeout.
func NewSessionResolver(users store.UserStore, tokens TokenService, storeTimeout time.Duration) *SessionResolver {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &SessionResolver{users: users, tokens: tokens, storeTimeout: storeTimeout}
}

// Resolve returns the session carried by rawCookieHeader.
//
// A nil session with a nil error means there is no session: no token, a
// token that fails verification, or a subject that was deleted or
// deactivated. A non-nil error wraps domain.ErrDependency and means the
// store could not answer.
func (r *SessionResolver) Resolve(ctx context.Context, rawCookieHeader string) (*Session, error) {
	log := logger.FromContext(ctx)

	token := TokenFromCookieHeader(rawCookieHeader)
	if token == "" {
		return nil, nil
	}

	claims, err := r.tokens.Verify(ctx, token)
	if err != nil {
		return nil, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	user, err := r.users.GetByID(lookupCtx, claims.SubjectID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("session subject no longer exists", "user_id", claims.SubjectID)
			return nil, nil
		}
		log.Error("failed to resolve session", "user_id", claims.SubjectID, "error", err)
		if errors.Is(err, domain.ErrDependency) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: session lookup failed: %v", domain.ErrDependency, err)
	}

	if !user.IsActive {
		log.Debug("session subject is inactive", "user_id", user.ID)
		return nil, nil
	}

	return &Session{Identity: user, IsAdmin: user.IsAdmin}, nil
}

// TokenFromCookieHeader extracts the session token from a raw Cookie header
// value. Malformed cookie pairs are skipped.
func TokenFromCookieHeader(raw string) string {
	if raw == "" {
		return ""
	}
	req := http.Request{Header: http.Header{"Cookie": {raw}}}
	return TokenFromRequest(&req)
}

// TokenFromRequest returns the session token cookie value, or "" if absent.
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
