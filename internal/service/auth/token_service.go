package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
)

// TokenLifetime is the fixed validity window of a session token.
const TokenLifetime = 24 * time.Hour

// CookieName is the cookie that carries the session token.
const CookieName = "token"

// TokenService issues and verifies session tokens.
type TokenService interface {
	// Issue creates a signed session token for the identity. The token
	// embeds the identity's admin flag as read from the store.
	Issue(ctx context.Context, user *domain.User) (string, error)

	// Verify checks the token's signature, algorithm and expiry and returns
	// its claims. Failures are ErrMalformedToken, ErrSignatureInvalid or
	// ErrExpiredToken.
	Verify(ctx context.Context, token string) (*Claims, error)
}

// Claims is the verified content of a session token.
type Claims struct {
	// SubjectID is the identity the token was issued for.
	SubjectID uuid.UUID
	Email     string
	IsAdmin   bool
	IssuedAt  time.Time
	ExpiresAt time.Time
	// ID is the unique token identifier (jti).
	ID string
}

// Principal converts verified claims into the gate's request principal.
func (c *Claims) Principal() domain.Principal {
	return domain.Principal{SubjectID: c.SubjectID, IsAdmin: c.IsAdmin}
}
