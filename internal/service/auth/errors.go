package auth

import (
	"fmt"

	"github.com/phrazzld/marketplace-api/internal/domain"
)

// Token verification errors. Callers treat all of them as "no valid
// session"; the distinction exists for logs and metrics.
var (
	// ErrMalformedToken indicates the token could not be decoded or is
	// missing a required claim.
	ErrMalformedToken = fmt.Errorf("%w: malformed session token", domain.ErrAuthentication)

	// ErrSignatureInvalid indicates the token signature does not match the
	// secret or the token uses an algorithm other than HS256.
	ErrSignatureInvalid = fmt.Errorf("%w: session token signature invalid", domain.ErrAuthentication)

	// ErrExpiredToken indicates the token's exp claim is in the past.
	ErrExpiredToken = fmt.Errorf("%w: session token has expired", domain.ErrAuthentication)
)

// Sign-in and construction errors.
var (
	// ErrInvalidCredentials is returned for an unknown email, a wrong
	// password or an inactive account. The three are indistinguishable.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", domain.ErrAuthentication)

	// ErrMissingSecret is returned when a token service is constructed
	// without a signing secret.
	ErrMissingSecret = fmt.Errorf("%w: token signing secret is empty", domain.ErrConfiguration)

	// ErrEmptyPassword is returned when asked to hash an empty password.
	ErrEmptyPassword = fmt.Errorf("%w: password cannot be empty", domain.ErrValidation)
)
