package domain

import "errors"

// Error categories shared across the application. Package-level errors wrap
// one of these so that transport layers can map any failure onto a response
// without knowing where it originated.
var (
	// ErrValidation is returned when request data is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrAuthentication is returned when credentials or a session token
	// cannot be accepted.
	ErrAuthentication = errors.New("authentication failed")

	// ErrAuthorization is returned when the caller is authenticated but lacks
	// the privilege required for an operation.
	ErrAuthorization = errors.New("insufficient privileges")

	// ErrDependency is returned when a backing system (database, cache) is
	// unavailable or fails unexpectedly.
	ErrDependency = errors.New("dependency unavailable")

	// ErrConfiguration is returned when the process is started with missing
	// or invalid configuration. It is never produced while serving requests.
	ErrConfiguration = errors.New("invalid configuration")
)

// Identity validation errors.
var (
	ErrEmptyUserID       = errors.New("user ID cannot be empty")
	ErrEmptyEmail        = errors.New("email cannot be empty")
	ErrInvalidEmail      = errors.New("invalid email format")
	ErrEmptyUsername     = errors.New("username cannot be empty")
	ErrEmptyPasswordHash = errors.New("password hash cannot be empty")
)
