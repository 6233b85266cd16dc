package api

import (
	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
)

// SignInRequest defines the payload for the sign-in endpoint.
type SignInRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignInUser is the identity summary returned on successful sign-in.
type SignInUser struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"isAdmin"`
}

// SignInResponse defines the successful response for the sign-in endpoint.
type SignInResponse struct {
	Message string     `json:"message"`
	User    SignInUser `json:"user"`
}

// SessionResponse is the body of the session-check endpoint. User is null
// when there is no live session.
type SessionResponse struct {
	User  *domain.User `json:"user"`
	Error string       `json:"error,omitempty"`
}

// UserResponse wraps the caller's identity.
type UserResponse struct {
	User *domain.User `json:"user"`
}

func newSignInUser(u *domain.User) SignInUser {
	return SignInUser{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
	}
}
