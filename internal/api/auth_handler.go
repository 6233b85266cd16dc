package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/marketplace-api/internal/api/shared"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/metrics"
	"github.com/phrazzld/marketplace-api/internal/platform/logger"
	"github.com/phrazzld/marketplace-api/internal/service/auth"
)

// Response messages of the auth endpoints.
const (
	msgNotJSON            = "Content-Type must be application/json"
	msgMissingCredentials = "Email and password are required"
	msgInvalidCredentials = "Invalid email or password"
	msgLoginError         = "An error occurred during login"
	msgLoginSuccessful    = "Login successful"
	msgSignedOut          = "Successfully signed out"
	msgSessionError       = "Internal server error"
)

// SignInService authenticates credentials and issues a session token.
type SignInService interface {
	SignIn(ctx context.Context, email, password string) (*domain.User, string, error)
}

// SessionService resolves a raw Cookie header into a live session.
type SessionService interface {
	Resolve(ctx context.Context, rawCookieHeader string) (*auth.Session, error)
}

// AuthHandler handles the sign-in, sign-out and session-check endpoints.
type AuthHandler struct {
	signIn       SignInService
	sessions     SessionService
	secureCookie bool
	metrics      *metrics.Manager
}

// NewAuthHandler creates a new AuthHandler. m may be nil.
func NewAuthHandler(signIn SignInService, sessions SessionService, secureCookie bool, m *metrics.Manager) *AuthHandler {
	return &AuthHandler{
		signIn:       signIn,
		sessions:     sessions,
		secureCookie: secureCookie,
		metrics:      m,
	}
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		h.countSignIn(metrics.SignInBadRequest)
		if errors.Is(err, shared.ErrNotJSON) {
			shared.RespondWithMessageAndLog(w, r, http.StatusBadRequest, msgNotJSON, err)
			return
		}
		shared.RespondWithMessageAndLog(w, r, http.StatusBadRequest, msgMissingCredentials, err)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := shared.ValidateRequest(&req); err != nil {
		h.countSignIn(metrics.SignInBadRequest)
		shared.RespondWithMessageAndLog(w, r, http.StatusBadRequest, msgMissingCredentials, err)
		return
	}

	user, token, err := h.signIn.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.countSignIn(metrics.SignInInvalid)
			shared.RespondWithMessageAndLog(w, r, http.StatusUnauthorized, msgInvalidCredentials, err,
				shared.WithElevatedLogLevel())
			return
		}
		h.countSignIn(metrics.SignInError)
		shared.RespondWithMessageAndLog(w, r, http.StatusInternalServerError, msgLoginError, err)
		return
	}

	h.countSignIn(metrics.SignInSuccess)
	http.SetCookie(w, shared.SessionCookie(token, h.secureCookie))
	shared.RespondWithJSON(w, r, http.StatusOK, SignInResponse{
		Message: msgLoginSuccessful,
		User:    newSignInUser(user),
	})
}

// SignOut handles POST /api/auth/signout. It always succeeds.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	shared.ClearSessionCookie(w, h.secureCookie)
	shared.RespondWithMessage(w, r, http.StatusOK, msgSignedOut)
}

// Session handles GET /api/auth/session. Absence of a session is a 200
// with a null user; only a store failure is an error.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Resolve(r.Context(), strings.Join(r.Header.Values("Cookie"), "; "))
	if err != nil {
		logger.FromContext(r.Context()).Error("session check failed", "error", err)
		shared.RespondWithJSON(w, r, http.StatusInternalServerError, SessionResponse{Error: msgSessionError})
		return
	}

	if session == nil {
		shared.RespondWithJSON(w, r, http.StatusOK, SessionResponse{})
		return
	}

	user := *session.Identity
	user.IsAdmin = session.IsAdmin
	shared.RespondWithJSON(w, r, http.StatusOK, SessionResponse{User: &user})
}

func (h *AuthHandler) countSignIn(outcome string) {
	if h.metrics != nil {
		h.metrics.CounterSignIns.WithLabelValues(outcome).Inc()
	}
}
