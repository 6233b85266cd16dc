package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/service/auth"
)

// MockTokenService implements auth.TokenService for testing.
type MockTokenService struct {
	IssueFn  func(ctx context.Context, user *domain.User) (string, error)
	VerifyFn func(ctx context.Context, token string) (*auth.Claims, error)

	// Tokens maps accepted token strings to the claims Verify returns.
	// Any other token fails with auth.ErrSignatureInvalid.
	Tokens map[string]*auth.Claims
}

var _ auth.TokenService = (*MockTokenService)(nil)

// NewMockTokenService creates a MockTokenService with no accepted tokens.
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{Tokens: make(map[string]*auth.Claims)}
}

// WithToken registers token as valid for the given principal.
func (m *MockTokenService) WithToken(token string, p domain.Principal) *MockTokenService {
	now := time.Now()
	m.Tokens[token] = &auth.Claims{
		SubjectID: p.SubjectID,
		IsAdmin:   p.IsAdmin,
		IssuedAt:  now,
		ExpiresAt: now.Add(auth.TokenLifetime),
		ID:        token,
	}
	return m
}

// Issue implements auth.TokenService.Issue.
func (m *MockTokenService) Issue(ctx context.Context, user *domain.User) (string, error) {
	if m.IssueFn != nil {
		return m.IssueFn(ctx, user)
	}
	return "mock-token-" + user.ID.String(), nil
}

// Verify implements auth.TokenService.Verify.
func (m *MockTokenService) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, token)
	}
	if c, ok := m.Tokens[token]; ok {
		return c, nil
	}
	return nil, auth.ErrSignatureInvalid
}
