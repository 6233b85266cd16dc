package auth_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/mocks"
	"github.com/phrazzld/marketplace-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func fakeUser(t *testing.T) *domain.User {
	t.Helper()
	user, err := domain.NewUser(gofakeit.Email(), gofakeit.Username(), "hashed:"+gofakeit.Password(true, true, true, false, false, 12))
	require.NoError(t, err)
	return user
}

func issue(t *testing.T, tokens auth.TokenService, user *domain.User) string {
	t.Helper()
	token, err := tokens.Issue(context.Background(), user)
	require.NoError(t, err)
	return token
}

func TestSessionResolver_Resolve(t *testing.T) {
	t.Parallel()

	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)
	otherTokens, err := auth.NewTokenService("another-secret-that-is-long-enough-too")
	require.NoError(t, err)

	live := fakeUser(t)
	admin := fakeUser(t)
	admin.IsAdmin = true
	inactive := fakeUser(t)
	inactive.IsActive = false
	deleted := fakeUser(t)

	users := mocks.NewMockUserStore(live, admin, inactive)
	resolver := auth.NewSessionResolver(users, tokens, time.Second)

	tests := []struct {
		name        string
		cookie      string
		wantSession bool
		wantUser    *domain.User
		wantAdmin   bool
	}{
		{"no cookie header", "", false, nil, false},
		{"other cookies only", "theme=dark; lang=en", false, nil, false},
		{"empty token", "token=", false, nil, false},
		{"garbage token", "token=garbage", false, nil, false},
		{"token signed with another secret", "token=" + issue(t, otherTokens, live), false, nil, false},
		{"live user", "token=" + issue(t, tokens, live), true, live, false},
		{"live user among other cookies", "theme=dark; token=" + issue(t, tokens, live) + "; lang=en", true, live, false},
		{"admin user", "token=" + issue(t, tokens, admin), true, admin, true},
		{"deleted user", "token=" + issue(t, tokens, deleted), false, nil, false},
		{"inactive user", "token=" + issue(t, tokens, inactive), false, nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			session, err := resolver.Resolve(context.Background(), tc.cookie)
			require.NoError(t, err)
			if !tc.wantSession {
				assert.Nil(t, session)
				return
			}
			require.NotNil(t, session)
			assert.Equal(t, tc.wantUser.ID, session.Identity.ID)
			assert.Equal(t, tc.wantAdmin, session.IsAdmin)
		})
	}
}

func TestSessionResolver_AdminFlagComesFromStore(t *testing.T) {
	t.Parallel()

	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)

	user := fakeUser(t)
	user.IsAdmin = true
	users := mocks.NewMockUserStore(user)
	resolver := auth.NewSessionResolver(users, tokens, time.Second)
	cookie := "token=" + issue(t, tokens, user)

	require.NoError(t, users.SetAdmin(context.Background(), user.ID, false))

	session, err := resolver.Resolve(context.Background(), cookie)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.False(t, session.IsAdmin)
}

func TestSessionResolver_StoreFailure(t *testing.T) {
	t.Parallel()

	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)
	user := fakeUser(t)

	tests := []struct {
		name   string
		lookup func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	}{
		{
			name: "dependency error",
			lookup: func(context.Context, uuid.UUID) (*domain.User, error) {
				return nil, fmt.Errorf("%w: connection refused", domain.ErrDependency)
			},
		},
		{
			name: "unclassified error",
			lookup: func(context.Context, uuid.UUID) (*domain.User, error) {
				return nil, errors.New("boom")
			},
		},
		{
			name: "timeout",
			lookup: func(ctx context.Context, _ uuid.UUID) (*domain.User, error) {
				<-ctx.Done()
				return nil, fmt.Errorf("%w: %v", domain.ErrDependency, ctx.Err())
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users := mocks.NewMockUserStore(user)
			users.GetByIDFn = tc.lookup
			resolver := auth.NewSessionResolver(users, tokens, 20*time.Millisecond)

			session, err := resolver.Resolve(context.Background(), "token="+issue(t, tokens, user))
			assert.Nil(t, session)
			assert.ErrorIs(t, err, domain.ErrDependency)
			assert.Equal(t, 1, users.Calls(), "resolver must not retry")
		})
	}
}

func TestSessionResolver_NoStoreCallWithoutValidToken(t *testing.T) {
	t.Parallel()

	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)
	users := mocks.NewMockUserStore()
	resolver := auth.NewSessionResolver(users, tokens, 0)

	for _, cookie := range []string{"", "token=", "token=abc"} {
		session, err := resolver.Resolve(context.Background(), cookie)
		assert.NoError(t, err)
		assert.Nil(t, session)
	}
	assert.Zero(t, users.Calls())
}

func TestTokenFromCookieHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"token=abc", "abc"},
		{"a=1; token=abc.def.ghi; b=2", "abc.def.ghi"},
		{"tokens=abc", ""},
		{"a=1;;; token=xyz", "xyz"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, auth.TokenFromCookieHeader(tc.raw), tc.raw)
	}
}
