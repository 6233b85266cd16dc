package auth_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptVerifier(t *testing.T) {
	t.Parallel()

	v := auth.NewBcryptVerifier(bcrypt.MinCost)
	password := gofakeit.Password(true, true, true, true, false, 16)

	hash, err := v.Hash(password)
	require.NoError(t, err)
	assert.NotEqual(t, password, hash)

	assert.True(t, v.Verify(password, hash))
	assert.False(t, v.Verify(password+"x", hash))
	assert.False(t, v.Verify("", hash))

	again, err := v.Hash(password)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes should be salted")
	assert.True(t, v.Verify(password, again))
}

func TestBcryptVerifier_EmptyPassword(t *testing.T) {
	t.Parallel()

	_, err := auth.NewBcryptVerifier(bcrypt.MinCost).Hash("")
	assert.ErrorIs(t, err, auth.ErrEmptyPassword)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBcryptVerifier_MalformedHash(t *testing.T) {
	t.Parallel()

	v := auth.NewBcryptVerifier(bcrypt.MinCost)
	for _, hash := range []string{"", "plaintext", "$2a$10$short", "$9z$10$abcdefghijklmnopqrstuv"} {
		assert.NotPanics(t, func() {
			assert.False(t, v.Verify("admin123", hash))
		})
	}
}

func TestBcryptVerifier_KnownHash(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), 10)
	require.NoError(t, err)

	v := auth.NewBcryptVerifier(0)
	assert.True(t, v.Verify("admin123", string(hash)))
	assert.False(t, v.Verify("Admin123", string(hash)))
}
