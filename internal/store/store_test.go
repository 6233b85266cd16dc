package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/marketplace-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestErrorHierarchy(t *testing.T) {
	t.Parallel()

	assert.True(t, store.IsNotFoundError(store.ErrUserNotFound))
	assert.True(t, store.IsNotFoundError(fmt.Errorf("get user: %w", store.ErrUserNotFound)))
	assert.False(t, store.IsNotFoundError(store.ErrEmailExists))

	assert.True(t, store.IsDuplicateError(store.ErrEmailExists))
	assert.False(t, store.IsDuplicateError(store.ErrInvalidEntity))
	assert.False(t, store.IsNotFoundError(nil))
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := store.NewStoreError("user", "get", "query failed", cause)

	assert.Equal(t, "store: get user: query failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := store.NewStoreError("activity", "create", "no rows", nil)
	assert.Equal(t, "store: create activity: no rows", bare.Error())
}
