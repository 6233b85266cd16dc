package mocks

import (
	"context"

	"github.com/phrazzld/marketplace-api/internal/domain"
	"github.com/phrazzld/marketplace-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockActivityStore is a mock of store.ActivityStore for use with testify/mock.
type TestifyMockActivityStore struct {
	mock.Mock
}

var _ store.ActivityStore = (*TestifyMockActivityStore)(nil)

// Record is a mock implementation of store.ActivityStore.Record.
func (m *TestifyMockActivityStore) Record(ctx context.Context, activity *domain.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}
