// Package mocks provides shared test doubles for the store and auth
// interfaces.
//
// Mocks expose function fields that override the default behavior, so a test
// can inject a single failure without re-implementing the whole interface:
//
//	users := mocks.NewMockUserStore()
//	users.GetByIDFn = func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
//		return nil, fmt.Errorf("%w: connection refused", domain.ErrDependency)
//	}
package mocks
