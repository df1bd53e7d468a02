package auth

import (
	"context"

	"github.com/houseplants-app/plants-api/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockProvider implements interfaces.IdentityProvider for testing.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Authenticate(ctx context.Context, token string) (interfaces.Principal, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(interfaces.Principal), args.Error(1)
}

func (m *MockProvider) LookupUser(ctx context.Context, uid string) (*interfaces.UserProfile, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.UserProfile), args.Error(1)
}
