package mocks

import (
	"context"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/app/user"
	"github.com/stretchr/testify/mock"
)

// MockUserFinder é um mock para o auth.UserFinder
type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserFinder) FindByUUID(ctx context.Context, uuid string) (*user.User, error) {
	args := m.Called(ctx, uuid)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*user.User), args.Error(1)
}
