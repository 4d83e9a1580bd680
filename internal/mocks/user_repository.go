package mocks

import (
	"context"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/model"
	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/internal/domain/repository"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository é um mock para o repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.UserEntity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserEntity), args.Error(1)
}

func (m *MockUserRepository) FindByUUID(ctx context.Context, uuid string) (*model.UserEntity, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserEntity), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.UserEntity, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserEntity), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter repository.UserFilter) ([]*model.UserEntity, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.UserEntity), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.UserEntity) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.UserEntity) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) ListHotels(ctx context.Context, userID uint) ([]model.HotelSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.HotelSummary), args.Error(1)
}

func (m *MockUserRepository) ListHotelsDetailed(ctx context.Context, userID uint) ([]model.HotelDetail, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.HotelDetail), args.Error(1)
}

func (m *MockUserRepository) ListWorkspaces(ctx context.Context, userID uint) ([]model.WorkspaceSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WorkspaceSummary), args.Error(1)
}

func (m *MockUserRepository) AddMembership(ctx context.Context, membership *model.UserHotel) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockUserRepository) RemoveMembership(ctx context.Context, userID, hotelID uint) error {
	args := m.Called(ctx, userID, hotelID)
	return args.Error(0)
}

func (m *MockUserRepository) ListPermissions(ctx context.Context, userID uint) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserRepository) ListPermissionsDetailed(ctx context.Context, userID uint) ([]model.UserPermission, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserPermission), args.Error(1)
}

func (m *MockUserRepository) ReplacePermissions(ctx context.Context, userID uint, permissions []string) error {
	args := m.Called(ctx, userID, permissions)
	return args.Error(0)
}
