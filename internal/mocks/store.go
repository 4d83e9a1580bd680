package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockStore é um mock para o cache de melhor esforço consumido pelo agregado User
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, key string, dest interface{}) bool {
	args := m.Called(ctx, key, dest)
	return args.Bool(0)
}

func (m *MockStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	m.Called(ctx, key, value, ttl)
}

func (m *MockStore) Delete(ctx context.Context, key string) {
	m.Called(ctx, key)
}

func (m *MockStore) DeleteByPattern(ctx context.Context, pattern string) {
	m.Called(ctx, pattern)
}
