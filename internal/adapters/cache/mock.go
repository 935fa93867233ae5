package cache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockCache struct {
	mock.Mock
}

func NewMockCache() *MockCache {
	return &MockCache{}
}

func (m *MockCache) SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockCache) AddToSet(ctx context.Context, key string, member string, ttl time.Duration) error {
	args := m.Called(ctx, key, member, ttl)
	return args.Error(0)
}

func (m *MockCache) SetSize(ctx context.Context, key string) (int64, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCache) ExpiredKeys(ctx context.Context) (<-chan string, error) {
	args := m.Called(ctx)
	return args.Get(0).(<-chan string), args.Error(1)
}
