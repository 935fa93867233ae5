package ratelimit

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRateLimiter is a mock implementation of RateLimiter
type MockRateLimiter struct {
	mock.Mock
}

// NewMockRateLimiter creates a new MockRateLimiter
func NewMockRateLimiter() *MockRateLimiter {
	return &MockRateLimiter{}
}

func (m *MockRateLimiter) CheckAndAdmit(ctx context.Context, tenantID string) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}
