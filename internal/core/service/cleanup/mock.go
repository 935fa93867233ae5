package cleanup

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCleanupService is a mock implementation of CleanupService
type MockCleanupService struct {
	mock.Mock
}

// NewMockCleanupService creates a new MockCleanupService
func NewMockCleanupService() *MockCleanupService {
	return &MockCleanupService{}
}

func (m *MockCleanupService) ExpireSessions(ctx context.Context, now time.Time) error {
	args := m.Called(ctx, now)
	return args.Error(0)
}

func (m *MockCleanupService) ExpireSession(ctx context.Context, sessionID uuid.UUID, now time.Time) error {
	args := m.Called(ctx, sessionID, now)
	return args.Error(0)
}
