package completion

import (
	"context"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/stretchr/testify/mock"
)

// MockCompletionService is a mock implementation of CompletionService
type MockCompletionService struct {
	mock.Mock
}

// NewMockCompletionService creates a new MockCompletionService
func NewMockCompletionService() *MockCompletionService {
	return &MockCompletionService{}
}

func (m *MockCompletionService) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(*port.CompletionResult), args.Error(1)
}
