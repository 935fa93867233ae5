package eventbroker

import (
	"context"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, event domain.UploadEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
