package progress

import (
	"context"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTracker is a mock implementation of ProgressTracker
type MockTracker struct {
	mock.Mock
}

// NewMockTracker creates a new MockTracker
func NewMockTracker() *MockTracker {
	return &MockTracker{}
}

func (m *MockTracker) MarkPartCompleted(ctx context.Context, sessionID uuid.UUID, partNumber int) {
	m.Called(ctx, sessionID, partNumber)
}

func (m *MockTracker) Progress(ctx context.Context, session *domain.UploadSession, multipart *domain.MultipartUpload) int {
	args := m.Called(ctx, session, multipart)
	return args.Int(0)
}

func (m *MockTracker) Track(ctx context.Context, session *domain.UploadSession, now time.Time) {
	m.Called(ctx, session, now)
}

func (m *MockTracker) Clear(ctx context.Context, sessionID uuid.UUID) {
	m.Called(ctx, sessionID)
}
