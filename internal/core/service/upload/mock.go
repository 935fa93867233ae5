package upload

import (
	"context"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUploadService is a mock implementation of UploadService
type MockUploadService struct {
	mock.Mock
}

// NewMockUploadService creates a new MockUploadService
func NewMockUploadService() *MockUploadService {
	return &MockUploadService{}
}

func (m *MockUploadService) CreateSession(ctx context.Context, cmd port.CreateSessionCommand) (*port.SessionGrant, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(*port.SessionGrant), args.Error(1)
}

func (m *MockUploadService) GeneratePartURL(ctx context.Context, tenantID string, sessionID uuid.UUID, partNumber int) (*port.PartGrant, error) {
	args := m.Called(ctx, tenantID, sessionID, partNumber)
	return args.Get(0).(*port.PartGrant), args.Error(1)
}

func (m *MockUploadService) MarkPartComplete(ctx context.Context, tenantID string, sessionID uuid.UUID, part domain.UploadedPart) (*port.SessionStatus, error) {
	args := m.Called(ctx, tenantID, sessionID, part)
	return args.Get(0).(*port.SessionStatus), args.Error(1)
}

func (m *MockUploadService) CompleteMultipart(ctx context.Context, tenantID string, sessionID uuid.UUID) (*port.CompletionResult, error) {
	args := m.Called(ctx, tenantID, sessionID)
	return args.Get(0).(*port.CompletionResult), args.Error(1)
}

func (m *MockUploadService) ConfirmUpload(ctx context.Context, tenantID string, sessionID uuid.UUID, etag string) (*port.CompletionResult, error) {
	args := m.Called(ctx, tenantID, sessionID, etag)
	return args.Get(0).(*port.CompletionResult), args.Error(1)
}

func (m *MockUploadService) CancelSession(ctx context.Context, tenantID string, sessionID uuid.UUID) (*domain.UploadSession, error) {
	args := m.Called(ctx, tenantID, sessionID)
	return args.Get(0).(*domain.UploadSession), args.Error(1)
}

func (m *MockUploadService) GetStatus(ctx context.Context, tenantID string, sessionID uuid.UUID) (*port.SessionStatus, error) {
	args := m.Called(ctx, tenantID, sessionID)
	return args.Get(0).(*port.SessionStatus), args.Error(1)
}
