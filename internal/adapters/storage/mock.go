package storage

import (
	"context"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

func (m *MockStorage) GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, checksum *domain.Checksum) (*domain.PresignedGrant, error) {
	args := m.Called(ctx, key, contentType, checksum)
	return args.Get(0).(*domain.PresignedGrant), args.Error(1)
}

func (m *MockStorage) InitiateMultipartUpload(ctx context.Context, key string, contentType string, metadata map[string]string) (string, error) {
	args := m.Called(ctx, key, contentType, metadata)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) GeneratePresignedPartURL(ctx context.Context, key string, uploadID string, partNumber int) (*domain.PresignedGrant, error) {
	args := m.Called(ctx, key, uploadID, partNumber)
	return args.Get(0).(*domain.PresignedGrant), args.Error(1)
}

func (m *MockStorage) CompleteMultipartUpload(ctx context.Context, key string, uploadID string, parts []domain.UploadedPart) (*domain.CompletedObject, error) {
	args := m.Called(ctx, key, uploadID, parts)
	return args.Get(0).(*domain.CompletedObject), args.Error(1)
}

func (m *MockStorage) HeadObject(ctx context.Context, key string) (*domain.ObjectMetadata, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(*domain.ObjectMetadata), args.Error(1)
}

func (m *MockStorage) AbortMultipartUpload(ctx context.Context, key string, uploadID string) error {
	args := m.Called(ctx, key, uploadID)
	return args.Error(0)
}
