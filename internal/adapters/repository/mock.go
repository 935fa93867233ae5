package repository

import (
	"context"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUploadSessionRepository struct {
	mock.Mock
}

func NewMockUploadSessionRepository() *MockUploadSessionRepository {
	return &MockUploadSessionRepository{}
}

func (m *MockUploadSessionRepository) Create(ctx context.Context, session *domain.UploadSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockUploadSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.UploadSession), args.Error(1)
}

func (m *MockUploadSessionRepository) FindByIdempotencyKey(ctx context.Context, tenantID string, key string) (*domain.UploadSession, error) {
	args := m.Called(ctx, tenantID, key)
	return args.Get(0).(*domain.UploadSession), args.Error(1)
}

func (m *MockUploadSessionRepository) Update(ctx context.Context, session *domain.UploadSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockUploadSessionRepository) CountActiveByTenant(ctx context.Context, tenantID string) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUploadSessionRepository) FindAllExpired(ctx context.Context, now time.Time, limit int) ([]domain.UploadSession, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]domain.UploadSession), args.Error(1)
}

type MockMultipartUploadRepository struct {
	mock.Mock
}

func NewMockMultipartUploadRepository() *MockMultipartUploadRepository {
	return &MockMultipartUploadRepository{}
}

func (m *MockMultipartUploadRepository) Create(ctx context.Context, multipart *domain.MultipartUpload) error {
	args := m.Called(ctx, multipart)
	return args.Error(0)
}

func (m *MockMultipartUploadRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*domain.MultipartUpload, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(*domain.MultipartUpload), args.Error(1)
}

func (m *MockMultipartUploadRepository) UpsertPart(ctx context.Context, sessionID uuid.UUID, part domain.UploadedPart) error {
	args := m.Called(ctx, sessionID, part)
	return args.Error(0)
}

func (m *MockMultipartUploadRepository) UpdateStatus(ctx context.Context, sessionID uuid.UUID, status domain.MultipartStatus) error {
	args := m.Called(ctx, sessionID, status)
	return args.Error(0)
}

type MockFileAssetRepository struct {
	mock.Mock
}

func NewMockFileAssetRepository() *MockFileAssetRepository {
	return &MockFileAssetRepository{}
}

func (m *MockFileAssetRepository) Create(ctx context.Context, asset domain.FileAsset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *MockFileAssetRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FileAsset, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.FileAsset), args.Error(1)
}

func (m *MockFileAssetRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*domain.FileAsset, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(*domain.FileAsset), args.Error(1)
}

type MockUnitOfWork struct {
	mock.Mock
	uploadSessionRepo *MockUploadSessionRepository
	multipartRepo     *MockMultipartUploadRepository
	fileAssetRepo     *MockFileAssetRepository
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		uploadSessionRepo: &MockUploadSessionRepository{},
		multipartRepo:     &MockMultipartUploadRepository{},
		fileAssetRepo:     &MockFileAssetRepository{},
	}
}

func (m *MockUnitOfWork) UploadSessionRepo() port.UploadSessionRepository {
	return m.uploadSessionRepo
}

func (m *MockUnitOfWork) MultipartRepo() port.MultipartUploadRepository {
	return m.multipartRepo
}

func (m *MockUnitOfWork) FileAssetRepo() port.FileAssetRepository {
	return m.fileAssetRepo
}

func (m *MockUnitOfWork) Execute(ctx context.Context, fn func(uow port.UnitOfWork) error) error {
	args := m.Called(ctx, fn)

	if err := fn(m); err != nil {
		return err
	}

	return args.Error(0)
}

func (m *MockUnitOfWork) GetUploadSessionRepoMock() *MockUploadSessionRepository {
	return m.uploadSessionRepo
}

func (m *MockUnitOfWork) GetMultipartRepoMock() *MockMultipartUploadRepository {
	return m.multipartRepo
}

func (m *MockUnitOfWork) GetFileAssetRepoMock() *MockFileAssetRepository {
	return m.fileAssetRepo
}
