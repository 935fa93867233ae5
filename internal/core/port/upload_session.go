package port

import (
	"context"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"

	"github.com/google/uuid"
)

// UploadSessionRepository is an interface to interact with upload session repositories
type UploadSessionRepository interface {
	// Create inserts a session. A duplicated idempotency key returns domain.ErrAlreadyExists.
	Create(ctx context.Context, session *domain.UploadSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error)
	FindByIdempotencyKey(ctx context.Context, tenantID string, key string) (*domain.UploadSession, error)
	// Update persists session if its version is unchanged and bumps the version.
	// A lost race returns domain.ErrConcurrentUpdate.
	Update(ctx context.Context, session *domain.UploadSession) error
	CountActiveByTenant(ctx context.Context, tenantID string) (int64, error)
	FindAllExpired(ctx context.Context, now time.Time, limit int) ([]domain.UploadSession, error)
}

// MultipartUploadRepository is an interface to interact with multipart upload repositories
type MultipartUploadRepository interface {
	Create(ctx context.Context, multipart *domain.MultipartUpload) error
	// FindBySessionID loads the multipart upload with its uploaded parts
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*domain.MultipartUpload, error)
	// UpsertPart records a part, overwriting a previous upload of the same part number
	UpsertPart(ctx context.Context, sessionID uuid.UUID, part domain.UploadedPart) error
	UpdateStatus(ctx context.Context, sessionID uuid.UUID, status domain.MultipartStatus) error
}

// FileAssetRepository is an interface to define file record interactions
type FileAssetRepository interface {
	// Create inserts the file record of a session. A second record for the same session returns domain.ErrAlreadyExists.
	Create(ctx context.Context, asset domain.FileAsset) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.FileAsset, error)
	FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*domain.FileAsset, error)
}
