package port

import (
	"context"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
)

// ObjectStorage is an interface to define object storage interactions.
// A missing object is reported as domain.ErrFileNotFoundInStorage.
type ObjectStorage interface {
	GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, checksum *domain.Checksum) (*domain.PresignedGrant, error)
	InitiateMultipartUpload(ctx context.Context, key string, contentType string, metadata map[string]string) (string, error)
	GeneratePresignedPartURL(ctx context.Context, key string, uploadID string, partNumber int) (*domain.PresignedGrant, error)
	CompleteMultipartUpload(ctx context.Context, key string, uploadID string, parts []domain.UploadedPart) (*domain.CompletedObject, error)
	HeadObject(ctx context.Context, key string) (*domain.ObjectMetadata, error)
	AbortMultipartUpload(ctx context.Context, key string, uploadID string) error
}
