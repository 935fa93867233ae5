package port

import (
	"context"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"

	"github.com/google/uuid"
)

// CreateSessionCommand holds what a client declares about the file it is about to upload
type CreateSessionCommand struct {
	TenantID       string
	UploaderID     string
	FileName       string
	FileSizeBytes  int64
	ContentType    string
	Checksum       *domain.Checksum
	IdempotencyKey string
}

// SessionGrant is a created (or re-issued) session with what the client needs to upload.
// Single uploads get UploadURL, multipart uploads get Parts.
type SessionGrant struct {
	Session   *domain.UploadSession
	UploadURL *domain.PresignedGrant
	Parts     []domain.PartSpec
	Reused    bool
}

// PartGrant is a pre-signed url for one part
type PartGrant struct {
	Part  domain.PartSpec
	Grant *domain.PresignedGrant
}

// SessionStatus is the status view of a session
type SessionStatus struct {
	Session             *domain.UploadSession
	TotalParts          int
	UploadedParts       int
	// UploadedPartNumbers is sorted ascending
	UploadedPartNumbers []int
	Progress            int
}

// UploadService is an interface to define the inbound upload operations.
// Every operation is scoped to tenantID; sessions of other tenants are not found.
type UploadService interface {
	CreateSession(ctx context.Context, cmd CreateSessionCommand) (*SessionGrant, error)
	GeneratePartURL(ctx context.Context, tenantID string, sessionID uuid.UUID, partNumber int) (*PartGrant, error)
	MarkPartComplete(ctx context.Context, tenantID string, sessionID uuid.UUID, part domain.UploadedPart) (*SessionStatus, error)
	CompleteMultipart(ctx context.Context, tenantID string, sessionID uuid.UUID) (*CompletionResult, error)
	ConfirmUpload(ctx context.Context, tenantID string, sessionID uuid.UUID, etag string) (*CompletionResult, error)
	CancelSession(ctx context.Context, tenantID string, sessionID uuid.UUID) (*domain.UploadSession, error)
	GetStatus(ctx context.Context, tenantID string, sessionID uuid.UUID) (*SessionStatus, error)
}
