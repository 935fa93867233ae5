package port

import (
	"context"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"

	"github.com/google/uuid"
)

// CompletionSource tells which path triggered a completion
type CompletionSource string

const (
	CompletionSourceClientConfirm     CompletionSource = "client-confirm"
	CompletionSourceMultipartComplete CompletionSource = "multipart-complete"
	CompletionSourceStorageEvent      CompletionSource = "storage-event"
)

// CompletionRequest asks to verify the stored object of a session and complete it
type CompletionRequest struct {
	SessionID uuid.UUID
	ETag      string
	Source    CompletionSource
}

// CompletionResult is the outcome of a completion
type CompletionResult struct {
	SessionID   uuid.UUID
	FileAssetID uuid.UUID
	Status      domain.UploadSessionStatus
	ETag        string
	// AlreadyCompleted is true when another path completed the session first
	AlreadyCompleted bool
}

// CompletionService is the single idempotent completion routine shared by every path
type CompletionService interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}
