package port

import (
	"context"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"

	"github.com/google/uuid"
)

// ProgressTracker is a best effort view of completed parts. It never returns errors.
type ProgressTracker interface {
	MarkPartCompleted(ctx context.Context, sessionID uuid.UUID, partNumber int)
	// Progress returns a percent in [0,100]; multipart may be nil
	Progress(ctx context.Context, session *domain.UploadSession, multipart *domain.MultipartUpload) int
	// Track arms the expiry marker of a session
	Track(ctx context.Context, session *domain.UploadSession, now time.Time)
	Clear(ctx context.Context, sessionID uuid.UUID)
}
