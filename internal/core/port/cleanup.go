package port

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CleanupService is service that handles session expiry
type CleanupService interface {
	ExpireSessions(ctx context.Context, now time.Time) error
	ExpireSession(ctx context.Context, sessionID uuid.UUID, now time.Time) error
}
