package upload

import (
	"context"
	"fmt"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/google/uuid"
)

// ConfirmUpload completes a single upload once the client has stored the object
func (s *uploadService) ConfirmUpload(ctx context.Context, tenantID string, sessionID uuid.UUID, etag string) (*port.CompletionResult, error) {
	session, err := s.findSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsMultipart() && session.Status != domain.UploadSessionStatusCompleted {
		return nil, fmt.Errorf("%w: multipart sessions are completed with complete", domain.ErrInvalidArgument)
	}

	return s.completion.Complete(ctx, port.CompletionRequest{
		SessionID: session.ID,
		ETag:      etag,
		Source:    port.CompletionSourceClientConfirm,
	})
}
