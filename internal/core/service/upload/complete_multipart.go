package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/google/uuid"
)

// CompleteMultipart assembles the uploaded parts in storage and completes the session
func (s *uploadService) CompleteMultipart(ctx context.Context, tenantID string, sessionID uuid.UUID) (*port.CompletionResult, error) {
	session, err := s.findSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	req := port.CompletionRequest{SessionID: session.ID, Source: port.CompletionSourceMultipartComplete}
	if session.Status == domain.UploadSessionStatusCompleted {
		return s.completion.Complete(ctx, req)
	}
	if err := checkAcceptsParts(session, time.Now().UTC()); err != nil {
		return nil, err
	}

	multipart, err := s.uow.MultipartRepo().FindBySessionID(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if !multipart.CanComplete() {
		return nil, fmt.Errorf("%w: %d of %d parts uploaded", domain.ErrCannotComplete, multipart.UploadedCount(), multipart.TotalParts)
	}

	completed, err := s.storage.CompleteMultipartUpload(ctx, session.StorageKey, multipart.ProviderUploadID, multipart.UploadedParts())
	switch {
	case err == nil:
		req.ETag = completed.ETag
	case errors.Is(err, domain.ErrMultipartNotFound):
		// a previous attempt already assembled the object; completion heads it
		s.logger.Warn("multipart upload already closed in storage", "session_id", session.ID)
	default:
		return nil, err
	}

	return s.completion.Complete(ctx, req)
}
