package upload

import (
	"context"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/google/uuid"
)

// CancelSession cancels a PENDING session. Cancelling a finished session changes nothing.
func (s *uploadService) CancelSession(ctx context.Context, tenantID string, sessionID uuid.UUID) (*domain.UploadSession, error) {
	session, err := s.findSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	changed, err := session.Cancel(now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return session, nil
	}

	var multipart *domain.MultipartUpload
	if session.IsMultipart() {
		multipart, err = s.uow.MultipartRepo().FindBySessionID(ctx, session.ID)
		if err != nil {
			return nil, err
		}
	}

	txErr := s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		return uow.UploadSessionRepo().Update(ctx, session)
	})
	if txErr != nil {
		return nil, txErr
	}

	if multipart != nil {
		s.abortMultipart(ctx, session, multipart.ProviderUploadID)
	}
	s.tracker.Clear(ctx, session.ID)
	s.publish(ctx, domain.UploadEventCancelled, session, now)
	s.logger.Info("upload session cancelled", "session_id", session.ID)

	return session, nil
}
