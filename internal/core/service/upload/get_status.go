package upload

import (
	"context"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/google/uuid"
)

func (s *uploadService) GetStatus(ctx context.Context, tenantID string, sessionID uuid.UUID) (*port.SessionStatus, error) {
	session, err := s.findSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	var multipart *domain.MultipartUpload
	if session.IsMultipart() {
		multipart, err = s.uow.MultipartRepo().FindBySessionID(ctx, session.ID)
		if err != nil {
			return nil, err
		}
	}
	return s.statusOf(ctx, session, multipart), nil
}
