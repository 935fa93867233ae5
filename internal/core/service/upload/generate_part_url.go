package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/google/uuid"
)

// GeneratePartURL returns a pre-signed url for one planned part of a multipart session
func (s *uploadService) GeneratePartURL(ctx context.Context, tenantID string, sessionID uuid.UUID, partNumber int) (*port.PartGrant, error) {
	session, err := s.findSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkAcceptsParts(session, time.Now().UTC()); err != nil {
		return nil, err
	}

	multipart, err := s.uow.MultipartRepo().FindBySessionID(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	spec, err := multipart.Part(partNumber)
	if err != nil {
		return nil, err
	}

	grant, err := s.storage.GeneratePresignedPartURL(ctx, session.StorageKey, multipart.ProviderUploadID, partNumber)
	if err != nil {
		return nil, err
	}
	return &port.PartGrant{Part: spec, Grant: grant}, nil
}

// checkAcceptsParts rejects part operations on single, finished or expired sessions
func checkAcceptsParts(session *domain.UploadSession, now time.Time) error {
	if !session.IsMultipart() {
		return domain.ErrNotMultipart
	}
	if !session.Status.IsActive() {
		return fmt.Errorf("%w: session is %s", domain.ErrInvalidStateTransition, session.Status)
	}
	if session.IsExpiredAt(now) {
		return domain.ErrSessionExpired
	}
	return nil
}
