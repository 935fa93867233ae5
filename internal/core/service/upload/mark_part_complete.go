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

// MarkPartComplete records a part the client stored. Duplicated and out of order marks are accepted.
func (s *uploadService) MarkPartComplete(ctx context.Context, tenantID string, sessionID uuid.UUID, part domain.UploadedPart) (*port.SessionStatus, error) {
	var err error
	for attempt := 1; attempt <= maxMarkAttempts; attempt++ {
		var status *port.SessionStatus
		status, err = s.markPart(ctx, tenantID, sessionID, part)
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			return status, err
		}
		s.logger.Warn("part mark lost a concurrent update",
			"session_id", sessionID,
			"part_number", part.PartNumber,
			"attempt", attempt)
	}
	return nil, err
}

func (s *uploadService) markPart(ctx context.Context, tenantID string, sessionID uuid.UUID, part domain.UploadedPart) (*port.SessionStatus, error) {
	session, err := s.findSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == domain.UploadSessionStatusCompleted && session.IsMultipart() {
		multipart, err := s.uow.MultipartRepo().FindBySessionID(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		return s.statusOf(ctx, session, multipart), nil
	}

	now := time.Now().UTC()
	if err := checkAcceptsParts(session, now); err != nil {
		return nil, err
	}

	multipart, err := s.uow.MultipartRepo().FindBySessionID(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	spec, err := multipart.Part(part.PartNumber)
	if err != nil {
		return nil, err
	}
	switch {
	case part.SizeBytes <= 0:
		part.SizeBytes = spec.SizeBytes
	case part.SizeBytes != spec.SizeBytes:
		return nil, fmt.Errorf("%w: part %d is %d bytes, planned %d", domain.ErrPartSizeMismatch, part.PartNumber, part.SizeBytes, spec.SizeBytes)
	}
	part.ETag = domain.NormalizeETag(part.ETag)

	txErr := s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		if err := uow.MultipartRepo().UpsertPart(ctx, session.ID, part); err != nil {
			return err
		}
		if session.Status != domain.UploadSessionStatusPending {
			return nil
		}
		if err := session.StartUploading(now); err != nil {
			return err
		}
		return uow.UploadSessionRepo().Update(ctx, session)
	})
	if txErr != nil {
		return nil, txErr
	}

	multipart.AddPart(part)
	s.tracker.MarkPartCompleted(ctx, session.ID, part.PartNumber)

	return s.statusOf(ctx, session, multipart), nil
}
