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

// CreateSession opens an upload session and returns what the client needs to send the file.
// A known idempotency key returns the session it created, with fresh grants.
func (s *uploadService) CreateSession(ctx context.Context, cmd port.CreateSessionCommand) (*port.SessionGrant, error) {
	contentType, err := s.validateCommand(cmd)
	if err != nil {
		return nil, err
	}
	cmd.ContentType = contentType
	now := time.Now().UTC()

	if cmd.IdempotencyKey != "" {
		existing, err := s.uow.UploadSessionRepo().FindByIdempotencyKey(ctx, cmd.TenantID, cmd.IdempotencyKey)
		switch {
		case err == nil:
			return s.reissue(ctx, existing, now)
		case !errors.Is(err, domain.ErrSessionNotFound):
			return nil, err
		}
	}

	if err := s.limiter.CheckAndAdmit(ctx, cmd.TenantID); err != nil {
		return nil, err
	}

	sessionID := uuid.New()
	key := storageKey(cmd.TenantID, sessionID)
	uploadType := s.uploadTypeFor(cmd.FileSizeBytes)

	session := domain.NewUploadSession(sessionID, cmd.TenantID, cmd.UploaderID, cmd.FileName, cmd.FileSizeBytes,
		cmd.ContentType, cmd.Checksum, key, uploadType, now.Add(s.cfg.SessionTTL), now)
	session.IdempotencyKey = cmd.IdempotencyKey

	var multipart *domain.MultipartUpload
	if session.IsMultipart() {
		plan, err := domain.PlanParts(cmd.FileSizeBytes)
		if err != nil {
			return nil, err
		}

		providerUploadID, err := s.storage.InitiateMultipartUpload(ctx, key, cmd.ContentType, domain.ObjectUserMetadata(sessionID, cmd.TenantID, cmd.Checksum))
		if err != nil {
			return nil, err
		}
		multipart = domain.NewMultipartUpload(sessionID, providerUploadID, plan, now)
	}

	txErr := s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		if err := uow.UploadSessionRepo().Create(ctx, session); err != nil {
			return err
		}
		if multipart != nil {
			return uow.MultipartRepo().Create(ctx, multipart)
		}
		return nil
	})
	if txErr != nil {
		if multipart != nil {
			s.abortMultipart(ctx, session, multipart.ProviderUploadID)
		}
		if errors.Is(txErr, domain.ErrAlreadyExists) && cmd.IdempotencyKey != "" {
			winner, err := s.uow.UploadSessionRepo().FindByIdempotencyKey(ctx, cmd.TenantID, cmd.IdempotencyKey)
			if err != nil {
				return nil, err
			}
			return s.reissue(ctx, winner, now)
		}
		return nil, fmt.Errorf("could not create upload session: %w", txErr)
	}

	s.tracker.Track(ctx, session, now)
	s.logger.Info("upload session created",
		"session_id", session.ID,
		"tenant_id", session.TenantID,
		"upload_type", session.UploadType,
		"size_bytes", session.FileSizeBytes)

	return s.grant(ctx, session, multipart, false)
}

// reissue returns an existing session with fresh grants if it still accepts uploads
func (s *uploadService) reissue(ctx context.Context, session *domain.UploadSession, now time.Time) (*port.SessionGrant, error) {
	if !session.Status.IsActive() || session.IsExpiredAt(now) {
		return nil, fmt.Errorf("%w: session %s is %s", domain.ErrIdempotencyKeyReused, session.ID, session.Status)
	}

	var multipart *domain.MultipartUpload
	if session.IsMultipart() {
		var err error
		multipart, err = s.uow.MultipartRepo().FindBySessionID(ctx, session.ID)
		if err != nil {
			return nil, err
		}
	}
	return s.grant(ctx, session, multipart, true)
}

func (s *uploadService) grant(ctx context.Context, session *domain.UploadSession, multipart *domain.MultipartUpload, reused bool) (*port.SessionGrant, error) {
	grant := &port.SessionGrant{Session: session, Reused: reused}

	if multipart != nil {
		grant.Parts = multipart.PartPlan
		return grant, nil
	}

	url, err := s.storage.GeneratePresignedUploadURL(ctx, session.StorageKey, session.ContentType, session.Checksum)
	if err != nil {
		return nil, err
	}
	grant.UploadURL = url
	return grant, nil
}
