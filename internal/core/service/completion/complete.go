package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/google/uuid"
)

// Complete verifies the stored object of a session and completes the session exactly once.
// Every path may call it any number of times: a COMPLETED session returns its stored result.
func (s *completionService) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResult, error) {
	var err error
	for attempt := 1; attempt <= maxCompleteAttempts; attempt++ {
		var result *port.CompletionResult
		result, err = s.complete(ctx, req)
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			return result, err
		}
		s.logger.Warn("completion lost a concurrent update",
			"session_id", req.SessionID,
			"source", req.Source,
			"attempt", attempt)
	}
	return nil, err
}

func (s *completionService) complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResult, error) {
	session, err := s.uow.UploadSessionRepo().FindByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == domain.UploadSessionStatusCompleted {
		return s.completedResult(ctx, session)
	}
	if session.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: session is %s", domain.ErrInvalidStateTransition, session.Status)
	}
	if req.Source == port.CompletionSourceClientConfirm {
		if err := session.CanConfirm(); err != nil {
			return nil, err
		}
	}

	var multipart *domain.MultipartUpload
	if session.IsMultipart() {
		multipart, err = s.uow.MultipartRepo().FindBySessionID(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		if !multipart.CanComplete() {
			return nil, fmt.Errorf("%w: %d of %d parts uploaded", domain.ErrCannotComplete, multipart.UploadedCount(), multipart.TotalParts)
		}
	}

	object, err := s.storage.HeadObject(ctx, session.StorageKey)
	if err != nil {
		return nil, err
	}

	if err := verifyObject(session, req.ETag, object); err != nil {
		s.logger.Warn("stored object failed verification",
			"session_id", session.ID,
			"source", req.Source,
			"error", err)
		return nil, err
	}

	now := time.Now().UTC()
	asset := domain.NewFileAsset(uuid.New(), session, *object, now)

	txErr := s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		if err := uow.FileAssetRepo().Create(ctx, asset); err != nil {
			return err
		}
		if err := session.Complete(asset.ID, now); err != nil {
			return err
		}
		if multipart != nil {
			if err := multipart.Complete(now); err != nil {
				return err
			}
			if err := uow.MultipartRepo().UpdateStatus(ctx, session.ID, multipart.Status); err != nil {
				return err
			}
		}
		return uow.UploadSessionRepo().Update(ctx, session)
	})
	if txErr != nil {
		if errors.Is(txErr, domain.ErrConcurrentUpdate) || errors.Is(txErr, domain.ErrAlreadyExists) {
			return s.resolveRace(ctx, req.SessionID)
		}
		s.compensate(ctx, req.SessionID, txErr)
		return nil, txErr
	}

	s.tracker.Clear(ctx, session.ID)
	s.publish(ctx, domain.UploadEventCompleted, session, now)
	s.logger.Info("upload completed",
		"session_id", session.ID,
		"file_asset_id", asset.ID,
		"source", req.Source)

	return &port.CompletionResult{
		SessionID:   session.ID,
		FileAssetID: asset.ID,
		Status:      session.Status,
		ETag:        asset.ETag,
	}, nil
}

func verifyObject(session *domain.UploadSession, etag string, object *domain.ObjectMetadata) error {
	if etag != "" && domain.NormalizeETag(etag) != domain.NormalizeETag(object.ETag) {
		return fmt.Errorf("%w: etag %s, storage reported %s", domain.ErrChecksumMismatch, etag, object.ETag)
	}
	if object.ContentLength != session.FileSizeBytes {
		return fmt.Errorf("%w: declared %d bytes, stored %d", domain.ErrSizeMismatch, session.FileSizeBytes, object.ContentLength)
	}
	return domain.VerifyChecksum(session.Checksum, *object)
}

// resolveRace returns the winner's result when another path completed the session first
func (s *completionService) resolveRace(ctx context.Context, sessionID uuid.UUID) (*port.CompletionResult, error) {
	session, err := s.uow.UploadSessionRepo().FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch {
	case session.Status == domain.UploadSessionStatusCompleted:
		return s.completedResult(ctx, session)
	case session.Status.IsTerminal():
		return nil, fmt.Errorf("%w: session is %s", domain.ErrInvalidStateTransition, session.Status)
	default:
		return nil, domain.ErrConcurrentUpdate
	}
}

func (s *completionService) completedResult(ctx context.Context, session *domain.UploadSession) (*port.CompletionResult, error) {
	asset, err := s.uow.FileAssetRepo().FindBySessionID(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	return &port.CompletionResult{
		SessionID:        session.ID,
		FileAssetID:      asset.ID,
		Status:           session.Status,
		ETag:             asset.ETag,
		AlreadyCompleted: true,
	}, nil
}

// compensate marks the session FAILED after its completion could not be committed
func (s *completionService) compensate(ctx context.Context, sessionID uuid.UUID, cause error) {
	var failed *domain.UploadSession
	now := time.Now().UTC()

	err := s.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		session, err := uow.UploadSessionRepo().FindByID(ctx, sessionID)
		if err != nil {
			return err
		}
		if !session.Fail(fmt.Sprintf("completion failed: %v", cause), now) {
			return nil
		}
		if err := uow.UploadSessionRepo().Update(ctx, session); err != nil {
			return err
		}
		failed = session
		return nil
	})
	if err != nil {
		s.logger.Error("failed to mark session as failed",
			"session_id", sessionID,
			"cause", cause,
			"error", err)
		return
	}
	if failed == nil {
		return
	}

	s.logger.Error("upload failed after storage verification",
		"session_id", sessionID,
		"error", cause)
	s.tracker.Clear(ctx, sessionID)
	s.publish(ctx, domain.UploadEventFailed, failed, now)
}
