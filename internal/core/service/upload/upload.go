package upload

import (
	"context"
	"log/slog"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/config"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// maxMarkAttempts bounds the retries of a part mark that lost an optimistic update
const maxMarkAttempts = 3

type uploadService struct {
	uow        port.UnitOfWork
	storage    port.ObjectStorage
	limiter    port.RateLimiter
	tracker    port.ProgressTracker
	completion port.CompletionService
	publisher  port.EventPublisher
	cfg        config.UploadConfig
	logger     *slog.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(
	uow port.UnitOfWork,
	storage port.ObjectStorage,
	limiter port.RateLimiter,
	tracker port.ProgressTracker,
	completion port.CompletionService,
	publisher port.EventPublisher,
	cfg config.UploadConfig,
	logger *slog.Logger,
) port.UploadService {
	return &uploadService{
		uow:        uow,
		storage:    storage,
		limiter:    limiter,
		tracker:    tracker,
		completion: completion,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
	}
}

// findSession loads a session of tenantID. Sessions of other tenants are reported as not found.
func (s *uploadService) findSession(ctx context.Context, tenantID string, sessionID uuid.UUID) (*domain.UploadSession, error) {
	session, err := s.uow.UploadSessionRepo().FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.TenantID != tenantID {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *uploadService) statusOf(ctx context.Context, session *domain.UploadSession, multipart *domain.MultipartUpload) *port.SessionStatus {
	status := &port.SessionStatus{
		Session:  session,
		Progress: s.tracker.Progress(ctx, session, multipart),
	}
	if multipart != nil {
		status.TotalParts = multipart.TotalParts
		status.UploadedParts = multipart.UploadedCount()
		status.UploadedPartNumbers = lo.Map(multipart.UploadedParts(), func(p domain.UploadedPart, _ int) int {
			return p.PartNumber
		})
	}
	return status
}

func (s *uploadService) abortMultipart(ctx context.Context, session *domain.UploadSession, providerUploadID string) {
	if err := s.storage.AbortMultipartUpload(ctx, session.StorageKey, providerUploadID); err != nil {
		s.logger.Warn("failed to abort multipart upload",
			"session_id", session.ID,
			"upload_id", providerUploadID,
			"error", err)
	}
}

func (s *uploadService) publish(ctx context.Context, eventType domain.UploadEventType, session *domain.UploadSession, now time.Time) {
	if err := s.publisher.Publish(ctx, domain.NewUploadEvent(eventType, session, now)); err != nil {
		s.logger.Warn("failed to publish upload event",
			"type", eventType,
			"session_id", session.ID,
			"error", err)
	}
}
