package completion

import (
	"context"
	"log/slog"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"
)

// maxCompleteAttempts bounds the retries after losing an optimistic update
const maxCompleteAttempts = 3

type completionService struct {
	uow       port.UnitOfWork
	storage   port.ObjectStorage
	tracker   port.ProgressTracker
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewCompletionService creates the completion routine shared by the client and storage event paths
func NewCompletionService(uow port.UnitOfWork, storage port.ObjectStorage, tracker port.ProgressTracker, publisher port.EventPublisher, logger *slog.Logger) port.CompletionService {
	return &completionService{
		uow:       uow,
		storage:   storage,
		tracker:   tracker,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *completionService) publish(ctx context.Context, eventType domain.UploadEventType, session *domain.UploadSession, now time.Time) {
	if err := s.publisher.Publish(ctx, domain.NewUploadEvent(eventType, session, now)); err != nil {
		s.logger.Warn("failed to publish upload event",
			"type", eventType,
			"session_id", session.ID,
			"error", err)
	}
}
