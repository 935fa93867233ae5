package cleanup

import (
	"log/slog"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"
)

type cleanupService struct {
	uow       port.UnitOfWork
	storage   port.ObjectStorage
	tracker   port.ProgressTracker
	publisher port.EventPublisher
	batchSize int
	logger    *slog.Logger
}

// NewCleanupService creates a new cleanup service. Each sweep expires at most batchSize sessions.
func NewCleanupService(uow port.UnitOfWork, storage port.ObjectStorage, tracker port.ProgressTracker, publisher port.EventPublisher, batchSize int, logger *slog.Logger) port.CleanupService {
	return &cleanupService{
		uow:       uow,
		storage:   storage,
		tracker:   tracker,
		publisher: publisher,
		batchSize: batchSize,
		logger:    logger,
	}
}
