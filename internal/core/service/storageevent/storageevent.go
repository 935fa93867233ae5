package storageevent

import (
	"log/slog"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"
)

type storageEventService struct {
	completion port.CompletionService
	logger     *slog.Logger
}

// NewStorageEventService creates the handler of bucket notifications sent by MinIO or S3
func NewStorageEventService(completion port.CompletionService, logger *slog.Logger) port.MessageService {
	return &storageEventService{
		completion: completion,
		logger:     logger,
	}
}
