package storageevent

import (
	"context"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"
)

// HandleMessage completes the sessions whose objects were created.
// Only retryable failures are returned, so that the broker redelivers the message.
func (s *storageEventService) HandleMessage(ctx context.Context, data []byte) error {
	events, err := ParseNotification(data)
	if err != nil {
		s.logger.Warn("dropping malformed storage notification", "error", err)
		return nil
	}

	for _, event := range events {
		sessionID, err := SessionIDFromKey(event.ObjectKey)
		if err != nil {
			s.logger.Warn("object key does not belong to an upload session", "key", event.ObjectKey)
			continue
		}

		s.logger.Info("handling storage event", "eventtype", event.EventName, "key", event.ObjectKey, "session_id", sessionID)

		result, err := s.completion.Complete(ctx, port.CompletionRequest{
			SessionID: sessionID,
			ETag:      event.ObjectETag,
			Source:    port.CompletionSourceStorageEvent,
		})
		if err != nil {
			if domain.IsRetryable(err) {
				return err
			}
			s.logger.Warn("storage event not applied",
				"session_id", sessionID,
				"kind", domain.KindOf(err),
				"error", err)
			continue
		}

		if result.AlreadyCompleted {
			s.logger.Info("session already completed", "session_id", sessionID)
		}
	}
	return nil
}
