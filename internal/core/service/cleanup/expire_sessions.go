package cleanup

import (
	"context"
	"errors"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/google/uuid"
)

// ExpireSessions finds active sessions past their deadline and expires them
func (c *cleanupService) ExpireSessions(ctx context.Context, now time.Time) error {
	sessions, err := c.uow.UploadSessionRepo().FindAllExpired(ctx, now, c.batchSize)
	if err != nil {
		return err
	}

	expired := 0
	for i := range sessions {
		changed, err := c.expire(ctx, &sessions[i], now)
		if err != nil {
			c.logger.Error("Failed to expire session", "session_id", sessions[i].ID, "err", err)
			continue
		}
		if changed {
			expired++
		}
	}
	c.logger.Info("expired sessions sweep completed", "found", len(sessions), "expired", expired)
	return nil
}

// ExpireSession expires one session whose expiry marker was evicted.
// A session that is finished or not yet due is left untouched.
func (c *cleanupService) ExpireSession(ctx context.Context, sessionID uuid.UUID, now time.Time) error {
	session, err := c.uow.UploadSessionRepo().FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.IsExpiredAt(now) {
		return nil
	}

	_, err = c.expire(ctx, session, now)
	return err
}

func (c *cleanupService) expire(ctx context.Context, session *domain.UploadSession, now time.Time) (bool, error) {
	if !session.Expire(now) {
		return false, nil
	}

	var multipart *domain.MultipartUpload
	if session.IsMultipart() {
		var err error
		multipart, err = c.uow.MultipartRepo().FindBySessionID(ctx, session.ID)
		if err != nil && !errors.Is(err, domain.ErrMultipartNotFound) {
			return false, err
		}
	}

	txErr := c.uow.Execute(ctx, func(uow port.UnitOfWork) error {
		return uow.UploadSessionRepo().Update(ctx, session)
	})
	if errors.Is(txErr, domain.ErrConcurrentUpdate) {
		c.logger.Info("session changed while expiring, skipped", "session_id", session.ID)
		return false, nil
	}
	if txErr != nil {
		return false, txErr
	}

	if multipart != nil {
		if err := c.storage.AbortMultipartUpload(ctx, session.StorageKey, multipart.ProviderUploadID); err != nil {
			c.logger.Warn("failed to abort multipart upload of expired session",
				"session_id", session.ID,
				"upload_id", multipart.ProviderUploadID,
				"error", err)
		}
	}
	c.tracker.Clear(ctx, session.ID)
	if err := c.publisher.Publish(ctx, domain.NewUploadEvent(domain.UploadEventExpired, session, now)); err != nil {
		c.logger.Warn("failed to publish upload event", "type", domain.UploadEventExpired, "session_id", session.ID, "error", err)
	}
	return true, nil
}
