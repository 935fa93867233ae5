package progress

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/google/uuid"
)

const (
	partsKeySuffix  = "parts"
	expiryKeySuffix = "expiry"
)

type tracker struct {
	cache     port.Cache
	keyPrefix string
	ttl       time.Duration
	logger    *slog.Logger
}

// NewTracker creates a cache backed progress tracker
func NewTracker(cache port.Cache, keyPrefix string, ttl time.Duration, logger *slog.Logger) port.ProgressTracker {
	return &tracker{
		cache:     cache,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

func (t *tracker) partsKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("%s:session:%s:%s", t.keyPrefix, sessionID, partsKeySuffix)
}

// ExpiryKey returns the cache key whose eviction signals the expiry of a session
func ExpiryKey(keyPrefix string, sessionID uuid.UUID) string {
	return fmt.Sprintf("%s:session:%s:%s", keyPrefix, sessionID, expiryKeySuffix)
}

// SessionIDFromExpiryKey parses a key built by ExpiryKey
func SessionIDFromExpiryKey(keyPrefix string, key string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(key, keyPrefix+":session:")
	if !ok {
		return uuid.Nil, false
	}
	raw, ok := strings.CutSuffix(rest, ":"+expiryKeySuffix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// MarkPartCompleted records a completed part. Cache failures are logged and ignored.
func (t *tracker) MarkPartCompleted(ctx context.Context, sessionID uuid.UUID, partNumber int) {
	err := t.cache.AddToSet(ctx, t.partsKey(sessionID), strconv.Itoa(partNumber), t.ttl)
	if err != nil {
		t.logger.Warn("failed to record part progress",
			"session_id", sessionID,
			"part_number", partNumber,
			"error", err)
	}
}

func (t *tracker) Progress(ctx context.Context, session *domain.UploadSession, multipart *domain.MultipartUpload) int {
	if session.Status == domain.UploadSessionStatusCompleted {
		return 100
	}

	if multipart != nil && multipart.TotalParts > 0 {
		completed, found, err := t.cache.SetSize(ctx, t.partsKey(session.ID))
		if err != nil {
			t.logger.Warn("failed to read part progress", "session_id", session.ID, "error", err)
		}
		if err == nil && found {
			return percent(completed, int64(multipart.TotalParts))
		}
	}

	return statusProgress(session.Status)
}

func percent(completed, total int64) int {
	p := int(math.Round(100 * float64(completed) / float64(total)))
	return max(0, min(100, p))
}

func statusProgress(status domain.UploadSessionStatus) int {
	switch status {
	case domain.UploadSessionStatusUploading:
		return 50
	case domain.UploadSessionStatusCompleted:
		return 100
	default:
		return 0
	}
}

// Track arms the expiry marker of a session so that its eviction reports the expiry
func (t *tracker) Track(ctx context.Context, session *domain.UploadSession, now time.Time) {
	ttl := session.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return
	}
	err := t.cache.SetWithTTL(ctx, ExpiryKey(t.keyPrefix, session.ID), string(session.Status), ttl)
	if err != nil {
		t.logger.Warn("failed to arm session expiry", "session_id", session.ID, "error", err)
	}
}

// Clear drops every cache entry of a finished session
func (t *tracker) Clear(ctx context.Context, sessionID uuid.UUID) {
	err := t.cache.Delete(ctx, t.partsKey(sessionID), ExpiryKey(t.keyPrefix, sessionID))
	if err != nil {
		t.logger.Warn("failed to clear session progress", "session_id", sessionID, "error", err)
	}
}
