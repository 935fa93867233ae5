package ratelimit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"
)

type rateLimiter struct {
	uow       port.UnitOfWork
	maxActive int64
	logger    *slog.Logger
}

// NewRateLimiter creates a limiter admitting at most maxActive PENDING or UPLOADING sessions per tenant.
// The count is not reserved, so concurrent creations may overshoot the bound slightly.
func NewRateLimiter(uow port.UnitOfWork, maxActive int64, logger *slog.Logger) port.RateLimiter {
	return &rateLimiter{
		uow:       uow,
		maxActive: maxActive,
		logger:    logger,
	}
}

func (r *rateLimiter) CheckAndAdmit(ctx context.Context, tenantID string) error {
	active, err := r.uow.UploadSessionRepo().CountActiveByTenant(ctx, tenantID)
	if err != nil {
		return err
	}

	if active >= r.maxActive {
		r.logger.Warn("tenant rate limited", "tenant_id", tenantID, "active", active, "max", r.maxActive)
		return fmt.Errorf("%w: %d active sessions", domain.ErrRateLimitExceeded, active)
	}
	return nil
}
