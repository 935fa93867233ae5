package port

import "context"

// RateLimiter bounds the active sessions of a tenant
type RateLimiter interface {
	CheckAndAdmit(ctx context.Context, tenantID string) error
}
