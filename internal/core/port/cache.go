package port

import (
	"context"
	"time"
)

// Cache is an interface to define cache interactions
type Cache interface {
	SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get returns false when the key is absent
	Get(ctx context.Context, key string) (string, bool, error)
	// AddToSet adds member to the set at key and refreshes its ttl
	AddToSet(ctx context.Context, key string, member string, ttl time.Duration) error
	// SetSize returns false when the set is absent
	SetSize(ctx context.Context, key string) (int64, bool, error)
	Delete(ctx context.Context, keys ...string) error
	// ExpiredKeys streams the keys evicted by ttl until ctx is done
	ExpiredKeys(ctx context.Context) (<-chan string, error)
}
