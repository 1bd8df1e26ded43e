package domain

import (
	"context"
	"time"
)

// ApplyLock is a short-lived exclusive lock keyed by tenant, property and month.
type ApplyLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// PropertyCache holds public listing reads. Misses and cache failures are
// treated the same way by callers.
type PropertyCache interface {
	Get(ctx context.Context, id string) (*Property, bool)
	Set(ctx context.Context, p *Property)
	Invalidate(ctx context.Context, id string)
}

// LinkTokenCache remembers the aggregator link token issued to a tenant.
type LinkTokenCache interface {
	Get(ctx context.Context, tenantID string) (string, bool)
	Set(ctx context.Context, tenantID, token string, ttl time.Duration)
}
