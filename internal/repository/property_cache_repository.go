package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/infrastructure/redis"
)

// PropertyCacheRepository implements domain.PropertyCache using Redis
type PropertyCacheRepository struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewPropertyCacheRepository creates a new property cache
func NewPropertyCacheRepository(redisClient *redis.Client, ttl time.Duration, logger *slog.Logger) *PropertyCacheRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &PropertyCacheRepository{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns a cached listing
func (r *PropertyCacheRepository) Get(ctx context.Context, id string) (*domain.Property, bool) {
	data, err := r.redis.Get(ctx, propertyKey(id))
	if err != nil {
		if !errors.Is(err, redis.ErrMiss) {
			r.logger.Warn("property cache read failed", slog.String("property_id", id), slog.String("error", err.Error()))
		}
		return nil, false
	}

	var p domain.Property
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		r.logger.Warn("property cache entry corrupt", slog.String("property_id", id), slog.String("error", err.Error()))
		return nil, false
	}
	return &p, true
}

// Set caches a listing
func (r *PropertyCacheRepository) Set(ctx context.Context, p *domain.Property) {
	data, err := json.Marshal(p)
	if err != nil {
		r.logger.Warn("failed to marshal property", slog.String("property_id", p.ID), slog.String("error", err.Error()))
		return
	}
	if err := r.redis.Set(ctx, propertyKey(p.ID), string(data), r.ttl); err != nil {
		r.logger.Warn("property cache write failed", slog.String("property_id", p.ID), slog.String("error", err.Error()))
	}
}

// Invalidate drops a cached listing
func (r *PropertyCacheRepository) Invalidate(ctx context.Context, id string) {
	if err := r.redis.Delete(ctx, propertyKey(id)); err != nil {
		r.logger.Warn("property cache invalidation failed", slog.String("property_id", id), slog.String("error", err.Error()))
	}
}

func propertyKey(id string) string {
	return fmt.Sprintf("property:%s", id)
}

// LinkTokenRepository implements domain.LinkTokenCache using Redis
type LinkTokenRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewLinkTokenRepository creates a new link token cache
func NewLinkTokenRepository(redisClient *redis.Client, logger *slog.Logger) *LinkTokenRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkTokenRepository{redis: redisClient, logger: logger}
}

// Get returns the cached link token for a tenant
func (r *LinkTokenRepository) Get(ctx context.Context, tenantID string) (string, bool) {
	token, err := r.redis.Get(ctx, "link_token:"+tenantID)
	if err != nil {
		return "", false
	}
	return token, true
}

// Set caches a link token
func (r *LinkTokenRepository) Set(ctx context.Context, tenantID, token string, ttl time.Duration) {
	if err := r.redis.Set(ctx, "link_token:"+tenantID, token, ttl); err != nil {
		r.logger.Warn("link token cache write failed", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
	}
}
