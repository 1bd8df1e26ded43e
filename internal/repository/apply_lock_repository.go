package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/rentmatch/internal/infrastructure/redis"
)

// ApplyLockRepository implements domain.ApplyLock using Redis SETNX
type ApplyLockRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewApplyLockRepository creates a new lock repository
func NewApplyLockRepository(redisClient *redis.Client, logger *slog.Logger) *ApplyLockRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplyLockRepository{
		redis:  redisClient,
		logger: logger,
	}
}

// Acquire takes the lock if nobody holds it
func (r *ApplyLockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl < time.Second {
		ttl = time.Second
	}
	ok, err := r.redis.SetNX(ctx, "lock:"+key, time.Now().UTC().Format(time.RFC3339), ttl)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	r.logger.Debug("apply lock", slog.String("key", key), slog.Bool("acquired", ok))
	return ok, nil
}

// Release drops the lock
func (r *ApplyLockRepository) Release(ctx context.Context, key string) error {
	if err := r.redis.Delete(ctx, "lock:"+key); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
