package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/observability/metrics"
	"github.com/yourorg/rentmatch/pkg/cache"
)

// CleanupWorker periodically purges expired score results and refreshes the
// listing gauges.
type CleanupWorker struct {
	properties domain.PropertyRepository
	scores     *cache.Cache
	logger     *slog.Logger
	interval   time.Duration
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(
	properties domain.PropertyRepository,
	scores *cache.Cache,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CleanupWorker{
		properties: properties,
		scores:     scores,
		logger:     logger,
		interval:   interval,
	}
}

// Start runs the loop until ctx is cancelled. One pass runs immediately so
// the gauges are populated at boot.
func (w *CleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("cleanup worker started", slog.Duration("interval", w.interval))
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single cleanup pass.
func (w *CleanupWorker) RunOnce(ctx context.Context) {
	if w.scores != nil {
		if n := w.scores.Purge(); n > 0 {
			metrics.ObserveEvictions("score", n)
			w.logger.Debug("purged expired scores", slog.Int("count", n))
		}
	}

	if w.properties == nil {
		return
	}
	open, leased, err := w.countListings(ctx)
	if err != nil {
		w.logger.Error("failed to count listings", slog.String("error", err.Error()))
		return
	}
	metrics.SetListings(open, leased)
}

func (w *CleanupWorker) countListings(ctx context.Context) (open, leased int64, err error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, total, err := w.properties.List(ctx, domain.PropertyFilter{Limit: 1})
	if err != nil {
		return 0, 0, err
	}
	_, open, err = w.properties.List(ctx, domain.PropertyFilter{Limit: 1, AvailableOnly: true})
	if err != nil {
		return 0, 0, err
	}
	return open, total - open, nil
}
