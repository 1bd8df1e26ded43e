package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/observability/metrics"
	"github.com/yourorg/rentmatch/internal/observability/tracing"
	"github.com/yourorg/rentmatch/internal/reliability/circuitbreaker"
	"github.com/yourorg/rentmatch/internal/reliability/retry"
)

// ProviderGuard wraps outbound calls to one external provider with tracing,
// bounded retries and a circuit breaker. Services that talk to the same
// provider should share one guard.
type ProviderGuard struct {
	name    string
	retry   *retry.Config
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewProviderGuard builds the guard for the named provider.
func NewProviderGuard(name string, logger *slog.Logger) *ProviderGuard {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := retry.DefaultConfig()
	cfg.MaxBackoff = 2 * time.Second
	cfg.ShouldRetry = isRetryable

	cb := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	cb.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("provider circuit state changed",
			slog.String("provider", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &ProviderGuard{name: name, retry: cfg, breaker: cb, logger: logger}
}

// isRetryable retries transport errors and provider errors that say so.
// Domain errors are the caller's fault and are never retried.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var kind *domain.KindError
	if errors.As(err, &kind) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

func guardedCall[T any](ctx context.Context, g *ProviderGuard, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracing.Start(ctx, g.name+"."+op, attribute.String("provider", g.name))
	start := time.Now()

	v, err := circuitbreaker.Call(g.breaker, func() (T, error) {
		return retry.Do(ctx, g.retry, g.logger, g.name+"."+op, retry.Retryable[T](fn))
	}, isRetryable)

	result := "success"
	if err != nil {
		result = "failure"
		if errors.Is(err, circuitbreaker.ErrOpen) {
			result = "rejected"
		}
	}
	metrics.ObserveProvider(g.name, op, result, time.Since(start))
	tracing.End(span, err)
	return v, err
}
