// Package embedding decorates embedding providers with resilience and
// observability concerns.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
)

// Retry defaults.
const (
	DefaultAttempts = 3
	DefaultBackoff  = 200 * time.Millisecond
)

// RetryEmbedder wraps an Embedder with bounded retries and exponential
// backoff. Context cancellation aborts waiting immediately.
type RetryEmbedder struct {
	inner    domain.Embedder
	attempts int
	backoff  time.Duration
	logger   *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryEmbedder creates a retrying decorator.
func NewRetryEmbedder(inner domain.Embedder, attempts int, backoff time.Duration, logger *zap.Logger) *RetryEmbedder {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &RetryEmbedder{
		inner:    inner,
		attempts: attempts,
		backoff:  backoff,
		logger:   logger,
		sleep:    sleepCtx,
	}
}

// Embed delegates to the inner embedder, retrying failed attempts with
// doubling backoff.
func (r *RetryEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var lastErr error
	wait := r.backoff

	for attempt := 1; attempt <= r.attempts; attempt++ {
		result, err := r.inner.Embed(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == r.attempts {
			break
		}
		r.logger.Warn("Embedding attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if err := r.sleep(ctx, wait); err != nil {
			return domain.EmbeddingResult{}, fmt.Errorf("embed retry aborted: %w", err)
		}
		wait *= 2
	}

	return domain.EmbeddingResult{}, fmt.Errorf("embed after %d attempts: %w", r.attempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
