package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
)

type flakyEmbedder struct {
	failures int
	calls    int
}

func (f *flakyEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.calls <= f.failures {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProvider
	}
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}

func newTestRetry(inner domain.Embedder, attempts int) *RetryEmbedder {
	r := NewRetryEmbedder(inner, attempts, time.Millisecond, zap.NewNop())
	r.sleep = func(context.Context, time.Duration) error { return nil }
	return r
}

func TestEmbed_SucceedsAfterTransientFailures(t *testing.T) {
	inner := &flakyEmbedder{failures: 2}
	r := newTestRetry(inner, 3)

	got, err := r.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls, got %d", inner.calls)
	}
	if len(got.Embedding) != 1 {
		t.Errorf("unexpected result %v", got)
	}
}

func TestEmbed_ExhaustsAttempts(t *testing.T) {
	inner := &flakyEmbedder{failures: 10}
	r := newTestRetry(inner, 3)

	_, err := r.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", inner.calls)
	}
}

func TestEmbed_NoRetryOnSuccess(t *testing.T) {
	inner := &flakyEmbedder{}
	r := newTestRetry(inner, 3)

	if _, err := r.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected single call, got %d", inner.calls)
	}
}

func TestEmbed_CancelledContextStopsRetrying(t *testing.T) {
	inner := &flakyEmbedder{failures: 10}
	r := NewRetryEmbedder(inner, 5, time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Embed(ctx, "hello")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected a single attempt before aborting, got %d", inner.calls)
	}
}
