package embcache

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/kv"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data  map[string][]byte
	getFn func(ctx context.Context, key string) ([]byte, error)
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte)}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, kv.ErrKeyNotFound
}

func (m *mockKVStore) Set(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func TestEmbed_MissThenHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding: []float32{0.1, 0.2, 0.3}, PromptTokens: 5, TotalTokens: 5,
	}}
	ce := New(inner, newMockKVStore(), "test-model", nil, zap.NewNop())
	ctx := context.Background()

	first, err := ce.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if first.TotalTokens != 5 {
		t.Errorf("miss should carry provider token usage, got %d", first.TotalTokens)
	}

	second, err := ce.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner embedder called %d times, want 1", inner.calls)
	}
	if second.TotalTokens != 0 {
		t.Errorf("hit must report zero tokens, got %d", second.TotalTokens)
	}
	for i := range first.Embedding {
		if first.Embedding[i] != second.Embedding[i] {
			t.Fatalf("cached vector differs at %d: %v vs %v", i, first.Embedding, second.Embedding)
		}
	}
}

func TestEmbed_DifferentModelsDoNotShareEntries(t *testing.T) {
	store := newMockKVStore()
	innerA := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	innerB := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{2}}}

	a := New(innerA, store, "model-a", nil, zap.NewNop())
	b := New(innerB, store, "model-b", nil, zap.NewNop())

	_, _ = a.Embed(context.Background(), "hello")
	got, _ := b.Embed(context.Background(), "hello")

	if innerB.calls != 1 {
		t.Fatalf("model-b must not reuse model-a entries")
	}
	if got.Embedding[0] != 2 {
		t.Errorf("got %v", got.Embedding)
	}
}

func TestEmbed_StoreErrorFallsThrough(t *testing.T) {
	store := newMockKVStore()
	store.getFn = func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection refused")
	}
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	ce := New(inner, store, "m", nil, zap.NewNop())

	got, err := ce.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("cache failure must not fail the embed: %v", err)
	}
	if len(got.Embedding) != 1 || inner.calls != 1 {
		t.Errorf("expected inner result, got %v calls=%d", got.Embedding, inner.calls)
	}
}

func TestEmbed_InnerErrorPropagates(t *testing.T) {
	inner := &mockEmbedder{err: domain.ErrEmbeddingProvider}
	ce := New(inner, newMockKVStore(), "m", nil, zap.NewNop())

	if _, err := ce.Embed(context.Background(), "x"); !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}
