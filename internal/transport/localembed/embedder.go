// Package localembed provides a deterministic in-process embedding
// provider for deployments without an external API. Vectors come from
// hashed bag-of-words counts, so identical text always embeds identically
// and overlapping vocabulary yields nonzero similarity.
package localembed

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
)

// DefaultDimensions matches the default index dimensionality.
const DefaultDimensions = 256

// Embedder hashes tokens into a fixed-size vector.
type Embedder struct {
	dims int
}

var (
	_ domain.Embedder      = (*Embedder)(nil)
	_ domain.HealthChecker = (*Embedder)(nil)
)

// NewEmbedder creates a local embedder with the given dimensionality.
func NewEmbedder(dims int) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{dims: dims}
}

// Embed implements domain.Embedder. Token counts double as token usage so
// downstream accounting stays meaningful.
func (e *Embedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec := make([]float32, e.dims)
	tokens := tokenize(text)
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[int(h.Sum32())%e.dims]++
	}
	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: len(tokens),
		TotalTokens:  len(tokens),
	}, nil
}

// HealthCheck always succeeds for the in-process provider.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
