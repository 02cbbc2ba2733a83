package ask

import (
	"context"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/answer"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/index"
)

// Searcher runs top-k retrieval over the vector index.
type Searcher interface {
	Search(queryEmbedding []float32, k int, f index.Filter) ([]index.Hit, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Composer turns retrieved sources into answer text. Implementations must
// be deterministic and must not introduce content absent from the sources.
type Composer interface {
	Compose(query string, sources []answer.Source) string
}
