package match

import (
	"context"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	domjob "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/job"
	domres "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/resume"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/index"
)

// JobReader loads the job being matched.
type JobReader interface {
	Get(ctx context.Context, id string) (domjob.Job, error)
}

// CandidateLister loads candidate resumes. An empty ownerID means all
// owners.
type CandidateLister interface {
	List(ctx context.Context, ownerID, query string, offset, limit int) ([]domres.Resume, int, error)
}

// DocSearcher runs retrieval restricted to a single document's chunks.
type DocSearcher interface {
	SearchDocument(documentID string, queryEmbedding []float32, k int) ([]index.Hit, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
