package resume

import (
	"context"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/chunk"
	domres "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/resume"
)

// Repository defines the storage contract for resumes.
type Repository interface {
	Save(ctx context.Context, r domres.Resume) error
	Get(ctx context.Context, id string) (domres.Resume, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, ownerID, query string, offset, limit int) ([]domres.Resume, int, error)
}

// Indexer maintains the in-process vector index.
type Indexer interface {
	SetDocument(documentID, ownerID string, chunks []chunk.Chunk)
	Remove(documentID string)
	ChunkCount() int
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
