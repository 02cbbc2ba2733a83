// Package index implements the in-memory vector index over document chunks.
//
// Embeddings are L2-normalized at insertion time so query-time similarity is
// a dot product. A linear scan is exact and sufficient at the target scale;
// ordering is deterministic: descending similarity, ties broken by ascending
// chunk ID.
package index

import (
	"sort"
	"sync"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/chunk"
)

// Filter restricts search results to chunks visible to the requesting
// principal. Filtering happens before top-k selection.
type Filter struct {
	OwnerID string
	All     bool
}

// FilterFor builds the visibility filter for a principal: own documents,
// or all documents for elevated roles.
func FilterFor(p domain.Principal) Filter {
	if p.Elevated() {
		return Filter{All: true}
	}
	return Filter{OwnerID: p.OwnerID}
}

func (f Filter) allows(ownerID string) bool {
	return f.All || f.OwnerID == ownerID
}

// Hit is a single search result.
type Hit struct {
	chunk      chunk.Chunk
	similarity float64
}

// NewHit creates a search hit.
func NewHit(c chunk.Chunk, similarity float64) Hit {
	return Hit{chunk: c, similarity: similarity}
}

// Chunk returns the matched chunk.
func (h *Hit) Chunk() chunk.Chunk { return h.chunk }

// Similarity returns the cosine similarity to the query.
func (h *Hit) Similarity() float64 { return h.similarity }

// shard holds one document's chunk set. Writes replace the whole slice
// under the shard lock, so a search never observes a half-updated document.
type shard struct {
	mu      sync.RWMutex
	ownerID string
	chunks  []chunk.Chunk
}

func (s *shard) snapshot() (string, []chunk.Chunk) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerID, s.chunks
}

// Index is the single-node vector index. Searches proceed concurrently;
// writes lock only the affected document's shard, not the whole index.
type Index struct {
	mu   sync.RWMutex
	docs map[string]*shard
}

// New creates an empty index.
func New() *Index {
	return &Index{docs: make(map[string]*shard)}
}

// Upsert inserts or replaces a single chunk within its document's shard.
// The chunk's embedding is normalized on the way in.
func (x *Index) Upsert(c chunk.Chunk) {
	nc := c.WithEmbedding(domain.Normalize(c.Embedding()))

	sh := x.shardFor(c.DocumentID(), c.OwnerID())
	sh.mu.Lock()
	defer sh.mu.Unlock()

	replaced := false
	next := make([]chunk.Chunk, 0, len(sh.chunks)+1)
	for _, existing := range sh.chunks {
		if existing.ID() == nc.ID() {
			next = append(next, nc)
			replaced = true
		} else {
			next = append(next, existing)
		}
	}
	if !replaced {
		next = append(next, nc)
	}
	sh.chunks = next
}

// SetDocument transactionally replaces a document's entire chunk set.
// Embeddings are normalized on the way in.
func (x *Index) SetDocument(documentID, ownerID string, chunks []chunk.Chunk) {
	normalized := make([]chunk.Chunk, len(chunks))
	for i, c := range chunks {
		normalized[i] = c.WithEmbedding(domain.Normalize(c.Embedding()))
	}

	sh := x.shardFor(documentID, ownerID)
	sh.mu.Lock()
	sh.ownerID = ownerID
	sh.chunks = normalized
	sh.mu.Unlock()
}

// Remove drops all chunks of a document.
func (x *Index) Remove(documentID string) {
	x.mu.Lock()
	delete(x.docs, documentID)
	x.mu.Unlock()
}

// Search returns up to k chunks visible through f, ordered by descending
// similarity with ties broken by ascending chunk ID. k <= 0 is invalid.
// An empty index returns an empty result, not an error.
func (x *Index) Search(queryEmbedding []float32, k int, f Filter) ([]Hit, error) {
	if k <= 0 {
		return nil, domain.NewValidation("k", "must be positive")
	}
	q := domain.Normalize(queryEmbedding)

	x.mu.RLock()
	shards := make([]*shard, 0, len(x.docs))
	for _, sh := range x.docs {
		shards = append(shards, sh)
	}
	x.mu.RUnlock()

	var hits []Hit
	for _, sh := range shards {
		ownerID, chunks := sh.snapshot()
		if !f.allows(ownerID) {
			continue
		}
		hits = scoreChunks(hits, chunks, q)
	}
	return topK(hits, k), nil
}

// SearchDocument searches within a single document's chunk set, ignoring
// visibility (callers resolve visibility when they load the document).
func (x *Index) SearchDocument(documentID string, queryEmbedding []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, domain.NewValidation("k", "must be positive")
	}
	q := domain.Normalize(queryEmbedding)

	x.mu.RLock()
	sh, ok := x.docs[documentID]
	x.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	_, chunks := sh.snapshot()
	return topK(scoreChunks(nil, chunks, q), k), nil
}

// ChunkCount returns the number of indexed chunks.
func (x *Index) ChunkCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	n := 0
	for _, sh := range x.docs {
		_, chunks := sh.snapshot()
		n += len(chunks)
	}
	return n
}

func (x *Index) shardFor(documentID, ownerID string) *shard {
	x.mu.RLock()
	sh, ok := x.docs[documentID]
	x.mu.RUnlock()
	if ok {
		return sh
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if sh, ok = x.docs[documentID]; ok {
		return sh
	}
	sh = &shard{ownerID: ownerID}
	x.docs[documentID] = sh
	return sh
}

func scoreChunks(hits []Hit, chunks []chunk.Chunk, q []float32) []Hit {
	for _, c := range chunks {
		hits = append(hits, NewHit(c, domain.Dot(c.Embedding(), q)))
	}
	return hits
}

func topK(hits []Hit, k int) []Hit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].similarity != hits[j].similarity {
			return hits[i].similarity > hits[j].similarity
		}
		return hits[i].chunk.ID() < hits[j].chunk.ID()
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
