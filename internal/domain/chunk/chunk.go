// Package chunk defines the text chunk value object and the splitter that
// produces chunks from document text.
package chunk

import (
	"fmt"
	"strings"
	"unicode"
)

// Chunk is a bounded span of document text paired with its embedding
// (immutable value object). The embedding is computed exactly once at
// document creation; re-ingestion produces new chunks.
type Chunk struct {
	id         string
	documentID string
	ownerID    string
	text       string
	embedding  []float32
	offset     int
}

// New validates and creates a Chunk.
func New(id, documentID, ownerID, text string, embedding []float32, offset int) (Chunk, error) {
	if id == "" {
		return Chunk{}, fmt.Errorf("chunk ID is required")
	}
	if documentID == "" {
		return Chunk{}, fmt.Errorf("document ID is required")
	}
	if text == "" {
		return Chunk{}, fmt.Errorf("chunk text is required")
	}
	if offset < 0 {
		return Chunk{}, fmt.Errorf("offset must be non-negative")
	}
	return Chunk{
		id:         id,
		documentID: documentID,
		ownerID:    ownerID,
		text:       text,
		embedding:  embedding,
		offset:     offset,
	}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(id, documentID, ownerID, text string, embedding []float32, offset int) Chunk {
	return Chunk{id: id, documentID: documentID, ownerID: ownerID, text: text, embedding: embedding, offset: offset}
}

// ID returns the chunk identifier.
func (c *Chunk) ID() string { return c.id }

// DocumentID returns the owning document identifier.
func (c *Chunk) DocumentID() string { return c.documentID }

// OwnerID returns the identifier of the document owner.
func (c *Chunk) OwnerID() string { return c.ownerID }

// Text returns the chunk text.
func (c *Chunk) Text() string { return c.text }

// Embedding returns the embedding vector.
func (c *Chunk) Embedding() []float32 { return c.embedding }

// Offset returns the byte offset of the chunk in the document text.
func (c *Chunk) Offset() int { return c.offset }

// WithEmbedding returns a copy with the given embedding set.
func (c *Chunk) WithEmbedding(v []float32) Chunk {
	out := *c
	out.embedding = v
	return out
}

// Span is a piece of document text produced by Split, before embedding.
type Span struct {
	Text   string
	Offset int
}

// Split cuts text into spans of at most size bytes with the given overlap,
// breaking on whitespace where possible so words stay intact. Offsets are
// byte positions into the original text. Empty or whitespace-only text
// yields no spans.
func Split(text string, size, overlap int) []Span {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var spans []Span
	pos := 0
	for pos < len(text) {
		end := pos + size
		if end >= len(text) {
			end = len(text)
		} else {
			// Back up to the last whitespace inside the window.
			if cut := lastSpace(text[pos:end]); cut > 0 {
				end = pos + cut
			}
		}

		piece := strings.TrimSpace(text[pos:end])
		if piece != "" {
			spans = append(spans, Span{
				Text:   piece,
				Offset: pos + strings.Index(text[pos:end], piece[:1]),
			})
		}

		if end == len(text) {
			break
		}
		next := end - overlap
		if next <= pos {
			next = pos + 1
		}
		pos = next
	}
	return spans
}

func lastSpace(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if unicode.IsSpace(rune(s[i])) {
			return i
		}
	}
	return 0
}
