// Package resume defines the resume document aggregate and its structured
// metadata.
package resume

import (
	"fmt"
	"time"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/chunk"
)

// MaxTextSize is the maximum extracted text size in bytes.
const MaxTextSize = 262144 // 256KB

// ContactInfo holds structured contact fields extracted from a resume.
// An empty string means the field is absent; the redactor replaces present
// values with placeholders so callers can tell "hidden" from "absent".
type ContactInfo struct {
	Email    string
	Phone    string
	LinkedIn string
	GitHub   string
	Website  string
}

// Metadata is the structured data extracted from resume text.
type Metadata struct {
	Skills     []string
	Experience []string
	Education  []string
	Contact    ContactInfo
}

// Resume is the document aggregate. It exclusively owns its chunks:
// deleting or re-ingesting a resume replaces the whole chunk set.
type Resume struct {
	id           string
	ownerID      string
	originalName string
	rawText      string
	metadata     Metadata
	chunks       []chunk.Chunk
	createdAt    time.Time
}

// New validates and creates a Resume.
func New(
	id, ownerID, originalName, rawText string,
	metadata Metadata, chunks []chunk.Chunk, createdAt time.Time,
) (Resume, error) {
	if id == "" {
		return Resume{}, fmt.Errorf("resume ID is required")
	}
	if ownerID == "" {
		return Resume{}, fmt.Errorf("owner ID is required")
	}
	if originalName == "" {
		return Resume{}, fmt.Errorf("original name is required")
	}
	if rawText == "" {
		return Resume{}, fmt.Errorf("raw text is required")
	}
	if len(rawText) > MaxTextSize {
		return Resume{}, fmt.Errorf("raw text too large (max %d bytes)", MaxTextSize)
	}
	return Resume{
		id:           id,
		ownerID:      ownerID,
		originalName: originalName,
		rawText:      rawText,
		metadata:     metadata,
		chunks:       chunks,
		createdAt:    createdAt,
	}, nil
}

// Reconstruct creates a Resume without validation (storage hydration).
func Reconstruct(
	id, ownerID, originalName, rawText string,
	metadata Metadata, chunks []chunk.Chunk, createdAt time.Time,
) Resume {
	return Resume{
		id: id, ownerID: ownerID, originalName: originalName, rawText: rawText,
		metadata: metadata, chunks: chunks, createdAt: createdAt,
	}
}

// ID returns the resume identifier.
func (r *Resume) ID() string { return r.id }

// OwnerID returns the owning principal's identifier.
func (r *Resume) OwnerID() string { return r.ownerID }

// OriginalName returns the uploaded file name.
func (r *Resume) OriginalName() string { return r.originalName }

// RawText returns the extracted plain text.
func (r *Resume) RawText() string { return r.rawText }

// Metadata returns the structured metadata.
func (r *Resume) Metadata() Metadata { return r.metadata }

// Chunks returns the resume's chunks in document order.
func (r *Resume) Chunks() []chunk.Chunk { return r.chunks }

// CreatedAt returns the creation timestamp.
func (r *Resume) CreatedAt() time.Time { return r.createdAt }

// WithRedacted returns a copy carrying sanitized text and metadata.
// The stored record is never mutated; redaction operates on this copy.
func (r *Resume) WithRedacted(rawText string, metadata Metadata) Resume {
	out := *r
	out.rawText = rawText
	out.metadata = metadata
	return out
}
