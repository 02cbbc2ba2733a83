// Package resume implements resume ingestion, retrieval and deletion.
package resume

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/chunk"
	domres "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/resume"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/extract"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/metrics"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/redact"
)

// Listing defaults.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Config tunes ingestion.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	MaxFileSize  int64
}

func (c *Config) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1200
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = 150
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = domres.MaxTextSize
	}
}

// Page is one page of a resume listing.
type Page struct {
	Items      []domres.Resume
	NextOffset int // -1 when the listing is exhausted
	Total      int
}

// Service handles the resume document lifecycle.
type Service struct {
	repo   Repository
	idx    Indexer
	embed  Embedder
	cfg    Config
	logger *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates a resume service.
func New(repo Repository, idx Indexer, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	cfg.applyDefaults()
	return &Service{
		repo:   repo,
		idx:    idx,
		embed:  embed,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Upload ingests an uploaded file: extract text and metadata, chunk, embed
// every chunk, then persist and index. Embedding happens before any state
// changes, so a provider failure mid-document leaves no partial resume
// behind.
func (s *Service) Upload(
	ctx context.Context, p domain.Principal, filename string, data []byte,
) (domres.Resume, error) {
	if int64(len(data)) > s.cfg.MaxFileSize {
		return domres.Resume{}, fmt.Errorf(
			"%d bytes exceeds the %d byte limit: %w", len(data), s.cfg.MaxFileSize, domain.ErrFileTooLarge,
		)
	}

	text, err := extract.Text(filename, data)
	if err != nil {
		return domres.Resume{}, err
	}

	spans := chunk.Split(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if len(spans) == 0 {
		return domres.Resume{}, domain.NewValidation("file", "file contains no text")
	}

	id := s.newID()
	chunks := make([]chunk.Chunk, 0, len(spans))
	for i, span := range spans {
		result, err := s.embed.Embed(ctx, span.Text)
		if err != nil {
			return domres.Resume{}, fmt.Errorf("embed chunk %d of %d: %w", i+1, len(spans), err)
		}
		// Sequential chunk IDs keep search tie-breaking stable across runs.
		c, err := chunk.New(
			fmt.Sprintf("%s:%04d", id, i), id, p.OwnerID,
			span.Text, domain.Normalize(result.Embedding), span.Offset,
		)
		if err != nil {
			return domres.Resume{}, fmt.Errorf("build chunk %d: %w", i, err)
		}
		chunks = append(chunks, c)
	}

	res, err := domres.New(id, p.OwnerID, filename, text, extract.Metadata(text), chunks, s.now().UTC())
	if err != nil {
		return domres.Resume{}, err
	}

	if err := s.repo.Save(ctx, res); err != nil {
		return domres.Resume{}, fmt.Errorf("save resume: %w", err)
	}
	s.idx.SetDocument(res.ID(), res.OwnerID(), chunks)
	metrics.IndexedChunks.Set(float64(s.idx.ChunkCount()))

	s.logger.Info("Resume ingested",
		zap.String("resume_id", res.ID()),
		zap.String("owner_id", res.OwnerID()),
		zap.Int("chunks", len(chunks)),
		zap.Int("bytes", len(data)),
	)
	return redact.Resume(res, p), nil
}

// Get returns a resume visible to p, redacted unless p is a recruiter.
// Resumes of other owners read as not found for non-recruiters.
func (s *Service) Get(ctx context.Context, p domain.Principal, id string) (domres.Resume, error) {
	res, err := s.repo.Get(ctx, id)
	if err != nil {
		return domres.Resume{}, err
	}
	if !p.Elevated() && res.OwnerID() != p.OwnerID {
		return domres.Resume{}, domain.ErrNotFound
	}
	return redact.Resume(res, p), nil
}

// List returns a page of resumes visible to p, each redacted per p's role.
func (s *Service) List(
	ctx context.Context, p domain.Principal, query string, offset, limit int,
) (Page, error) {
	if offset < 0 {
		return Page{}, domain.NewValidation("offset", "offset must be non-negative")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	ownerID := p.OwnerID
	if p.Elevated() {
		ownerID = ""
	}

	items, total, err := s.repo.List(ctx, ownerID, query, offset, limit)
	if err != nil {
		return Page{}, fmt.Errorf("list resumes: %w", err)
	}

	for i := range items {
		items[i] = redact.Resume(items[i], p)
	}

	next := offset + len(items)
	if next >= total {
		next = -1
	}
	return Page{Items: items, NextOffset: next, Total: total}, nil
}

// Delete removes a resume record and its index entries. Non-recruiters can
// only delete their own resumes.
func (s *Service) Delete(ctx context.Context, p domain.Principal, id string) error {
	res, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.Elevated() && res.OwnerID() != p.OwnerID {
		return domain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	s.idx.Remove(id)
	metrics.IndexedChunks.Set(float64(s.idx.ChunkCount()))

	s.logger.Info("Resume deleted",
		zap.String("resume_id", id),
		zap.String("owner_id", res.OwnerID()),
	)
	return nil
}
