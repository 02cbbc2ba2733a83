// Package job implements job posting management.
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	domjob "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/job"
)

// Listing defaults.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// CreateInput carries the fields of a new job posting.
type CreateInput struct {
	Title        string
	Description  string
	Requirements []string
}

// Page is one page of a job listing.
type Page struct {
	Items      []domjob.Job
	NextOffset int // -1 when the listing is exhausted
	Total      int
}

// Service handles job posting lifecycle.
type Service struct {
	repo   Repository
	logger *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates a job service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Create validates and stores a new job posting.
func (s *Service) Create(ctx context.Context, p domain.Principal, in CreateInput) (domjob.Job, error) {
	j, err := domjob.New(s.newID(), p.OwnerID, in.Title, in.Description, in.Requirements, s.now().UTC())
	if err != nil {
		return domjob.Job{}, err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return domjob.Job{}, fmt.Errorf("save job: %w", err)
	}
	s.logger.Info("Job created",
		zap.String("job_id", j.ID()),
		zap.String("owner_id", j.OwnerID()),
		zap.Int("requirements", len(j.Requirements())),
	)
	return j, nil
}

// Get returns a job by ID. Job postings are visible to every principal.
func (s *Service) Get(ctx context.Context, id string) (domjob.Job, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of job postings.
func (s *Service) List(ctx context.Context, offset, limit int) (Page, error) {
	if offset < 0 {
		return Page{}, domain.NewValidation("offset", "offset must be non-negative")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	items, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return Page{}, fmt.Errorf("list jobs: %w", err)
	}

	next := offset + len(items)
	if next >= total {
		next = -1
	}
	return Page{Items: items, NextOffset: next, Total: total}, nil
}
