// Package job persists job postings as JSON values in the kv store.
package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	domjob "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/job"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/kv"
)

const keyPrefix = "resumerag:job:"

func jobKey(id string) string { return keyPrefix + id }

type jobDTO struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Requirements []string  `json:"requirements"`
	CreatedAt    time.Time `json:"created_at"`
}

// store is the consumer interface for job persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Repo implements usecase/job.Repository.
type Repo struct {
	store store
}

// New creates a job repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save creates or replaces a job record.
func (r *Repo) Save(ctx context.Context, j domjob.Job) error {
	dto := jobDTO{
		ID:           j.ID(),
		OwnerID:      j.OwnerID(),
		Title:        j.Title(),
		Description:  j.Description(),
		Requirements: j.Requirements(),
		CreatedAt:    j.CreatedAt(),
	}
	data, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := r.store.Set(ctx, jobKey(j.ID()), data); err != nil {
		return fmt.Errorf("set %s: %w", jobKey(j.ID()), err)
	}
	return nil
}

// Get returns a job by ID.
func (r *Repo) Get(ctx context.Context, id string) (domjob.Job, error) {
	raw, err := r.store.Get(ctx, jobKey(id))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return domjob.Job{}, domain.ErrJobNotFound
		}
		return domjob.Job{}, fmt.Errorf("get %s: %w", jobKey(id), err)
	}
	var dto jobDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return domjob.Job{}, fmt.Errorf("unmarshal job %s: %w", id, err)
	}
	return domjob.Reconstruct(dto.ID, dto.OwnerID, dto.Title, dto.Description, dto.Requirements, dto.CreatedAt), nil
}

// List returns a page of jobs ordered by creation time, then ID, plus the
// total count.
func (r *Repo) List(ctx context.Context, offset, limit int) ([]domjob.Job, int, error) {
	keys, err := r.store.List(ctx, keyPrefix)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", keyPrefix, err)
	}

	jobs := make([]domjob.Job, 0, len(keys))
	for _, key := range keys {
		raw, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, kv.ErrKeyNotFound) {
				continue
			}
			return nil, 0, fmt.Errorf("get %s: %w", key, err)
		}
		var dto jobDTO
		if err := json.Unmarshal(raw, &dto); err != nil {
			return nil, 0, fmt.Errorf("unmarshal %s: %w", key, err)
		}
		jobs = append(jobs, domjob.Reconstruct(dto.ID, dto.OwnerID, dto.Title, dto.Description, dto.Requirements, dto.CreatedAt))
	}

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt().Equal(jobs[j].CreatedAt()) {
			return jobs[i].CreatedAt().Before(jobs[j].CreatedAt())
		}
		return jobs[i].ID() < jobs[j].ID()
	})

	total := len(jobs)
	if offset >= total {
		return []domjob.Job{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return jobs[offset:end], total, nil
}
