// Package resume persists resume aggregates as JSON values in the kv store.
package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	domres "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/resume"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/kv"
)

const keyPrefix = "resumerag:resume:"

func resumeKey(id string) string { return keyPrefix + id }

// store is the consumer interface for resume persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Repo implements usecase/resume.Repository.
type Repo struct {
	store store
}

// New creates a resume repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save creates or replaces a resume record.
func (r *Repo) Save(ctx context.Context, res domres.Resume) error {
	data, err := json.Marshal(toDTO(res))
	if err != nil {
		return fmt.Errorf("marshal resume: %w", err)
	}
	if err := r.store.Set(ctx, resumeKey(res.ID()), data); err != nil {
		return fmt.Errorf("set %s: %w", resumeKey(res.ID()), err)
	}
	return nil
}

// Get returns a resume by ID.
func (r *Repo) Get(ctx context.Context, id string) (domres.Resume, error) {
	raw, err := r.store.Get(ctx, resumeKey(id))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return domres.Resume{}, domain.ErrNotFound
		}
		return domres.Resume{}, fmt.Errorf("get %s: %w", resumeKey(id), err)
	}
	var dto resumeDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return domres.Resume{}, fmt.Errorf("unmarshal resume %s: %w", id, err)
	}
	return fromDTO(dto), nil
}

// Delete removes a resume record. Deleting an absent resume returns
// domain.ErrNotFound.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	if err := r.store.Del(ctx, resumeKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", resumeKey(id), err)
	}
	return nil
}

// List returns a page of resumes plus the filtered total. An empty ownerID
// matches all owners; query is a case-insensitive substring over text and
// file name. Results are ordered by creation time, then ID for a stable
// tiebreak.
func (r *Repo) List(ctx context.Context, ownerID, query string, offset, limit int) ([]domres.Resume, int, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, 0, err
	}

	q := strings.ToLower(query)
	matched := make([]domres.Resume, 0, len(all))
	for _, res := range all {
		if ownerID != "" && res.OwnerID() != ownerID {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(res.RawText()), q) &&
			!strings.Contains(strings.ToLower(res.OriginalName()), q) {
			continue
		}
		matched = append(matched, res)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt().Equal(matched[j].CreatedAt()) {
			return matched[i].CreatedAt().Before(matched[j].CreatedAt())
		}
		return matched[i].ID() < matched[j].ID()
	})

	total := len(matched)
	if offset >= total {
		return []domres.Resume{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// All loads every stored resume. Used for index rebuilds at startup.
func (r *Repo) All(ctx context.Context) ([]domres.Resume, error) {
	keys, err := r.store.List(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", keyPrefix, err)
	}

	out := make([]domres.Resume, 0, len(keys))
	for _, key := range keys {
		raw, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, kv.ErrKeyNotFound) {
				continue // deleted between scan and read
			}
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		var dto resumeDTO
		if err := json.Unmarshal(raw, &dto); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", key, err)
		}
		out = append(out, fromDTO(dto))
	}
	return out, nil
}
