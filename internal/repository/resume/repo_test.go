package resume

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/chunk"
	domres "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/resume"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/kv/memory"
)

func newResume(t *testing.T, id, owner, text string, createdAt time.Time) domres.Resume {
	t.Helper()
	c, err := chunk.New(id+":0000", id, owner, text, []float32{1, 0}, 0)
	if err != nil {
		t.Fatalf("new chunk: %v", err)
	}
	r, err := domres.New(id, owner, id+".txt", text, domres.Metadata{
		Skills:  []string{"go"},
		Contact: domres.ContactInfo{Email: "a@b.co"},
	}, []chunk.Chunk{c}, createdAt)
	if err != nil {
		t.Fatalf("new resume: %v", err)
	}
	return r
}

func TestSaveGetRoundTrip(t *testing.T) {
	repo := New(memory.NewStore())
	ctx := context.Background()
	want := newResume(t, "res-1", "alice", "Go engineer with Redis experience", time.Unix(1_700_000_000, 0).UTC())

	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Get(ctx, "res-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.ID() != want.ID() || got.OwnerID() != want.OwnerID() {
		t.Errorf("identity mismatch: %s/%s", got.ID(), got.OwnerID())
	}
	if got.RawText() != want.RawText() {
		t.Errorf("raw text mismatch: %q", got.RawText())
	}
	if got.Metadata().Contact.Email != "a@b.co" {
		t.Errorf("contact lost: %+v", got.Metadata().Contact)
	}
	if len(got.Chunks()) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got.Chunks()))
	}
	gc := got.Chunks()[0]
	if gc.ID() != "res-1:0000" || gc.OwnerID() != "alice" || len(gc.Embedding()) != 2 {
		t.Errorf("chunk not rehydrated: id=%s owner=%s emb=%v", gc.ID(), gc.OwnerID(), gc.Embedding())
	}
	if !got.CreatedAt().Equal(want.CreatedAt()) {
		t.Errorf("created at mismatch: %v", got.CreatedAt())
	}
}

func TestGet_Missing(t *testing.T) {
	repo := New(memory.NewStore())
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := New(memory.NewStore())
	ctx := context.Background()
	_ = repo.Save(ctx, newResume(t, "res-1", "alice", "text", time.Now()))

	if err := repo.Delete(ctx, "res-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "res-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, "res-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("double delete should be ErrNotFound, got %v", err)
	}
}

func TestList_FilterPaginationOrdering(t *testing.T) {
	repo := New(memory.NewStore())
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0).UTC()

	_ = repo.Save(ctx, newResume(t, "res-b", "alice", "senior golang developer", base.Add(2*time.Second)))
	_ = repo.Save(ctx, newResume(t, "res-a", "alice", "python data scientist", base.Add(time.Second)))
	_ = repo.Save(ctx, newResume(t, "res-c", "bob", "golang platform engineer", base.Add(3*time.Second)))

	// Owner filter plus ordering by creation time.
	items, total, err := repo.List(ctx, "alice", "", 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("expected 2 alice resumes, got total=%d len=%d", total, len(items))
	}
	if items[0].ID() != "res-a" || items[1].ID() != "res-b" {
		t.Errorf("wrong order: %s, %s", items[0].ID(), items[1].ID())
	}

	// Substring query across all owners.
	items, total, err = repo.List(ctx, "", "GOLANG", 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 golang matches, got %d", total)
	}

	// Pagination window.
	items, total, _ = repo.List(ctx, "", "", 1, 1)
	if total != 3 || len(items) != 1 || items[0].ID() != "res-b" {
		t.Errorf("page window wrong: total=%d items=%v", total, items)
	}

	// Offset beyond the end yields an empty page, not an error.
	items, total, _ = repo.List(ctx, "", "", 10, 5)
	if total != 3 || len(items) != 0 {
		t.Errorf("expected empty page with total=3, got total=%d len=%d", total, len(items))
	}
}
