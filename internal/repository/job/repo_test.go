package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	domjob "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/job"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/kv/memory"
)

func newJob(t *testing.T, id string, createdAt time.Time) domjob.Job {
	t.Helper()
	j, err := domjob.New(id, "hr", "Backend Engineer", "Build services", []string{"Go", "Redis"}, createdAt)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	return j
}

func TestSaveGetRoundTrip(t *testing.T) {
	repo := New(memory.NewStore())
	ctx := context.Background()
	want := newJob(t, "job-1", time.Unix(1_700_000_000, 0).UTC())

	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title() != "Backend Engineer" || len(got.Requirements()) != 2 {
		t.Errorf("job not rehydrated: %+v", got)
	}
	if got.OwnerID() != "hr" {
		t.Errorf("owner = %q", got.OwnerID())
	}
}

func TestGet_Missing(t *testing.T) {
	repo := New(memory.NewStore())
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestList_OrderAndPagination(t *testing.T) {
	repo := New(memory.NewStore())
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0).UTC()

	_ = repo.Save(ctx, newJob(t, "job-b", base.Add(time.Second)))
	_ = repo.Save(ctx, newJob(t, "job-a", base.Add(2*time.Second)))
	_ = repo.Save(ctx, newJob(t, "job-c", base.Add(time.Second)))

	jobs, total, err := repo.List(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d", total)
	}
	// Same timestamp ties break on ID.
	gotOrder := []string{jobs[0].ID(), jobs[1].ID(), jobs[2].ID()}
	wantOrder := []string{"job-b", "job-c", "job-a"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("order = %v, want %v", gotOrder, wantOrder)
		}
	}

	page, total, _ := repo.List(ctx, 2, 2)
	if total != 3 || len(page) != 1 || page[0].ID() != "job-a" {
		t.Errorf("page = %v total = %d", page, total)
	}
}
