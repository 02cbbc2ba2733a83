package job

import (
	"context"

	domjob "github.com/Abhinavkrtiwari/ResumeRAG/internal/domain/job"
)

// Repository defines the storage contract for job postings.
type Repository interface {
	Save(ctx context.Context, j domjob.Job) error
	Get(ctx context.Context, id string) (domjob.Job, error)
	List(ctx context.Context, offset, limit int) ([]domjob.Job, int, error)
}
