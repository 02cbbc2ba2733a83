// Package job defines the job posting aggregate.
package job

import (
	"strings"
	"time"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
)

// Job is a job posting with its requirement list.
type Job struct {
	id           string
	ownerID      string
	title        string
	description  string
	requirements []string
	createdAt    time.Time
}

// New validates and creates a Job. Blank requirement entries are rejected
// so the requirement list can be partitioned cleanly during matching.
func New(id, ownerID, title, description string, requirements []string, createdAt time.Time) (Job, error) {
	if id == "" || ownerID == "" {
		return Job{}, domain.NewValidation("", "job identity is required")
	}
	if strings.TrimSpace(title) == "" {
		return Job{}, domain.NewValidation("title", "title is required")
	}
	if strings.TrimSpace(description) == "" {
		return Job{}, domain.NewValidation("description", "description is required")
	}
	if len(requirements) == 0 {
		return Job{}, domain.NewValidation("requirements", "at least one requirement is required")
	}
	for _, req := range requirements {
		if strings.TrimSpace(req) == "" {
			return Job{}, domain.NewValidation("requirements", "requirement entries must be non-empty")
		}
	}
	return Job{
		id:           id,
		ownerID:      ownerID,
		title:        title,
		description:  description,
		requirements: append([]string(nil), requirements...),
		createdAt:    createdAt,
	}, nil
}

// Reconstruct creates a Job without validation (storage hydration).
func Reconstruct(id, ownerID, title, description string, requirements []string, createdAt time.Time) Job {
	return Job{
		id: id, ownerID: ownerID, title: title, description: description,
		requirements: requirements, createdAt: createdAt,
	}
}

// ID returns the job identifier.
func (j *Job) ID() string { return j.id }

// OwnerID returns the owning principal's identifier.
func (j *Job) OwnerID() string { return j.ownerID }

// Title returns the job title.
func (j *Job) Title() string { return j.title }

// Description returns the job description.
func (j *Job) Description() string { return j.description }

// Requirements returns the requirement list in posting order.
func (j *Job) Requirements() []string { return j.requirements }

// CreatedAt returns the creation timestamp.
func (j *Job) CreatedAt() time.Time { return j.createdAt }
