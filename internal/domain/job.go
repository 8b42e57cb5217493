package domain

import (
	"context"
	"time"
)

// JobStatus is the lifecycle status of a job posting.
// Transitions are one-directional: draft -> open -> closed.
type JobStatus string

const (
	JobStatusDraft  JobStatus = "draft"
	JobStatusOpen   JobStatus = "open"
	JobStatusClosed JobStatus = "closed"
)

// Valid reports whether s is one of the known job statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusDraft, JobStatusOpen, JobStatusClosed:
		return true
	}
	return false
}

// Job represents a job posting. Posted by an hr user, managed by a
// manager-role user (the hiring manager).
type Job struct {
	ID                  int64
	Title               string
	Description         string
	Department          string
	Location            *string
	EmploymentType      string
	Status              JobStatus
	PostedByUserID      string
	HiringManagerUserID string
	OpenedAt            *time.Time // set when the job first transitions into open
	ClosedAt            *time.Time // set when the job transitions into closed
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// JobFilter narrows a job listing. Nil fields are ignored.
type JobFilter struct {
	Status              *JobStatus
	Department          *string
	HiringManagerUserID *string
}

// JobRepository defines data access for jobs
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id int64) (*Job, error)
	Update(ctx context.Context, job *Job) error
	Delete(ctx context.Context, id int64) error
	// List returns jobs matching the filter, newest first.
	List(ctx context.Context, filter JobFilter) ([]*Job, error)
	CountByStatus(ctx context.Context, status JobStatus) (int, error)
}
