package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/jobboard/internal/domain"
	"github.com/yourorg/jobboard/internal/observability/metrics"
	"github.com/yourorg/jobboard/internal/security"
	"github.com/yourorg/jobboard/internal/security/audit"
)

// JobService orchestrates job CRUD over the relational store, enforcing the
// authorization policy and the one-directional status lifecycle.
type JobService struct {
	jobs   domain.JobRepository
	users  domain.UserRepository
	apps   domain.ApplicationRepository
	authz  *security.AuthorizationService
	audit  *audit.Logger
	logger *slog.Logger
}

// NewJobService creates a new job service
func NewJobService(
	jobs domain.JobRepository,
	users domain.UserRepository,
	apps domain.ApplicationRepository,
	authz *security.AuthorizationService,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{
		jobs:   jobs,
		users:  users,
		apps:   apps,
		authz:  authz,
		audit:  auditLog,
		logger: logger,
	}
}

// CreateJobInput carries an already shape-validated create payload.
type CreateJobInput struct {
	Title               string
	Description         string
	Department          string
	Location            *string
	EmploymentType      string
	Status              domain.JobStatus
	HiringManagerUserID string
}

// UpdateJobInput carries a partial update; nil fields are left unchanged.
type UpdateJobInput struct {
	Title               *string
	Description         *string
	Department          *string
	Location            *string
	EmploymentType      *string
	Status              *domain.JobStatus
	HiringManagerUserID *string
}

// Empty reports whether no field is present.
func (in UpdateJobInput) Empty() bool {
	return in.Title == nil && in.Description == nil && in.Department == nil &&
		in.Location == nil && in.EmploymentType == nil && in.Status == nil &&
		in.HiringManagerUserID == nil
}

// JobDetails is a job together with its per-stage application counts.
type JobDetails struct {
	Job               *domain.Job
	ApplicationCounts domain.StageCounts
}

// CreateJob creates a job posting. hr only; the hiring manager reference
// must resolve to an existing manager-role user.
func (s *JobService) CreateJob(ctx context.Context, user *domain.User, input CreateJobInput) (*domain.Job, error) {
	if err := s.authz.RequireRole(user, security.OpCreateJob); err != nil {
		return nil, err
	}
	if err := s.resolveManager(ctx, input.HiringManagerUserID); err != nil {
		return nil, err
	}

	openedAt, closedAt := computeStatusTimestamps(input.Status, nil)
	job := &domain.Job{
		Title:               input.Title,
		Description:         input.Description,
		Department:          input.Department,
		Location:            input.Location,
		EmploymentType:      input.EmploymentType,
		Status:              input.Status,
		PostedByUserID:      user.ID,
		HiringManagerUserID: input.HiringManagerUserID,
		OpenedAt:            openedAt,
		ClosedAt:            closedAt,
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, domain.Internal("failed to create job", err)
	}

	metrics.ObserveJobCreated(string(job.Status))
	if job.Status == domain.JobStatusOpen {
		s.refreshOpenJobsGauge(ctx)
	}
	s.audit.LogJobMutation(ctx, user.ID, "create", job.ID, "created")
	return job, nil
}

// UpdateJob applies a partial update to a job. hr only; at least one field
// must be present.
func (s *JobService) UpdateJob(ctx context.Context, user *domain.User, id int64, input UpdateJobInput) (*domain.Job, error) {
	if err := s.authz.RequireRole(user, security.OpUpdateJob); err != nil {
		return nil, err
	}
	if input.Empty() {
		return nil, domain.BadRequest("at least one field is required for update")
	}

	existing, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.HiringManagerUserID != nil && *input.HiringManagerUserID != existing.HiringManagerUserID {
		if err := s.resolveManager(ctx, *input.HiringManagerUserID); err != nil {
			return nil, err
		}
	}

	if input.Title != nil {
		existing.Title = *input.Title
	}
	if input.Description != nil {
		existing.Description = *input.Description
	}
	if input.Department != nil {
		existing.Department = *input.Department
	}
	if input.Location != nil {
		existing.Location = input.Location
	}
	if input.EmploymentType != nil {
		existing.EmploymentType = *input.EmploymentType
	}
	if input.HiringManagerUserID != nil {
		existing.HiringManagerUserID = *input.HiringManagerUserID
	}

	nextStatus := existing.Status
	if input.Status != nil {
		nextStatus = *input.Status
	}
	existing.OpenedAt, existing.ClosedAt = computeStatusTimestamps(nextStatus, existing)
	existing.Status = nextStatus

	if err := s.jobs.Update(ctx, existing); err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, err
		}
		return nil, domain.Internal("failed to update job", err)
	}

	if input.Status != nil {
		s.refreshOpenJobsGauge(ctx)
	}
	s.audit.LogJobMutation(ctx, user.ID, "update", existing.ID, "updated")
	return existing, nil
}

// DeleteJob hard-deletes a draft job. Jobs that ever accepted applicants are
// never draft, so applicant history cannot be destroyed this way.
func (s *JobService) DeleteJob(ctx context.Context, user *domain.User, id int64) error {
	if err := s.authz.RequireRole(user, security.OpDeleteJob); err != nil {
		return err
	}

	existing, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status != domain.JobStatusDraft {
		return domain.BadRequest("only draft jobs can be deleted")
	}

	if err := s.jobs.Delete(ctx, id); err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return err
		}
		return domain.Internal("failed to delete job", err)
	}

	s.audit.LogJobMutation(ctx, user.ID, "delete", id, "deleted")
	return nil
}

// ListJobs returns jobs visible to the user, newest first. Caller filters
// are ANDed on top of the role scope.
func (s *JobService) ListJobs(ctx context.Context, user *domain.User, filter domain.JobFilter) ([]*domain.Job, error) {
	if err := s.authz.RequireRole(user, security.OpListJobs); err != nil {
		return nil, err
	}

	scoped, ok, err := s.authz.ScopeJobList(user, filter)
	if err != nil {
		return nil, err
	}
	if !ok {
		// The role scope and the requested filter cannot intersect.
		return []*domain.Job{}, nil
	}

	jobs, err := s.jobs.List(ctx, scoped)
	if err != nil {
		return nil, domain.Internal("failed to list jobs", err)
	}
	return jobs, nil
}

// GetJobByID returns one job with its per-stage application counts, subject
// to the visibility policy.
func (s *JobService) GetJobByID(ctx context.Context, user *domain.User, id int64) (*JobDetails, error) {
	if err := s.authz.RequireRole(user, security.OpReadJob); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanReadJob(user, job); err != nil {
		return nil, err
	}

	counts, err := s.apps.CountByStageForJob(ctx, id)
	if err != nil {
		return nil, domain.Internal("failed to count applications", err)
	}

	return &JobDetails{Job: job, ApplicationCounts: counts}, nil
}

// refreshOpenJobsGauge recounts open postings after a status-changing write.
// Best effort; the dashboard read path refreshes it too.
func (s *JobService) refreshOpenJobsGauge(ctx context.Context) {
	n, err := s.jobs.CountByStatus(ctx, domain.JobStatusOpen)
	if err != nil {
		s.logger.Warn("failed to refresh open jobs gauge", slog.String("error", err.Error()))
		return
	}
	metrics.SetOpenJobs(n)
}

// resolveManager checks that the hiring manager reference points at an
// existing manager-role user.
func (s *JobService) resolveManager(ctx context.Context, userID string) error {
	manager, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return domain.BadRequest("hiring manager user does not exist")
		}
		return domain.Internal("failed to resolve hiring manager", err)
	}
	if manager.Role != domain.RoleManager {
		return domain.BadRequest(fmt.Sprintf("hiring manager must be a manager-role user, got %s", manager.Role))
	}
	return nil
}

// computeStatusTimestamps applies the lifecycle timestamp rules. With no
// existing row this is the create path; otherwise it is an update against
// the stored status.
func computeStatusTimestamps(next domain.JobStatus, existing *domain.Job) (openedAt, closedAt *time.Time) {
	now := time.Now()

	if existing == nil {
		switch next {
		case domain.JobStatusOpen:
			return &now, nil
		case domain.JobStatusClosed:
			return nil, &now
		}
		return nil, nil
	}

	switch next {
	case domain.JobStatusOpen:
		if existing.Status == domain.JobStatusOpen {
			return existing.OpenedAt, existing.ClosedAt
		}
		return &now, nil
	case domain.JobStatusClosed:
		if existing.Status == domain.JobStatusClosed {
			return existing.OpenedAt, existing.ClosedAt
		}
		return existing.OpenedAt, &now
	}
	return nil, nil
}
