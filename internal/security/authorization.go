package security

import (
	"log/slog"

	"github.com/yourorg/jobboard/internal/domain"
)

// Operation identifies a guarded service operation.
type Operation string

const (
	OpListJobs            Operation = "list_jobs"
	OpReadJob             Operation = "read_job"
	OpCreateJob           Operation = "create_job"
	OpUpdateJob           Operation = "update_job"
	OpDeleteJob           Operation = "delete_job"
	OpApplyToJob          Operation = "apply_to_job"
	OpListOwnApplications Operation = "list_own_applications"
	OpListJobApplications Operation = "list_job_applications"
	OpUpdateStage         Operation = "update_application_stage"
	OpViewDashboard       Operation = "view_hr_dashboard"
	OpStreamEvents        Operation = "stream_stage_events"
)

// OperationRoles is the static mapping from operation to the roles allowed to
// perform it. Resource-level scoping (a manager only reaching jobs they
// manage, an employee only seeing open jobs) is layered on top by the
// resource checks below.
var OperationRoles = map[Operation][]domain.Role{
	OpListJobs:            {domain.RoleHR, domain.RoleManager, domain.RoleEmployee},
	OpReadJob:             {domain.RoleHR, domain.RoleManager, domain.RoleEmployee},
	OpCreateJob:           {domain.RoleHR},
	OpUpdateJob:           {domain.RoleHR},
	OpDeleteJob:           {domain.RoleHR},
	OpApplyToJob:          {domain.RoleEmployee},
	OpListOwnApplications: {domain.RoleEmployee},
	OpListJobApplications: {domain.RoleHR, domain.RoleManager},
	OpUpdateStage:         {domain.RoleHR, domain.RoleManager},
	OpViewDashboard:       {domain.RoleHR},
	OpStreamEvents:        {domain.RoleHR},
}

// AuthorizationService decides whether a user may perform an operation,
// optionally scoped to a specific resource.
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{logger: logger}
}

// RequireRole checks that the user's role is allowed to perform op. A nil
// user is unauthorized; an authenticated user outside the role set (including
// the unassigned role) is forbidden.
func (as *AuthorizationService) RequireRole(user *domain.User, op Operation) error {
	if user == nil {
		return domain.Unauthorized("user is not authenticated")
	}
	for _, role := range OperationRoles[op] {
		if user.Role == role {
			return nil
		}
	}
	as.logger.Warn("operation denied",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
		slog.String("operation", string(op)),
	)
	return domain.Forbidden("you do not have permission to access this resource")
}

// CanReadJob checks job visibility: hr sees everything, a manager sees jobs
// they manage, an employee sees open jobs only.
func (as *AuthorizationService) CanReadJob(user *domain.User, job *domain.Job) error {
	if user == nil {
		return domain.Unauthorized("user is not authenticated")
	}
	switch user.Role {
	case domain.RoleHR:
		return nil
	case domain.RoleManager:
		if job.HiringManagerUserID == user.ID {
			return nil
		}
	case domain.RoleEmployee:
		if job.Status == domain.JobStatusOpen {
			return nil
		}
	}
	as.logger.Warn("job read denied",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
		slog.Int64("job_id", job.ID),
	)
	return domain.Forbidden("you do not have access to this job")
}

// CanManageJobApplications checks that the user may list or advance
// applications on the job: hr always, a manager only for jobs they manage.
func (as *AuthorizationService) CanManageJobApplications(user *domain.User, job *domain.Job) error {
	if user == nil {
		return domain.Unauthorized("user is not authenticated")
	}
	if user.Role == domain.RoleHR {
		return nil
	}
	if user.Role == domain.RoleManager && job.HiringManagerUserID == user.ID {
		return nil
	}
	as.logger.Warn("application management denied",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
		slog.Int64("job_id", job.ID),
	)
	return domain.Forbidden("you do not have access to applications for this job")
}

// ScopeJobList narrows a caller-supplied filter to what the user's role may
// see: employees to open jobs, managers to jobs they manage, hr unfiltered.
// Caller-supplied filters are ANDed on top of the role scope. The second
// return reports whether the combined predicates can match anything at all;
// false means the caller gets an empty list, not an error.
func (as *AuthorizationService) ScopeJobList(user *domain.User, filter domain.JobFilter) (domain.JobFilter, bool, error) {
	if user == nil {
		return domain.JobFilter{}, false, domain.Unauthorized("user is not authenticated")
	}
	switch user.Role {
	case domain.RoleHR:
		return filter, true, nil
	case domain.RoleManager:
		id := user.ID
		filter.HiringManagerUserID = &id
		return filter, true, nil
	case domain.RoleEmployee:
		if filter.Status != nil && *filter.Status != domain.JobStatusOpen {
			// open AND the requested status cannot both hold.
			return domain.JobFilter{}, false, nil
		}
		open := domain.JobStatusOpen
		filter.Status = &open
		return filter, true, nil
	}
	as.logger.Warn("job listing denied",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return domain.JobFilter{}, false, domain.Forbidden("assigned role required")
}
