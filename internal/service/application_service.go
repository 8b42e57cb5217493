package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yourorg/jobboard/internal/domain"
	"github.com/yourorg/jobboard/internal/events"
	"github.com/yourorg/jobboard/internal/observability/metrics"
	"github.com/yourorg/jobboard/internal/pipeline"
	"github.com/yourorg/jobboard/internal/security"
	"github.com/yourorg/jobboard/internal/security/audit"
)

// ApplicationService orchestrates the application lifecycle: applying to
// jobs and moving applications through the hiring pipeline with an
// append-only audit trail.
type ApplicationService struct {
	apps   domain.ApplicationRepository
	jobs   domain.JobRepository
	authz  *security.AuthorizationService
	audit  *audit.Logger
	broker *events.Broker
	logger *slog.Logger
}

// NewApplicationService creates a new application service. broker may be nil
// when the live event feed is disabled.
func NewApplicationService(
	apps domain.ApplicationRepository,
	jobs domain.JobRepository,
	authz *security.AuthorizationService,
	auditLog *audit.Logger,
	broker *events.Broker,
	logger *slog.Logger,
) *ApplicationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ApplicationService{
		apps:   apps,
		jobs:   jobs,
		authz:  authz,
		audit:  auditLog,
		broker: broker,
		logger: logger,
	}
}

// ApplyInput carries an already shape-validated application payload.
type ApplyInput struct {
	ResumeURL   *string
	CoverLetter *string
}

// UpdateStageInput carries an already shape-validated stage update. Decision
// must be present exactly when ToStage is the decision stage.
type UpdateStageInput struct {
	ToStage  domain.Stage
	Decision *domain.Decision
	Note     *string
}

// StageUpdateResult pairs the updated application with its audit event.
type StageUpdateResult struct {
	Application *domain.Application
	StageEvent  *domain.ApplicationStageEvent
}

// ApplyToJob creates an application. employee only, open jobs only, at most
// one application per (job, applicant) pair.
func (s *ApplicationService) ApplyToJob(ctx context.Context, user *domain.User, jobID int64, input ApplyInput) (*domain.Application, error) {
	if err := s.authz.RequireRole(user, security.OpApplyToJob); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusOpen {
		return nil, domain.BadRequest("only open jobs can accept applications")
	}

	app := &domain.Application{
		JobID:           jobID,
		ApplicantUserID: user.ID,
		ResumeURL:       input.ResumeURL,
		CoverLetter:     input.CoverLetter,
		Stage:           domain.StageApplied,
		Decision:        domain.DecisionPending,
	}

	created, err := s.apps.Insert(ctx, app)
	if err != nil {
		return nil, domain.Internal("failed to create application", err)
	}
	if !created {
		// The unique constraint swallowed the insert: already applied.
		return nil, domain.BadRequest("you have already applied to this job")
	}

	metrics.ObserveApplicationSubmitted()
	s.audit.LogApplicationMutation(ctx, user.ID, "apply", app.ID, "created")
	return app, nil
}

// ListMyApplications returns the applicant's own applications with a job
// summary, newest-applied first.
func (s *ApplicationService) ListMyApplications(ctx context.Context, user *domain.User) ([]*domain.ApplicationWithJob, error) {
	if err := s.authz.RequireRole(user, security.OpListOwnApplications); err != nil {
		return nil, err
	}

	items, err := s.apps.ListByApplicant(ctx, user.ID)
	if err != nil {
		return nil, domain.Internal("failed to list applications", err)
	}
	return items, nil
}

// ListJobApplications returns a job's applications with applicant identity,
// newest-applied first. hr always, managers only for jobs they manage.
func (s *ApplicationService) ListJobApplications(ctx context.Context, user *domain.User, jobID int64) ([]*domain.ApplicationWithApplicant, error) {
	if err := s.authz.RequireRole(user, security.OpListJobApplications); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanManageJobApplications(user, job); err != nil {
		return nil, err
	}

	items, err := s.apps.ListByJob(ctx, jobID)
	if err != nil {
		return nil, domain.Internal("failed to list applications", err)
	}
	return items, nil
}

// UpdateStage advances an application through the pipeline. Authorization,
// transition validation, the application update and the stage-event append
// all run inside one storage transaction; nothing is written on any failure.
func (s *ApplicationService) UpdateStage(ctx context.Context, user *domain.User, applicationID int64, input UpdateStageInput) (*StageUpdateResult, error) {
	if err := s.authz.RequireRole(user, security.OpUpdateStage); err != nil {
		return nil, err
	}

	app, event, err := s.apps.TransitionStage(ctx, applicationID, user.ID, input.Note,
		func(app *domain.Application, job *domain.Job) (domain.Stage, domain.Decision, error) {
			if err := s.authz.CanManageJobApplications(user, job); err != nil {
				return "", "", err
			}
			if err := validateTransition(app.Stage, input.ToStage); err != nil {
				return "", "", err
			}

			// Decision only carries meaning at the terminal stage.
			decision := domain.DecisionPending
			if input.ToStage == domain.StageDecision {
				if input.Decision == nil {
					return "", "", domain.BadRequest("a decision is required when moving to the decision stage")
				}
				decision = *input.Decision
			}
			return input.ToStage, decision, nil
		})
	if err != nil {
		if appKind := domain.KindOf(err); appKind != domain.KindInternal {
			return nil, err
		}
		return nil, domain.Internal("failed to update application stage", err)
	}

	metrics.ObserveStageTransition(string(event.FromStage), string(event.ToStage))
	s.audit.LogApplicationMutation(ctx, user.ID, "stage_change", applicationID,
		fmt.Sprintf("%s -> %s", event.FromStage, event.ToStage))
	if s.broker != nil {
		s.broker.Publish(events.StageChanged{
			ApplicationID: app.ID,
			JobID:         app.JobID,
			FromStage:     event.FromStage,
			ToStage:       event.ToStage,
			Decision:      app.Decision,
			ChangedBy:     user.ID,
			OccurredAt:    event.CreatedAt,
		})
	}

	return &StageUpdateResult{Application: app, StageEvent: event}, nil
}

// validateTransition rejects no-op and table-violating transitions with a
// message naming the pair and the allowed next stages.
func validateTransition(from, to domain.Stage) error {
	if from == to {
		return domain.BadRequest(fmt.Sprintf("application is already in '%s' stage", to))
	}
	if !pipeline.IsValidTransition(from, to) {
		allowed := pipeline.AllowedNextStages(from)
		names := make([]string, len(allowed))
		for i, s := range allowed {
			names[i] = string(s)
		}
		joined := strings.Join(names, ", ")
		if joined == "" {
			joined = "none"
		}
		return domain.BadRequest(fmt.Sprintf(
			"invalid stage transition '%s' -> '%s'; allowed next stages: %s", from, to, joined))
	}
	return nil
}
