package domain

import (
	"context"
	"time"
)

// Stage is an application's position in the hiring pipeline.
type Stage string

const (
	StageApplied   Stage = "applied"
	StageScreening Stage = "screening"
	StageInterview Stage = "interview"
	StageDecision  Stage = "decision" // terminal
)

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageApplied, StageScreening, StageInterview, StageDecision:
		return true
	}
	return false
}

// Decision is the terminal outcome of an application. It is only meaningful
// once the application reaches the decision stage; at every other stage it
// must be pending.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// Valid reports whether d is one of the known decisions.
func (d Decision) Valid() bool {
	switch d {
	case DecisionPending, DecisionAccepted, DecisionRejected:
		return true
	}
	return false
}

// Application represents one user's application to one job.
// At most one application exists per (job, applicant) pair.
type Application struct {
	ID              int64
	JobID           int64
	ApplicantUserID string
	ResumeURL       *string
	CoverLetter     *string
	Stage           Stage
	Decision        Decision
	AppliedAt       time.Time
	UpdatedAt       time.Time
}

// ApplicationStageEvent is an immutable audit row recording one stage
// transition. Events are append-only; they are never updated or deleted.
type ApplicationStageEvent struct {
	ID              int64
	ApplicationID   int64
	FromStage       Stage
	ToStage         Stage
	ChangedByUserID string
	Note            *string
	CreatedAt       time.Time
}

// JobSummary is the job slice attached to an applicant's own application.
type JobSummary struct {
	ID             int64
	Title          string
	Department     string
	EmploymentType string
	Status         JobStatus
	Location       *string
}

// ApplicantSummary identifies the applicant on a job's application list.
type ApplicantSummary struct {
	ID       string
	Email    string
	FullName string
}

// ApplicationWithJob joins an application with a summary of its job.
type ApplicationWithJob struct {
	Application
	Job JobSummary
}

// ApplicationWithApplicant joins an application with its applicant's identity.
type ApplicationWithApplicant struct {
	Application
	Applicant ApplicantSummary
}

// StageCounts holds per-stage application counts. All four stages are always
// present, zero-valued when no applications sit in that stage.
type StageCounts struct {
	Applied   int `json:"applied"`
	Screening int `json:"screening"`
	Interview int `json:"interview"`
	Decision  int `json:"decision"`
}

// Total returns the sum across all stages.
func (c StageCounts) Total() int {
	return c.Applied + c.Screening + c.Interview + c.Decision
}

// TransitionFunc decides the target stage and decision for an application,
// given the row and its job as read inside the transaction. Returning an
// error aborts the transaction with nothing written.
type TransitionFunc func(app *Application, job *Job) (Stage, Decision, error)

// ApplicationRepository defines data access for applications and their
// stage events.
type ApplicationRepository interface {
	// Insert creates the application unless one already exists for the
	// (job, applicant) pair. It reports whether a row was created; false
	// means the applicant had already applied.
	Insert(ctx context.Context, app *Application) (bool, error)
	GetByID(ctx context.Context, id int64) (*Application, error)
	ListByApplicant(ctx context.Context, applicantUserID string) ([]*ApplicationWithJob, error)
	ListByJob(ctx context.Context, jobID int64) ([]*ApplicationWithApplicant, error)
	CountByStageForJob(ctx context.Context, jobID int64) (StageCounts, error)
	CountAll(ctx context.Context) (int, error)
	StageDistribution(ctx context.Context) (StageCounts, error)
	// TransitionStage loads the application and its job under a row lock,
	// asks decide for the target stage and decision, then updates the
	// application and appends the stage event in the same transaction.
	// Both writes commit together or neither does.
	TransitionStage(ctx context.Context, applicationID int64, actorUserID string, note *string, decide TransitionFunc) (*Application, *ApplicationStageEvent, error)
}
