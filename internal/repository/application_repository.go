package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/yourorg/jobboard/internal/domain"
)

// PostgresApplicationRepository implements domain.ApplicationRepository
// using PostgreSQL
type PostgresApplicationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresApplicationRepository creates a new application repository
func NewPostgresApplicationRepository(db *sql.DB, logger *slog.Logger) *PostgresApplicationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresApplicationRepository{db: db, logger: logger}
}

const applicationColumns = `id, job_id, applicant_user_id, resume_url, cover_letter,
	stage, decision, applied_at, updated_at`

// Insert creates an application unless one already exists for the
// (job, applicant) pair. The unique constraint resolves concurrent applies:
// exactly one insert wins and every loser observes created=false.
func (r *PostgresApplicationRepository) Insert(ctx context.Context, app *domain.Application) (bool, error) {
	query := `
		INSERT INTO applications (job_id, applicant_user_id, resume_url, cover_letter, stage, decision)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (job_id, applicant_user_id) DO NOTHING
		RETURNING id, applied_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		app.JobID,
		app.ApplicantUserID,
		app.ResumeURL,
		app.CoverLetter,
		app.Stage,
		app.Decision,
	).Scan(&app.ID, &app.AppliedAt, &app.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict: the insert produced no row.
			return false, nil
		}
		// Job deleted between the service's existence check and this insert.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return false, domain.NotFound("job not found")
		}
		r.logger.Error("failed to insert application",
			slog.Int64("job_id", app.JobID),
			slog.String("applicant", app.ApplicantUserID),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("failed to insert application: %w", err)
	}

	return true, nil
}

// GetByID retrieves an application by ID
func (r *PostgresApplicationRepository) GetByID(ctx context.Context, id int64) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	app := &domain.Application{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&app.ID,
		&app.JobID,
		&app.ApplicantUserID,
		&app.ResumeURL,
		&app.CoverLetter,
		&app.Stage,
		&app.Decision,
		&app.AppliedAt,
		&app.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("application not found")
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return app, nil
}

// ListByApplicant returns an applicant's own applications joined with a job
// summary, newest-applied first
func (r *PostgresApplicationRepository) ListByApplicant(ctx context.Context, applicantUserID string) ([]*domain.ApplicationWithJob, error) {
	query := `
		SELECT a.id, a.job_id, a.applicant_user_id, a.resume_url, a.cover_letter,
			a.stage, a.decision, a.applied_at, a.updated_at,
			j.id, j.title, j.department, j.employment_type, j.status, j.location
		FROM applications a
		INNER JOIN jobs j ON j.id = a.job_id
		WHERE a.applicant_user_id = $1
		ORDER BY a.applied_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, applicantUserID)
	if err != nil {
		r.logger.Error("failed to list applications by applicant",
			slog.String("applicant", applicantUserID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var out []*domain.ApplicationWithJob
	for rows.Next() {
		item := &domain.ApplicationWithJob{}
		err := rows.Scan(
			&item.ID,
			&item.JobID,
			&item.ApplicantUserID,
			&item.ResumeURL,
			&item.CoverLetter,
			&item.Stage,
			&item.Decision,
			&item.AppliedAt,
			&item.UpdatedAt,
			&item.Job.ID,
			&item.Job.Title,
			&item.Job.Department,
			&item.Job.EmploymentType,
			&item.Job.Status,
			&item.Job.Location,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		out = append(out, item)
	}

	return out, rows.Err()
}

// ListByJob returns a job's applications joined with applicant identity,
// newest-applied first
func (r *PostgresApplicationRepository) ListByJob(ctx context.Context, jobID int64) ([]*domain.ApplicationWithApplicant, error) {
	query := `
		SELECT a.id, a.job_id, a.applicant_user_id, a.resume_url, a.cover_letter,
			a.stage, a.decision, a.applied_at, a.updated_at,
			u.id, u.email, u.full_name
		FROM applications a
		INNER JOIN users u ON u.id = a.applicant_user_id
		WHERE a.job_id = $1
		ORDER BY a.applied_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		r.logger.Error("failed to list applications by job",
			slog.Int64("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var out []*domain.ApplicationWithApplicant
	for rows.Next() {
		item := &domain.ApplicationWithApplicant{}
		err := rows.Scan(
			&item.ID,
			&item.JobID,
			&item.ApplicantUserID,
			&item.ResumeURL,
			&item.CoverLetter,
			&item.Stage,
			&item.Decision,
			&item.AppliedAt,
			&item.UpdatedAt,
			&item.Applicant.ID,
			&item.Applicant.Email,
			&item.Applicant.FullName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		out = append(out, item)
	}

	return out, rows.Err()
}

// CountByStageForJob returns per-stage application counts for one job
func (r *PostgresApplicationRepository) CountByStageForJob(ctx context.Context, jobID int64) (domain.StageCounts, error) {
	query := `SELECT stage, count(*) FROM applications WHERE job_id = $1 GROUP BY stage`
	return r.stageCounts(ctx, query, jobID)
}

// StageDistribution returns per-stage application counts across all jobs
func (r *PostgresApplicationRepository) StageDistribution(ctx context.Context) (domain.StageCounts, error) {
	query := `SELECT stage, count(*) FROM applications GROUP BY stage`
	return r.stageCounts(ctx, query)
}

func (r *PostgresApplicationRepository) stageCounts(ctx context.Context, query string, args ...any) (domain.StageCounts, error) {
	counts := domain.StageCounts{}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return counts, fmt.Errorf("failed to count applications by stage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stage domain.Stage
		var total int
		if err := rows.Scan(&stage, &total); err != nil {
			return counts, fmt.Errorf("failed to scan stage count: %w", err)
		}
		switch stage {
		case domain.StageApplied:
			counts.Applied = total
		case domain.StageScreening:
			counts.Screening = total
		case domain.StageInterview:
			counts.Interview = total
		case domain.StageDecision:
			counts.Decision = total
		}
	}

	return counts, rows.Err()
}

// CountAll counts all applications
func (r *PostgresApplicationRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM applications`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return total, nil
}

// TransitionStage advances an application inside a single transaction: the
// row is locked, decide picks the target stage and decision, then the update
// and the stage-event insert commit together or not at all. Concurrent
// transitions for the same application serialize on the row lock, so the
// second caller re-reads post-commit state and fails transition validation.
func (r *PostgresApplicationRepository) TransitionStage(
	ctx context.Context,
	applicationID int64,
	actorUserID string,
	note *string,
	decide domain.TransitionFunc,
) (*domain.Application, *domain.ApplicationStageEvent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	app := &domain.Application{}
	job := &domain.Job{}
	lockQuery := `
		SELECT a.id, a.job_id, a.applicant_user_id, a.resume_url, a.cover_letter,
			a.stage, a.decision, a.applied_at, a.updated_at,
			j.id, j.status, j.hiring_manager_user_id
		FROM applications a
		INNER JOIN jobs j ON j.id = a.job_id
		WHERE a.id = $1
		FOR UPDATE OF a
	`
	err = tx.QueryRowContext(ctx, lockQuery, applicationID).Scan(
		&app.ID,
		&app.JobID,
		&app.ApplicantUserID,
		&app.ResumeURL,
		&app.CoverLetter,
		&app.Stage,
		&app.Decision,
		&app.AppliedAt,
		&app.UpdatedAt,
		&job.ID,
		&job.Status,
		&job.HiringManagerUserID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.NotFound("application not found")
		}
		return nil, nil, fmt.Errorf("failed to load application: %w", err)
	}

	fromStage := app.Stage
	toStage, decision, err := decide(app, job)
	if err != nil {
		return nil, nil, err
	}

	updateQuery := `
		UPDATE applications
		SET stage = $1, decision = $2, updated_at = now()
		WHERE id = $3
		RETURNING updated_at
	`
	if err := tx.QueryRowContext(ctx, updateQuery, toStage, decision, applicationID).Scan(&app.UpdatedAt); err != nil {
		return nil, nil, fmt.Errorf("failed to update application stage: %w", err)
	}
	app.Stage = toStage
	app.Decision = decision

	event := &domain.ApplicationStageEvent{
		ApplicationID:   applicationID,
		FromStage:       fromStage,
		ToStage:         toStage,
		ChangedByUserID: actorUserID,
		Note:            note,
	}
	eventQuery := `
		INSERT INTO application_stage_events (application_id, from_stage, to_stage, changed_by_user_id, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err = tx.QueryRowContext(
		ctx,
		eventQuery,
		event.ApplicationID,
		event.FromStage,
		event.ToStage,
		event.ChangedByUserID,
		event.Note,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert stage event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit stage transition: %w", err)
	}

	r.logger.Info("application stage advanced",
		slog.Int64("application_id", applicationID),
		slog.String("from", string(fromStage)),
		slog.String("to", string(toStage)),
		slog.String("actor", actorUserID),
	)

	return app, event, nil
}
