package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/jobboard/internal/domain"
)

// PostgresJobRepository implements domain.JobRepository using PostgreSQL
type PostgresJobRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresJobRepository creates a new job repository
func NewPostgresJobRepository(db *sql.DB, logger *slog.Logger) *PostgresJobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobRepository{db: db, logger: logger}
}

const jobColumns = `id, title, description, department, location, employment_type,
	status, posted_by_user_id, hiring_manager_user_id, opened_at, closed_at,
	created_at, updated_at`

// Create inserts a new job and fills in generated fields
func (r *PostgresJobRepository) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (title, description, department, location, employment_type,
			status, posted_by_user_id, hiring_manager_user_id, opened_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		job.Title,
		job.Description,
		job.Department,
		job.Location,
		job.EmploymentType,
		job.Status,
		job.PostedByUserID,
		job.HiringManagerUserID,
		job.OpenedAt,
		job.ClosedAt,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create job",
			slog.String("title", job.Title),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetByID retrieves a job by ID
func (r *PostgresJobRepository) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job := &domain.Job{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.Title,
		&job.Description,
		&job.Department,
		&job.Location,
		&job.EmploymentType,
		&job.Status,
		&job.PostedByUserID,
		&job.HiringManagerUserID,
		&job.OpenedAt,
		&job.ClosedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("job not found")
		}
		r.logger.Error("failed to get job",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// Update rewrites a job row
func (r *PostgresJobRepository) Update(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE jobs
		SET title = $1, description = $2, department = $3, location = $4,
			employment_type = $5, status = $6, hiring_manager_user_id = $7,
			opened_at = $8, closed_at = $9, updated_at = now()
		WHERE id = $10
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		job.Title,
		job.Description,
		job.Department,
		job.Location,
		job.EmploymentType,
		job.Status,
		job.HiringManagerUserID,
		job.OpenedAt,
		job.ClosedAt,
		job.ID,
	).Scan(&job.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("job not found")
		}
		return fmt.Errorf("failed to update job: %w", err)
	}

	return nil
}

// Delete hard-deletes a job
func (r *PostgresJobRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.NotFound("job not found")
	}

	return nil
}

// List returns jobs matching the filter, newest first
func (r *PostgresJobRepository) List(ctx context.Context, filter domain.JobFilter) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		query += fmt.Sprintf(" AND department = $%d", len(args))
	}
	if filter.HiringManagerUserID != nil {
		args = append(args, *filter.HiringManagerUserID)
		query += fmt.Sprintf(" AND hiring_manager_user_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list jobs", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job := &domain.Job{}
		err := rows.Scan(
			&job.ID,
			&job.Title,
			&job.Description,
			&job.Department,
			&job.Location,
			&job.EmploymentType,
			&job.Status,
			&job.PostedByUserID,
			&job.HiringManagerUserID,
			&job.OpenedAt,
			&job.ClosedAt,
			&job.CreatedAt,
			&job.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

// CountByStatus counts jobs with the given status
func (r *PostgresJobRepository) CountByStatus(ctx context.Context, status domain.JobStatus) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM jobs WHERE status = $1`, status).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return total, nil
}
