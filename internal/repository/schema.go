package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// schemaStatements bootstraps the four tables on startup. The applications
// check constraint backs the service-layer invariant that a decision other
// than pending only exists at the decision stage.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'unassigned'
			CHECK (role IN ('unassigned', 'employee', 'manager', 'hr')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		department TEXT NOT NULL,
		location TEXT,
		employment_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft'
			CHECK (status IN ('draft', 'open', 'closed')),
		posted_by_user_id TEXT NOT NULL REFERENCES users(id),
		hiring_manager_user_id TEXT NOT NULL REFERENCES users(id),
		opened_at TIMESTAMPTZ,
		closed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id BIGSERIAL PRIMARY KEY,
		job_id BIGINT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		applicant_user_id TEXT NOT NULL REFERENCES users(id),
		resume_url TEXT,
		cover_letter TEXT,
		stage TEXT NOT NULL DEFAULT 'applied'
			CHECK (stage IN ('applied', 'screening', 'interview', 'decision')),
		decision TEXT NOT NULL DEFAULT 'pending'
			CHECK (decision IN ('pending', 'accepted', 'rejected')),
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (job_id, applicant_user_id),
		CHECK (decision = 'pending' OR stage = 'decision')
	)`,
	`CREATE TABLE IF NOT EXISTS application_stage_events (
		id BIGSERIAL PRIMARY KEY,
		application_id BIGINT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
		from_stage TEXT NOT NULL,
		to_stage TEXT NOT NULL,
		changed_by_user_id TEXT NOT NULL REFERENCES users(id),
		note TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_hiring_manager ON jobs (hiring_manager_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_job ON applications (job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_applications_applicant ON applications (applicant_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_stage_events_application ON application_stage_events (application_id)`,
}

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	logger.Info("database schema ensured")
	return nil
}
