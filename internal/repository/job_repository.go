// internal/repository/job_repository.go
package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/database"
	"printer-service/internal/model"
	"printer-service/internal/utils"
)

// jobRepository implements JobRepository on postgres
type jobRepository struct {
	db     *database.DB
	logger *utils.ServiceLogger
}

// NewJobRepository creates a postgres-backed job journal
func NewJobRepository(db *database.DB, logger *zap.Logger) JobRepository {
	return &jobRepository{
		db:     db,
		logger: utils.NewServiceLogger(logger, "job-repository"),
	}
}

// Create records a job
func (r *jobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	query := `
		INSERT INTO print_jobs (
			id, kind, request_type, bytes, status, error_message, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	args := []interface{}{
		job.ID, job.Kind, job.RequestType, job.Bytes,
		job.Status, job.ErrorMessage, job.DurationMs, job.CreatedAt,
	}

	start := time.Now()
	_, err := r.db.ExecContext(ctx, query, args...)
	r.logger.LogDatabaseQuery(query, args, time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to create print job: %w", err)
	}
	return nil
}

// List returns the most recent jobs first
func (r *jobRepository) List(ctx context.Context, limit int) ([]*model.PrintJob, error) {
	query := `
		SELECT id, kind, request_type, bytes, status, error_message, duration_ms, created_at
		FROM print_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list print jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.PrintJob
	for rows.Next() {
		job := &model.PrintJob{}
		if err := rows.Scan(
			&job.ID, &job.Kind, &job.RequestType, &job.Bytes,
			&job.Status, &job.ErrorMessage, &job.DurationMs, &job.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan print job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate print jobs: %w", err)
	}

	return jobs, nil
}

// Stats aggregates the whole journal
func (r *jobRepository) Stats(ctx context.Context) (*JobStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = $2),
			COALESCE(SUM(bytes) FILTER (WHERE status = $1), 0)
		FROM print_jobs
	`

	stats := &JobStats{}
	err := r.db.QueryRowContext(ctx, query, model.JobStatusSuccess, model.JobStatusFailed).Scan(
		&stats.Total, &stats.Succeeded, &stats.Failed, &stats.BytesWritten,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get print job stats: %w", err)
	}

	return stats, nil
}
