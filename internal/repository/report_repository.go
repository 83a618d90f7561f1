package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sparc-center/sparc-api/internal/models"
)

// ReportRepository tracks progress-report generation jobs.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create persists a queued report job.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.ReportJobStatusQueued
	}
	const query = `INSERT INTO report_jobs (id, student_id, status, file_path, error, requested_by, created_at, updated_at)
        VALUES (:id, :student_id, :status, :file_path, :error, :requested_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return wrapPgError(err, "create report job")
	}
	return nil
}

// FindByID returns a report job by id.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	const query = `SELECT id, student_id, status, file_path, error, requested_by, created_at, updated_at
        FROM report_jobs WHERE id = $1`
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkProcessing flips a queued job to processing.
func (r *ReportRepository) MarkProcessing(ctx context.Context, id string) error {
	const query = `UPDATE report_jobs SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportJobStatusProcessing, time.Now().UTC()); err != nil {
		return wrapPgError(err, "mark report processing")
	}
	return nil
}

// MarkCompleted records the generated file path.
func (r *ReportRepository) MarkCompleted(ctx context.Context, id, filePath string) error {
	const query = `UPDATE report_jobs SET status = $2, file_path = $3, error = NULL, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportJobStatusCompleted, filePath, time.Now().UTC()); err != nil {
		return wrapPgError(err, "mark report completed")
	}
	return nil
}

// MarkFailed records the failure reason.
func (r *ReportRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `UPDATE report_jobs SET status = $2, error = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ReportJobStatusFailed, reason, time.Now().UTC()); err != nil {
		return wrapPgError(err, "mark report failed")
	}
	return nil
}
