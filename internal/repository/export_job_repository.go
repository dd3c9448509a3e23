package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-backoffice-api/internal/models"
)

// ExportJobRepository tracks asynchronous export jobs.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository constructs an ExportJobRepository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create inserts a new export job record.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	const query = `INSERT INTO export_jobs (id, type, format, status, progress, result_path, error, requested_by, created_at, updated_at)
        VALUES (:id, :type, :format, :status, :progress, :result_path, :error, :requested_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID fetches an export job by ID.
func (r *ExportJobRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	const query = `SELECT id, type, format, status, progress, result_path, error, requested_by, created_at, updated_at
        FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateProgress sets the status and progress percentage.
func (r *ExportJobRepository) UpdateProgress(ctx context.Context, id string, status models.ExportStatus, progress int) error {
	const query = `UPDATE export_jobs SET status = $2, progress = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, progress, time.Now().UTC()); err != nil {
		return fmt.Errorf("update export job progress: %w", err)
	}
	return nil
}

// MarkFinished records the result artifact path and completes the job.
func (r *ExportJobRepository) MarkFinished(ctx context.Context, id, resultPath string) error {
	const query = `UPDATE export_jobs SET status = $2, progress = 100, result_path = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusFinished, resultPath, time.Now().UTC()); err != nil {
		return fmt.Errorf("finish export job: %w", err)
	}
	return nil
}

// MarkFailed records the failure reason.
func (r *ExportJobRepository) MarkFailed(ctx context.Context, id, reason string) error {
	const query = `UPDATE export_jobs SET status = $2, error = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ExportStatusFailed, reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("fail export job: %w", err)
	}
	return nil
}

// ListByUser returns a user's recent export jobs, newest first.
func (r *ExportJobRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ExportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT id, type, format, status, progress, result_path, error, requested_by, created_at, updated_at
        FROM export_jobs WHERE requested_by = $1 ORDER BY created_at DESC LIMIT %d`, limit)
	var jobs []models.ExportJob
	if err := r.db.SelectContext(ctx, &jobs, query, userID); err != nil {
		return nil, fmt.Errorf("list export jobs: %w", err)
	}
	return jobs, nil
}
