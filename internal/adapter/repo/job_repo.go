package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"brandstudio/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (id, business_id, status, prompt, aspect_ratio, style_id, subject_id, model_tier, result_asset_id, error_message)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.BusinessID,
		job.Status,
		job.Prompt,
		job.AspectRatio,
		job.StyleID,
		job.SubjectID,
		job.ModelTier,
		job.ResultAssetID,
		job.ErrorMessage,
	)
	return err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := selectJobColumns + `
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// MarkCompleted records the terminal completed state and the produced
// asset id. The status guard keeps the row single-writer: a terminal
// row is never rewritten, and a lost race surfaces as ErrJobSettled.
func (r *JobRepositoryPG) MarkCompleted(ctx context.Context, jobID, resultAssetID string) error {
	query := `
UPDATE jobs
SET status = $2,
    result_asset_id = $3,
    updated_at = NOW()
WHERE id = $1 AND status = $4;
`
	tag, err := r.pool.Exec(ctx, query, jobID, domain.JobStatusCompleted, resultAssetID, domain.JobStatusProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobSettled
	}
	return nil
}

// MarkFailed records the terminal failed state with an error message.
// Guarded like MarkCompleted.
func (r *JobRepositoryPG) MarkFailed(ctx context.Context, jobID, errMsg string) error {
	query := `
UPDATE jobs
SET status = $2,
    error_message = $3,
    updated_at = NOW()
WHERE id = $1 AND status = $4;
`
	tag, err := r.pool.Exec(ctx, query, jobID, domain.JobStatusFailed, errMsg, domain.JobStatusProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobSettled
	}
	return nil
}

// ListPendingByBusiness returns the business's non-terminal jobs, oldest first.
func (r *JobRepositoryPG) ListPendingByBusiness(ctx context.Context, businessID string) ([]domain.Job, error) {
	query := selectJobColumns + `
WHERE business_id = $1 AND status IN ($2, $3)
ORDER BY created_at;
`
	rows, err := r.pool.Query(ctx, query, businessID, domain.JobStatusPending, domain.JobStatusProcessing)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// ListStaleProcessing returns processing jobs last touched before the cutoff.
func (r *JobRepositoryPG) ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]domain.Job, error) {
	query := selectJobColumns + `
WHERE status = $1 AND updated_at < $2
ORDER BY created_at;
`
	rows, err := r.pool.Query(ctx, query, domain.JobStatusProcessing, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// Delete hard-deletes the job row.
func (r *JobRepositoryPG) Delete(ctx context.Context, jobID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1;`, jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const selectJobColumns = `
SELECT id, business_id, status, prompt, aspect_ratio, style_id, subject_id, model_tier, result_asset_id, error_message, created_at, updated_at
FROM jobs`

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.BusinessID,
		&job.Status,
		&job.Prompt,
		&job.AspectRatio,
		&job.StyleID,
		&job.SubjectID,
		&job.ModelTier,
		&job.ResultAssetID,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

func collectJobs(rows pgx.Rows) ([]domain.Job, error) {
	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}
