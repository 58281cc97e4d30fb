package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docflow/internal/domain"
	"docflow/internal/port"
)

type jobRepo struct {
	db *sqlx.DB
}

// NewJobRepo creates a new PostgreSQL-backed JobRepository.
func NewJobRepo(db *sqlx.DB) port.JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) Create(ctx context.Context, job *domain.DocumentJob) error {
	if !job.Status.Valid() {
		return domain.ErrInvalidJobStatus
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	query := `INSERT INTO document_jobs (
		id, tenant_id, integration_id, facility_id, profile_id,
		file_name, content_type, file_size, page_count,
		storage_bucket, storage_key, retention_until,
		status, error_message, correlation_id, external_ref,
		processed_at, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11, $12,
		$13, $14, $15, $16,
		$17, $18, $19
	)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.TenantID, job.IntegrationID, job.FacilityID, job.ProfileID,
		job.FileName, job.ContentType, job.FileSize, job.PageCount,
		job.StorageBucket, job.StorageKey, job.RetentionUntil,
		job.Status, job.ErrorMessage, job.CorrelationID, job.ExternalRef,
		job.ProcessedAt, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("jobRepo.Create: %w", err)
	}
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, tenantID, jobID uuid.UUID) (*domain.DocumentJob, error) {
	var job domain.DocumentJob
	err := r.db.GetContext(ctx, &job,
		`SELECT * FROM document_jobs
		 WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		jobID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("jobRepo.GetByID: %w", err)
	}
	return &job, nil
}

func (r *jobRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]domain.DocumentJob, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM document_jobs WHERE tenant_id = $1 AND deleted_at IS NULL",
		tenantID)
	if err != nil {
		return nil, 0, fmt.Errorf("jobRepo.ListByTenant count: %w", err)
	}

	var jobs []domain.DocumentJob
	err = r.db.SelectContext(ctx, &jobs,
		`SELECT * FROM document_jobs
		 WHERE tenant_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("jobRepo.ListByTenant: %w", err)
	}
	return jobs, total, nil
}

// UpdateStatus persists a status transition. processedAt must be non-nil
// exactly when status is completed; the check here is the last line of
// defense for that invariant.
func (r *jobRepo) UpdateStatus(ctx context.Context, tenantID, jobID uuid.UUID, status domain.JobStatus, errorMessage string, processedAt *time.Time) error {
	if !status.Valid() {
		return domain.ErrInvalidJobStatus
	}
	if (processedAt != nil) != (status == domain.JobStatusCompleted) {
		return domain.ErrInvalidJobStatus
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE document_jobs SET
			status = $1, error_message = $2, processed_at = $3, updated_at = $4
		 WHERE id = $5 AND tenant_id = $6 AND deleted_at IS NULL`,
		status, errorMessage, processedAt, time.Now().UTC(),
		jobID, tenantID)
	if err != nil {
		return fmt.Errorf("jobRepo.UpdateStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// ClaimPending atomically claims up to limit pending jobs by moving them to
// processing. SKIP LOCKED keeps concurrent workers from claiming the same
// rows.
func (r *jobRepo) ClaimPending(ctx context.Context, limit int) ([]domain.DocumentJob, error) {
	var jobs []domain.DocumentJob
	err := r.db.SelectContext(ctx, &jobs,
		`UPDATE document_jobs SET status = $1, updated_at = $2
		 WHERE id IN (
			SELECT id FROM document_jobs
			WHERE status = $3 AND deleted_at IS NULL
			ORDER BY created_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		domain.JobStatusProcessing, time.Now().UTC(), domain.JobStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("jobRepo.ClaimPending: %w", err)
	}
	return jobs, nil
}

// SoftDeleteExpired marks jobs whose retention window has passed and returns
// the marked rows so the caller can release their stored files. Rows are
// marked, never removed, to preserve the audit trail.
func (r *jobRepo) SoftDeleteExpired(ctx context.Context, now time.Time) ([]domain.DocumentJob, error) {
	var jobs []domain.DocumentJob
	err := r.db.SelectContext(ctx, &jobs,
		`UPDATE document_jobs SET deleted_at = $1, updated_at = $1
		 WHERE retention_until IS NOT NULL AND retention_until < $1
		   AND deleted_at IS NULL
		 RETURNING *`,
		now.UTC())
	if err != nil {
		return nil, fmt.Errorf("jobRepo.SoftDeleteExpired: %w", err)
	}
	return jobs, nil
}
