package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docflow/internal/domain"
	"docflow/internal/port"
)

type usageRepo struct {
	db *sqlx.DB
}

// NewUsageRepo creates a new PostgreSQL-backed UsageRepository. The ledger
// is append-only: this type deliberately exposes no update or delete.
func NewUsageRepo(db *sqlx.DB) port.UsageRepository {
	return &usageRepo{db: db}
}

func (r *usageRepo) Create(ctx context.Context, record *domain.UsageRecord) error {
	record.CreatedAt = time.Now().UTC()

	query := `INSERT INTO usage_records (
		id, tenant_id, job_id, provider, model_version,
		pages_processed, file_size_bytes, input_tokens, output_tokens,
		processing_ms, cost_cents, created_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11, $12
	)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.TenantID, record.JobID, record.Provider, record.ModelVersion,
		record.PagesProcessed, record.FileSizeBytes, record.InputTokens, record.OutputTokens,
		record.ProcessingMS, record.CostCents, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("usageRepo.Create: %w", err)
	}
	return nil
}

func (r *usageRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]domain.UsageRecord, error) {
	var records []domain.UsageRecord
	err := r.db.SelectContext(ctx, &records,
		`SELECT * FROM usage_records
		 WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at`,
		tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("usageRepo.ListByTenant: %w", err)
	}
	return records, nil
}
