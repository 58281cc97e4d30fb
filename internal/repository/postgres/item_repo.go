package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docflow/internal/domain"
	"docflow/internal/port"
)

type itemRepo struct {
	db *sqlx.DB
}

// NewItemRepo creates a new PostgreSQL-backed ItemRepository.
func NewItemRepo(db *sqlx.DB) port.ItemRepository {
	return &itemRepo{db: db}
}

// CreateBatch inserts a job's items as one set inside a transaction, so a
// crash mid-write never leaves a partial set behind.
func (r *itemRepo) CreateBatch(ctx context.Context, items []domain.DocumentItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("itemRepo.CreateBatch begin: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO document_items (
		id, job_id, tenant_id, item_index, item_type,
		raw_text, ocr_confidence, ocr_provider,
		normalized_text, normalization_confidence,
		flags, structured_data,
		is_reviewed, reviewed_by, reviewed_at, corrected_text, review_notes,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8,
		$9, $10,
		$11, $12,
		$13, $14, $15, $16, $17,
		$18, $19
	)`

	now := time.Now().UTC()
	for i := range items {
		item := &items[i]
		item.CreatedAt = now
		item.UpdatedAt = now
		if item.StructuredData == nil {
			item.StructuredData = json.RawMessage("{}")
		}
		if item.Flags == nil {
			item.Flags = domain.FlagMap{}
		}

		_, err := tx.ExecContext(ctx, query,
			item.ID, item.JobID, item.TenantID, item.ItemIndex, item.ItemType,
			item.RawText, item.OCRConfidence, item.OCRProvider,
			item.NormalizedText, item.NormalizationConfidence,
			item.Flags, item.StructuredData,
			item.IsReviewed, item.ReviewedBy, item.ReviewedAt, item.CorrectedText, item.ReviewNotes,
			item.CreatedAt, item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("itemRepo.CreateBatch insert index %d: %w", item.ItemIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("itemRepo.CreateBatch commit: %w", err)
	}
	return nil
}

func (r *itemRepo) GetByID(ctx context.Context, tenantID, itemID uuid.UUID) (*domain.DocumentItem, error) {
	var item domain.DocumentItem
	err := r.db.GetContext(ctx, &item,
		`SELECT * FROM document_items
		 WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		itemID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("itemRepo.GetByID: %w", err)
	}
	return &item, nil
}

func (r *itemRepo) ListByJob(ctx context.Context, tenantID, jobID uuid.UUID) ([]domain.DocumentItem, error) {
	var items []domain.DocumentItem
	err := r.db.SelectContext(ctx, &items,
		`SELECT * FROM document_items
		 WHERE job_id = $1 AND tenant_id = $2 AND deleted_at IS NULL
		 ORDER BY item_index`,
		jobID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("itemRepo.ListByJob: %w", err)
	}
	return items, nil
}

// DeleteByJob removes every item of a job so a retry can insert a clean
// replacement set. This is the only hard delete in the store: within-job
// replacement is not an audit event, the job row is.
func (r *itemRepo) DeleteByJob(ctx context.Context, tenantID, jobID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM document_items WHERE job_id = $1 AND tenant_id = $2",
		jobID, tenantID)
	if err != nil {
		return fmt.Errorf("itemRepo.DeleteByJob: %w", err)
	}
	return nil
}

// ListUnreviewed returns unreviewed, non-deleted items oldest-first, so
// reviewer latency is bounded fairly.
func (r *itemRepo) ListUnreviewed(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.DocumentItem, error) {
	var items []domain.DocumentItem
	err := r.db.SelectContext(ctx, &items,
		`SELECT * FROM document_items
		 WHERE tenant_id = $1 AND is_reviewed = FALSE AND deleted_at IS NULL
		 ORDER BY created_at
		 LIMIT $2`,
		tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("itemRepo.ListUnreviewed: %w", err)
	}
	return items, nil
}

// MarkReviewed flips the reviewed state. Calling it on an already-reviewed
// item overwrites the stamp rather than erroring.
func (r *itemRepo) MarkReviewed(ctx context.Context, tenantID, itemID, reviewerID uuid.UUID) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE document_items SET
			is_reviewed = TRUE, reviewed_by = $1, reviewed_at = $2, updated_at = $2
		 WHERE id = $3 AND tenant_id = $4 AND deleted_at IS NULL`,
		reviewerID, now, itemID, tenantID)
	if err != nil {
		return fmt.Errorf("itemRepo.MarkReviewed: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// ApplyCorrection writes a reviewer's corrected text and notes onto the item.
func (r *itemRepo) ApplyCorrection(ctx context.Context, tenantID, itemID uuid.UUID, correctedText *string, notes string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE document_items SET
			corrected_text = $1, review_notes = $2, updated_at = $3
		 WHERE id = $4 AND tenant_id = $5 AND deleted_at IS NULL`,
		correctedText, notes, time.Now().UTC(), itemID, tenantID)
	if err != nil {
		return fmt.Errorf("itemRepo.ApplyCorrection: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}
