package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docflow/internal/domain"
	"docflow/internal/port"
)

type reviewRepo struct {
	db *sqlx.DB
}

// NewReviewRepo creates a new PostgreSQL-backed ReviewRepository.
func NewReviewRepo(db *sqlx.DB) port.ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Create(ctx context.Context, review *domain.HumanReview) error {
	if !review.Status.Valid() {
		return domain.ErrInvalidReview
	}
	review.CreatedAt = time.Now().UTC()
	if review.CorrectedData == nil {
		review.CorrectedData = json.RawMessage("{}")
	}

	query := `INSERT INTO human_reviews (
		id, item_id, tenant_id, status,
		corrected_text, corrected_data, notes, reviewer_confidence,
		reviewed_by, completed_at, created_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8,
		$9, $10, $11
	)`

	_, err := r.db.ExecContext(ctx, query,
		review.ID, review.ItemID, review.TenantID, review.Status,
		review.CorrectedText, review.CorrectedData, review.Notes, review.ReviewerConfidence,
		review.ReviewedBy, review.CompletedAt, review.CreatedAt)
	if err != nil {
		return fmt.Errorf("reviewRepo.Create: %w", err)
	}
	return nil
}

func (r *reviewRepo) ListByItem(ctx context.Context, tenantID, itemID uuid.UUID) ([]domain.HumanReview, error) {
	var reviews []domain.HumanReview
	err := r.db.SelectContext(ctx, &reviews,
		`SELECT * FROM human_reviews
		 WHERE item_id = $1 AND tenant_id = $2
		 ORDER BY completed_at DESC`,
		itemID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("reviewRepo.ListByItem: %w", err)
	}
	return reviews, nil
}
