package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"docflow/internal/domain"
	"docflow/internal/port"
	"docflow/internal/triage"
)

// ReviewQueueItem is an unreviewed item annotated with its computed triage
// priority and reason.
type ReviewQueueItem struct {
	domain.DocumentItem
	Priority triage.Priority `json:"priority"`
	Reason   string          `json:"reason"`
}

// CreateReviewInput is the DTO for recording one reviewer disposition.
type CreateReviewInput struct {
	TenantID           uuid.UUID
	ItemID             uuid.UUID
	Status             domain.ReviewStatus
	CorrectedText      *string
	CorrectedData      []byte
	Notes              string
	ReviewerConfidence *float64
	ReviewedBy         uuid.UUID
}

// ReviewService accepts human corrections and serves the triage-annotated
// review queue. Recording a review and finalizing an item are distinct
// steps: a review can be stored as in-progress without flipping the item.
type ReviewService interface {
	CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.HumanReview, error)
	MarkItemReviewed(ctx context.Context, tenantID, itemID, reviewerID uuid.UUID) error
	GetReviewQueue(ctx context.Context, tenantID uuid.UUID, limit int) ([]ReviewQueueItem, error)
	ListReviewsByItem(ctx context.Context, tenantID, itemID uuid.UUID) ([]domain.HumanReview, error)
}

type reviewService struct {
	itemRepo   port.ItemRepository
	reviewRepo port.ReviewRepository
}

// NewReviewService creates a new ReviewService implementation.
func NewReviewService(itemRepo port.ItemRepository, reviewRepo port.ReviewRepository) ReviewService {
	return &reviewService{itemRepo: itemRepo, reviewRepo: reviewRepo}
}

// CreateReview appends a HumanReview row and applies the correction to the
// item. It does not flip is_reviewed; that is the explicit mark step.
func (s *reviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.HumanReview, error) {
	if !input.Status.Valid() {
		return nil, domain.ErrInvalidReview
	}

	// Reject reviews whose item belongs to another tenant before writing.
	item, err := s.itemRepo.GetByID(ctx, input.TenantID, input.ItemID)
	if err != nil {
		return nil, err
	}

	review := &domain.HumanReview{
		ID:                 uuid.New(),
		ItemID:             item.ID,
		TenantID:           input.TenantID,
		Status:             input.Status,
		CorrectedText:      input.CorrectedText,
		CorrectedData:      input.CorrectedData,
		Notes:              input.Notes,
		ReviewerConfidence: input.ReviewerConfidence,
		ReviewedBy:         input.ReviewedBy,
		CompletedAt:        time.Now().UTC(),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("creating review: %w", err)
	}

	if input.CorrectedText != nil || input.Notes != "" {
		if err := s.itemRepo.ApplyCorrection(ctx, input.TenantID, input.ItemID, input.CorrectedText, input.Notes); err != nil {
			return nil, fmt.Errorf("applying correction: %w", err)
		}
	}

	log.Printf("reviewService.CreateReview: recorded %s review for item %s", review.Status, item.ID)
	return review, nil
}

// MarkItemReviewed finalizes an item. Marking an already-reviewed item is an
// idempotent overwrite, not an error.
func (s *reviewService) MarkItemReviewed(ctx context.Context, tenantID, itemID, reviewerID uuid.UUID) error {
	return s.itemRepo.MarkReviewed(ctx, tenantID, itemID, reviewerID)
}

// GetReviewQueue returns unreviewed, non-deleted items oldest-first, each
// annotated with triage priority and reason. The read is a snapshot, not a
// lease: two reviewers can be shown the same items.
func (s *reviewService) GetReviewQueue(ctx context.Context, tenantID uuid.UUID, limit int) ([]ReviewQueueItem, error) {
	items, err := s.itemRepo.ListUnreviewed(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}

	queue := make([]ReviewQueueItem, 0, len(items))
	for _, item := range items {
		priority, reason := triage.Evaluate(item.OCRConfidence, item.Flags)
		queue = append(queue, ReviewQueueItem{
			DocumentItem: item,
			Priority:     priority,
			Reason:       reason,
		})
	}
	return queue, nil
}

func (s *reviewService) ListReviewsByItem(ctx context.Context, tenantID, itemID uuid.UUID) ([]domain.HumanReview, error) {
	return s.reviewRepo.ListByItem(ctx, tenantID, itemID)
}
