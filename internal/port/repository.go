package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docflow/internal/domain"
)

// ProfileRepository defines the contract for document profile persistence.
// Lookups resolve against profiles scoped to the tenant or globally
// (tenant_id IS NULL); tenant-scoped profiles shadow global ones.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.DocumentProfile) error
	GetByID(ctx context.Context, tenantID, profileID uuid.UUID) (*domain.DocumentProfile, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.DocumentProfile, error)
	Deactivate(ctx context.Context, tenantID, profileID uuid.UUID) error
}

// JobRepository defines the contract for document job persistence.
// All query methods include tenantID to enforce tenant isolation at the
// data layer.
type JobRepository interface {
	Create(ctx context.Context, job *domain.DocumentJob) error
	GetByID(ctx context.Context, tenantID, jobID uuid.UUID) (*domain.DocumentJob, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]domain.DocumentJob, int, error)
	UpdateStatus(ctx context.Context, tenantID, jobID uuid.UUID, status domain.JobStatus, errorMessage string, processedAt *time.Time) error
	ClaimPending(ctx context.Context, limit int) ([]domain.DocumentJob, error)
	SoftDeleteExpired(ctx context.Context, now time.Time) ([]domain.DocumentJob, error)
}

// ItemRepository defines the contract for document item persistence.
type ItemRepository interface {
	CreateBatch(ctx context.Context, items []domain.DocumentItem) error
	GetByID(ctx context.Context, tenantID, itemID uuid.UUID) (*domain.DocumentItem, error)
	ListByJob(ctx context.Context, tenantID, jobID uuid.UUID) ([]domain.DocumentItem, error)
	DeleteByJob(ctx context.Context, tenantID, jobID uuid.UUID) error
	ListUnreviewed(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.DocumentItem, error)
	MarkReviewed(ctx context.Context, tenantID, itemID, reviewerID uuid.UUID) error
	ApplyCorrection(ctx context.Context, tenantID, itemID uuid.UUID, correctedText *string, notes string) error
}

// ReviewRepository defines the contract for human review persistence.
// Reviews are append-only.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.HumanReview) error
	ListByItem(ctx context.Context, tenantID, itemID uuid.UUID) ([]domain.HumanReview, error)
}

// UsageRepository defines the contract for the usage ledger. The ledger is
// append-only: no update or delete path exists.
type UsageRepository interface {
	Create(ctx context.Context, record *domain.UsageRecord) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]domain.UsageRecord, error)
}
