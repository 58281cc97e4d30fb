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

type profileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo creates a new PostgreSQL-backed ProfileRepository.
func NewProfileRepo(db *sqlx.DB) port.ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) Create(ctx context.Context, profile *domain.DocumentProfile) error {
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	query := `INSERT INTO document_profiles (
		id, tenant_id, key, version,
		expected_item_types, flag_definitions, confidence_thresholds,
		field_normalizers, validation_schema,
		is_active, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7,
		$8, $9,
		$10, $11, $12
	)`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.TenantID, profile.Key, profile.Version,
		profile.ExpectedItemTypes, profile.FlagDefinitions, profile.ConfidenceThresholds,
		profile.FieldNormalizers, profile.ValidationSchema,
		profile.IsActive, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("profileRepo.Create: %w", err)
	}
	return nil
}

// GetByID resolves an active profile visible to the tenant: either scoped to
// the tenant itself or global (tenant_id IS NULL). Tenant-scoped rows sort
// first so they shadow a global profile with the same id.
func (r *profileRepo) GetByID(ctx context.Context, tenantID, profileID uuid.UUID) (*domain.DocumentProfile, error) {
	var profile domain.DocumentProfile
	err := r.db.GetContext(ctx, &profile,
		`SELECT * FROM document_profiles
		 WHERE id = $1 AND is_active = TRUE
		   AND (tenant_id = $2 OR tenant_id IS NULL)
		 ORDER BY tenant_id NULLS LAST
		 LIMIT 1`,
		profileID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("profileRepo.GetByID: %w", err)
	}
	return &profile, nil
}

func (r *profileRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.DocumentProfile, error) {
	var profiles []domain.DocumentProfile
	err := r.db.SelectContext(ctx, &profiles,
		`SELECT * FROM document_profiles
		 WHERE is_active = TRUE AND (tenant_id = $1 OR tenant_id IS NULL)
		 ORDER BY key, version DESC`,
		tenantID)
	if err != nil {
		return nil, fmt.Errorf("profileRepo.ListByTenant: %w", err)
	}
	return profiles, nil
}

// Deactivate soft-retires a tenant's profile. Global profiles cannot be
// deactivated through a tenant-scoped call.
func (r *profileRepo) Deactivate(ctx context.Context, tenantID, profileID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE document_profiles SET is_active = FALSE, updated_at = $1
		 WHERE id = $2 AND tenant_id = $3`,
		time.Now().UTC(), profileID, tenantID)
	if err != nil {
		return fmt.Errorf("profileRepo.Deactivate: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
