package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"docflow/internal/domain"
	"docflow/internal/port"
)

// CreateProfileInput is the DTO for registering a new document profile.
type CreateProfileInput struct {
	TenantID             *uuid.UUID // nil = global profile
	Key                  string
	Version              int
	ExpectedItemTypes    json.RawMessage
	FlagDefinitions      json.RawMessage
	ConfidenceThresholds json.RawMessage
	FieldNormalizers     json.RawMessage
	ValidationSchema     json.RawMessage
}

// ProfileService defines the profile registry contract. Lookups treat an
// absent profile as a normal outcome (domain.ErrProfileNotFound), never a
// crash: the ingestion orchestrator converts it into a failed job.
type ProfileService interface {
	GetProfile(ctx context.Context, tenantID, profileID uuid.UUID) (*domain.DocumentProfile, error)
	CreateProfile(ctx context.Context, input *CreateProfileInput) (*domain.DocumentProfile, error)
	ListProfiles(ctx context.Context, tenantID uuid.UUID) ([]domain.DocumentProfile, error)
	DeactivateProfile(ctx context.Context, tenantID, profileID uuid.UUID) error
}

type profileService struct {
	profileRepo port.ProfileRepository
}

// NewProfileService creates a new ProfileService implementation.
func NewProfileService(profileRepo port.ProfileRepository) ProfileService {
	return &profileService{profileRepo: profileRepo}
}

func (s *profileService) GetProfile(ctx context.Context, tenantID, profileID uuid.UUID) (*domain.DocumentProfile, error) {
	return s.profileRepo.GetByID(ctx, tenantID, profileID)
}

// CreateProfile registers a new, immutable profile version. The validation
// schema must compile before the row is written: a profile with a broken
// schema would fail every job that references it.
func (s *profileService) CreateProfile(ctx context.Context, input *CreateProfileInput) (*domain.DocumentProfile, error) {
	if input.Key == "" {
		return nil, fmt.Errorf("profile key is required")
	}
	if input.Version < 1 {
		return nil, fmt.Errorf("profile version must be >= 1")
	}

	if len(input.ValidationSchema) > 0 {
		if err := compileSchema(input.ValidationSchema); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSchema, err)
		}
	}

	profile := &domain.DocumentProfile{
		ID:                   uuid.New(),
		TenantID:             input.TenantID,
		Key:                  input.Key,
		Version:              input.Version,
		ExpectedItemTypes:    orEmptyArray(input.ExpectedItemTypes),
		FlagDefinitions:      orEmptyObject(input.FlagDefinitions),
		ConfidenceThresholds: orEmptyObject(input.ConfidenceThresholds),
		FieldNormalizers:     orEmptyObject(input.FieldNormalizers),
		ValidationSchema:     orEmptyObject(input.ValidationSchema),
		IsActive:             true,
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	log.Printf("profileService.CreateProfile: registered profile %s (%s v%d)",
		profile.ID, profile.Key, profile.Version)

	return profile, nil
}

func (s *profileService) ListProfiles(ctx context.Context, tenantID uuid.UUID) ([]domain.DocumentProfile, error) {
	return s.profileRepo.ListByTenant(ctx, tenantID)
}

func (s *profileService) DeactivateProfile(ctx context.Context, tenantID, profileID uuid.UUID) error {
	if err := s.profileRepo.Deactivate(ctx, tenantID, profileID); err != nil {
		return err
	}
	log.Printf("profileService.DeactivateProfile: deactivated profile %s", profileID)
	return nil
}

// compileSchema checks that a validation schema is a valid JSON Schema.
func compileSchema(schema json.RawMessage) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schema)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	if _, err := compiler.Compile("schema.json"); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return nil
}

func orEmptyObject(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return raw
}

func orEmptyArray(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("[]")
	}
	return raw
}
