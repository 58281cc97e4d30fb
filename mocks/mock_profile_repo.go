package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docflow/internal/domain"
)

// MockProfileRepo is a mock implementation of port.ProfileRepository.
type MockProfileRepo struct {
	mock.Mock
}

func (m *MockProfileRepo) Create(ctx context.Context, profile *domain.DocumentProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepo) GetByID(ctx context.Context, tenantID, profileID uuid.UUID) (*domain.DocumentProfile, error) {
	args := m.Called(ctx, tenantID, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentProfile), args.Error(1)
}

func (m *MockProfileRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.DocumentProfile, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentProfile), args.Error(1)
}

func (m *MockProfileRepo) Deactivate(ctx context.Context, tenantID, profileID uuid.UUID) error {
	args := m.Called(ctx, tenantID, profileID)
	return args.Error(0)
}
