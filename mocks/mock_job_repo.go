package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docflow/internal/domain"
)

// MockJobRepo is a mock implementation of port.JobRepository.
type MockJobRepo struct {
	mock.Mock
}

func (m *MockJobRepo) Create(ctx context.Context, job *domain.DocumentJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepo) GetByID(ctx context.Context, tenantID, jobID uuid.UUID) (*domain.DocumentJob, error) {
	args := m.Called(ctx, tenantID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentJob), args.Error(1)
}

func (m *MockJobRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]domain.DocumentJob, int, error) {
	args := m.Called(ctx, tenantID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.DocumentJob), args.Int(1), args.Error(2)
}

func (m *MockJobRepo) UpdateStatus(ctx context.Context, tenantID, jobID uuid.UUID, status domain.JobStatus, errorMessage string, processedAt *time.Time) error {
	args := m.Called(ctx, tenantID, jobID, status, errorMessage, processedAt)
	return args.Error(0)
}

func (m *MockJobRepo) ClaimPending(ctx context.Context, limit int) ([]domain.DocumentJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentJob), args.Error(1)
}

func (m *MockJobRepo) SoftDeleteExpired(ctx context.Context, now time.Time) ([]domain.DocumentJob, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentJob), args.Error(1)
}
