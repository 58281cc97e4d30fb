package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docflow/internal/domain"
)

// MockItemRepo is a mock implementation of port.ItemRepository.
type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) CreateBatch(ctx context.Context, items []domain.DocumentItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockItemRepo) GetByID(ctx context.Context, tenantID, itemID uuid.UUID) (*domain.DocumentItem, error) {
	args := m.Called(ctx, tenantID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentItem), args.Error(1)
}

func (m *MockItemRepo) ListByJob(ctx context.Context, tenantID, jobID uuid.UUID) ([]domain.DocumentItem, error) {
	args := m.Called(ctx, tenantID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentItem), args.Error(1)
}

func (m *MockItemRepo) DeleteByJob(ctx context.Context, tenantID, jobID uuid.UUID) error {
	args := m.Called(ctx, tenantID, jobID)
	return args.Error(0)
}

func (m *MockItemRepo) ListUnreviewed(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.DocumentItem, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentItem), args.Error(1)
}

func (m *MockItemRepo) MarkReviewed(ctx context.Context, tenantID, itemID, reviewerID uuid.UUID) error {
	args := m.Called(ctx, tenantID, itemID, reviewerID)
	return args.Error(0)
}

func (m *MockItemRepo) ApplyCorrection(ctx context.Context, tenantID, itemID uuid.UUID, correctedText *string, notes string) error {
	args := m.Called(ctx, tenantID, itemID, correctedText, notes)
	return args.Error(0)
}
