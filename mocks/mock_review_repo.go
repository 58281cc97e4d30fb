package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docflow/internal/domain"
)

// MockReviewRepo is a mock implementation of port.ReviewRepository.
type MockReviewRepo struct {
	mock.Mock
}

func (m *MockReviewRepo) Create(ctx context.Context, review *domain.HumanReview) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepo) ListByItem(ctx context.Context, tenantID, itemID uuid.UUID) ([]domain.HumanReview, error) {
	args := m.Called(ctx, tenantID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HumanReview), args.Error(1)
}
