package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docflow/internal/port"
)

// MockExtractor is a mock implementation of port.DocumentExtractor.
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, input port.ExtractInput) ([]port.ExtractedItem, *port.ExtractUsage, error) {
	args := m.Called(ctx, input)
	var items []port.ExtractedItem
	if args.Get(0) != nil {
		items = args.Get(0).([]port.ExtractedItem)
	}
	var usage *port.ExtractUsage
	if args.Get(1) != nil {
		usage = args.Get(1).(*port.ExtractUsage)
	}
	return items, usage, args.Error(2)
}
