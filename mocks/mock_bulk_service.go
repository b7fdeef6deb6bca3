package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"taxdesk/internal/service"
)

// MockBulkService is a mock implementation of service.BulkService.
type MockBulkService struct {
	mock.Mock
}

func (m *MockBulkService) Create(ctx context.Context, input service.BulkCreateInput) (*service.BulkCreateResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BulkCreateResult), args.Error(1)
}

func (m *MockBulkService) Update(ctx context.Context, input service.BulkUpdateInput) (*service.BulkUpdateResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BulkUpdateResult), args.Error(1)
}

func (m *MockBulkService) Delete(ctx context.Context, input service.BulkDeleteInput) (*service.BulkDeleteResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BulkDeleteResult), args.Error(1)
}
