package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"taxdesk/internal/domain"
	"taxdesk/internal/service"
)

// MockTaxFilingService is a mock implementation of service.TaxFilingService.
type MockTaxFilingService struct {
	mock.Mock
}

func (m *MockTaxFilingService) Create(ctx context.Context, input service.CreateTaxFilingInput) (*domain.TaxFiling, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxFiling), args.Error(1)
}

func (m *MockTaxFilingService) ListMine(ctx context.Context, userID uuid.UUID, taxYear string) ([]domain.TaxFilingView, error) {
	args := m.Called(ctx, userID, taxYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TaxFilingView), args.Error(1)
}
