package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"taxdesk/internal/domain"
)

// MockTaxFilingRepo is a mock implementation of port.TaxFilingRepository.
type MockTaxFilingRepo struct {
	mock.Mock
}

func (m *MockTaxFilingRepo) Create(ctx context.Context, filing *domain.TaxFiling) error {
	args := m.Called(ctx, filing)
	return args.Error(0)
}

func (m *MockTaxFilingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaxFilingView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxFilingView), args.Error(1)
}

func (m *MockTaxFilingRepo) ListByUser(ctx context.Context, userID uuid.UUID, taxYear string) ([]domain.TaxFilingView, error) {
	args := m.Called(ctx, userID, taxYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TaxFilingView), args.Error(1)
}

func (m *MockTaxFilingRepo) List(ctx context.Context, filters *domain.TaxFilingFilters) ([]domain.TaxFilingView, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.TaxFilingView), args.Int(1), args.Error(2)
}

func (m *MockTaxFilingRepo) Statistics(ctx context.Context, filters *domain.TaxFilingFilters) (*domain.TaxFilingStatistics, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxFilingStatistics), args.Error(1)
}

func (m *MockTaxFilingRepo) TaxYears(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTaxFilingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, update domain.FilingStatusUpdate) (*domain.TaxFiling, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxFiling), args.Error(1)
}

func (m *MockTaxFilingRepo) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, update domain.FilingStatusUpdate) ([]uuid.UUID, error) {
	args := m.Called(ctx, ids, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}
