package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"taxdesk/internal/domain"
	"taxdesk/internal/service"
)

// MockAdminTaxFilingService is a mock implementation of service.AdminTaxFilingService.
type MockAdminTaxFilingService struct {
	mock.Mock
}

func (m *MockAdminTaxFilingService) List(ctx context.Context, filters domain.TaxFilingFilters) (*domain.TaxFilingPage, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxFilingPage), args.Error(1)
}

func (m *MockAdminTaxFilingService) Get(ctx context.Context, id uuid.UUID) (*domain.TaxFilingView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxFilingView), args.Error(1)
}

func (m *MockAdminTaxFilingService) UpdateStatus(ctx context.Context, input service.UpdateFilingStatusInput) (*domain.TaxFiling, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxFiling), args.Error(1)
}

func (m *MockAdminTaxFilingService) BulkUpdateStatus(ctx context.Context, input service.BulkFilingStatusInput) (*service.BulkFilingStatusResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BulkFilingStatusResult), args.Error(1)
}

func (m *MockAdminTaxFilingService) Report(ctx context.Context, filters domain.TaxFilingFilters, format domain.ReportFormat) (*service.ReportFile, error) {
	args := m.Called(ctx, filters, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReportFile), args.Error(1)
}
