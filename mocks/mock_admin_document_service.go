package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"taxdesk/internal/domain"
	"taxdesk/internal/service"
)

// MockAdminDocumentService is a mock implementation of service.AdminDocumentService.
type MockAdminDocumentService struct {
	mock.Mock
}

func (m *MockAdminDocumentService) List(ctx context.Context, filters domain.DocumentFilters) (*domain.DocumentPage, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentPage), args.Error(1)
}

func (m *MockAdminDocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockAdminDocumentService) UpdateStatus(ctx context.Context, input service.UpdateDocumentStatusInput) (*domain.Document, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockAdminDocumentService) Report(ctx context.Context, filters domain.DocumentFilters, format domain.ReportFormat, detailed bool) (*service.ReportFile, error) {
	args := m.Called(ctx, filters, format, detailed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReportFile), args.Error(1)
}
