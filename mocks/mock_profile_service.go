package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"taxdesk/internal/domain"
	"taxdesk/internal/service"
)

// MockProfileService is a mock implementation of service.ProfileService.
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetAllUserData(ctx context.Context, userID uuid.UUID, taxYear string) (*domain.Profile, error) {
	args := m.Called(ctx, userID, taxYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileService) SaveAllUserData(ctx context.Context, input service.SaveProfileInput) (*domain.SaveResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SaveResult), args.Error(1)
}

func (m *MockProfileService) Statistics(ctx context.Context, userID uuid.UUID, taxYear string) (*domain.ProfileStatistics, error) {
	args := m.Called(ctx, userID, taxYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProfileStatistics), args.Error(1)
}
