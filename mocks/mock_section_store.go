package mocks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"taxdesk/internal/domain"
)

// MockSectionStore is a mock implementation of port.SectionStore.
type MockSectionStore struct {
	mock.Mock
}

func (m *MockSectionStore) Find(ctx context.Context, desc domain.SectionDescriptor, key domain.SectionKey) ([]domain.SectionRecord, error) {
	args := m.Called(ctx, desc, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SectionRecord), args.Error(1)
}

func (m *MockSectionStore) GetByID(ctx context.Context, desc domain.SectionDescriptor, id uuid.UUID) (*domain.SectionRecord, error) {
	args := m.Called(ctx, desc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SectionRecord), args.Error(1)
}

func (m *MockSectionStore) ListByKind(ctx context.Context, desc domain.SectionDescriptor) ([]domain.SectionRecord, error) {
	args := m.Called(ctx, desc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SectionRecord), args.Error(1)
}

func (m *MockSectionStore) Upsert(ctx context.Context, desc domain.SectionDescriptor, key domain.SectionKey, data json.RawMessage) (*domain.SectionRecord, error) {
	args := m.Called(ctx, desc, key, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SectionRecord), args.Error(1)
}

func (m *MockSectionStore) ReplaceAll(ctx context.Context, desc domain.SectionDescriptor, key domain.SectionKey, items []json.RawMessage) ([]domain.SectionRecord, error) {
	args := m.Called(ctx, desc, key, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SectionRecord), args.Error(1)
}

func (m *MockSectionStore) CreateMany(ctx context.Context, desc domain.SectionDescriptor, records []domain.SectionRecord) ([]domain.SectionRecord, error) {
	args := m.Called(ctx, desc, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SectionRecord), args.Error(1)
}

func (m *MockSectionStore) MergeData(ctx context.Context, desc domain.SectionDescriptor, id uuid.UUID, patch json.RawMessage) (*domain.SectionRecord, error) {
	args := m.Called(ctx, desc, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SectionRecord), args.Error(1)
}

func (m *MockSectionStore) ReplaceData(ctx context.Context, desc domain.SectionDescriptor, id uuid.UUID, expectedVersion int64, data json.RawMessage) (*domain.SectionRecord, error) {
	args := m.Called(ctx, desc, id, expectedVersion, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SectionRecord), args.Error(1)
}

func (m *MockSectionStore) DeleteByIDs(ctx context.Context, desc domain.SectionDescriptor, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, desc, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSectionStore) CountByKind(ctx context.Context, descs []domain.SectionDescriptor, key domain.SectionKey) (map[domain.SectionKind]int, error) {
	args := m.Called(ctx, descs, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.SectionKind]int), args.Error(1)
}
