package port

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"taxdesk/internal/domain"
)

// SectionStore persists the records of every registered section kind.
// Each call receives the descriptor of the kind it operates on, so a single
// store serves the whole registry.
type SectionStore interface {
	// Find returns the records for key, newest first. An empty key.TaxYear matches every year.
	Find(ctx context.Context, desc domain.SectionDescriptor, key domain.SectionKey) ([]domain.SectionRecord, error)
	GetByID(ctx context.Context, desc domain.SectionDescriptor, id uuid.UUID) (*domain.SectionRecord, error)
	ListByKind(ctx context.Context, desc domain.SectionDescriptor) ([]domain.SectionRecord, error)
	// Upsert atomically creates or replaces the single record for key.
	Upsert(ctx context.Context, desc domain.SectionDescriptor, key domain.SectionKey, data json.RawMessage) (*domain.SectionRecord, error)
	// ReplaceAll deletes every record for key and inserts items in their place.
	ReplaceAll(ctx context.Context, desc domain.SectionDescriptor, key domain.SectionKey, items []json.RawMessage) ([]domain.SectionRecord, error)
	CreateMany(ctx context.Context, desc domain.SectionDescriptor, records []domain.SectionRecord) ([]domain.SectionRecord, error)
	// MergeData shallow-merges patch into the record's top-level keys.
	MergeData(ctx context.Context, desc domain.SectionDescriptor, id uuid.UUID, patch json.RawMessage) (*domain.SectionRecord, error)
	// ReplaceData writes data only if the record is still at expectedVersion.
	ReplaceData(ctx context.Context, desc domain.SectionDescriptor, id uuid.UUID, expectedVersion int64, data json.RawMessage) (*domain.SectionRecord, error)
	DeleteByIDs(ctx context.Context, desc domain.SectionDescriptor, ids []uuid.UUID) (int64, error)
	CountByKind(ctx context.Context, descs []domain.SectionDescriptor, key domain.SectionKey) (map[domain.SectionKind]int, error)
}

// UserRepository reads platform accounts. Accounts are provisioned by the
// identity service; this backend only resolves them.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.User, error)
}

// TaxFilingRepository defines the contract for tax filing persistence.
type TaxFilingRepository interface {
	Create(ctx context.Context, filing *domain.TaxFiling) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TaxFilingView, error)
	ListByUser(ctx context.Context, userID uuid.UUID, taxYear string) ([]domain.TaxFilingView, error)
	List(ctx context.Context, filters *domain.TaxFilingFilters) ([]domain.TaxFilingView, int, error)
	Statistics(ctx context.Context, filters *domain.TaxFilingFilters) (*domain.TaxFilingStatistics, error)
	TaxYears(ctx context.Context) ([]string, error)
	// UpdateStatus sets the status, its transition timestamp and appends a
	// history entry in one statement.
	UpdateStatus(ctx context.Context, id uuid.UUID, update domain.FilingStatusUpdate) (*domain.TaxFiling, error)
	// BulkUpdateStatus applies update to every id and returns the ids that matched.
	BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, update domain.FilingStatusUpdate) ([]uuid.UUID, error)
}
