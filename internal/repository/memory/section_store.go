// Package memory provides an in-process SectionStore used for local runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"taxdesk/internal/domain"
	"taxdesk/internal/port"
)

type storedRecord struct {
	rec domain.SectionRecord
	seq uint64
}

type sectionStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*storedRecord
	seq     uint64
	now     func() time.Time
}

// NewSectionStore creates an empty in-memory SectionStore.
func NewSectionStore() port.SectionStore {
	return &sectionStore{
		records: make(map[uuid.UUID]*storedRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *sectionStore) Find(_ context.Context, desc domain.SectionDescriptor, key domain.SectionKey) ([]domain.SectionRecord, error) {
	key = desc.KeyFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(desc.Kind, key, false), nil
}

func (s *sectionStore) GetByID(_ context.Context, desc domain.SectionDescriptor, id uuid.UUID) (*domain.SectionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sr, ok := s.records[id]
	if !ok || sr.rec.Kind != desc.Kind {
		return nil, domain.ErrSectionNotFound
	}
	rec := cloneRecord(sr.rec)
	return &rec, nil
}

func (s *sectionStore) ListByKind(_ context.Context, desc domain.SectionDescriptor) ([]domain.SectionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []*storedRecord
	for _, sr := range s.records {
		if sr.rec.Kind == desc.Kind {
			matched = append(matched, sr)
		}
	}
	return sortedCopies(matched), nil
}

func (s *sectionStore) Upsert(_ context.Context, desc domain.SectionDescriptor, key domain.SectionKey, data json.RawMessage) (*domain.SectionRecord, error) {
	key = desc.KeyFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, sr := range s.records {
		if sr.rec.Kind == desc.Kind && sr.rec.UserID == key.UserID && sr.rec.TaxYear == key.TaxYear {
			sr.rec.Data = cloneData(data)
			sr.rec.Version++
			sr.rec.UpdatedAt = now
			sr.seq = s.nextSeq()
			rec := cloneRecord(sr.rec)
			return &rec, nil
		}
	}

	rec := s.insertLocked(desc.Kind, key, data, now)
	return &rec, nil
}

func (s *sectionStore) ReplaceAll(_ context.Context, desc domain.SectionDescriptor, key domain.SectionKey, items []json.RawMessage) ([]domain.SectionRecord, error) {
	key = desc.KeyFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sr := range s.records {
		if sr.rec.Kind == desc.Kind && sr.rec.UserID == key.UserID && sr.rec.TaxYear == key.TaxYear {
			delete(s.records, id)
		}
	}

	now := s.now()
	out := make([]domain.SectionRecord, 0, len(items))
	for _, item := range items {
		out = append(out, s.insertLocked(desc.Kind, key, item, now))
	}
	return out, nil
}

func (s *sectionStore) CreateMany(_ context.Context, desc domain.SectionDescriptor, records []domain.SectionRecord) ([]domain.SectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]domain.SectionRecord, 0, len(records))
	for i := range records {
		key := desc.KeyFor(domain.SectionKey{UserID: records[i].UserID, TaxYear: records[i].TaxYear})
		if desc.IsSingleton() && len(s.findLocked(desc.Kind, key, true)) > 0 {
			return nil, domain.ErrDuplicateSection
		}
		out = append(out, s.insertLocked(desc.Kind, key, records[i].Data, now))
	}
	return out, nil
}

func (s *sectionStore) MergeData(_ context.Context, desc domain.SectionDescriptor, id uuid.UUID, patch json.RawMessage) (*domain.SectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr, ok := s.records[id]
	if !ok || sr.rec.Kind != desc.Kind {
		return nil, domain.ErrSectionNotFound
	}
	merged, err := mergeObjects(sr.rec.Data, patch)
	if err != nil {
		return nil, err
	}
	sr.rec.Data = merged
	sr.rec.Version++
	sr.rec.UpdatedAt = s.now()
	sr.seq = s.nextSeq()
	rec := cloneRecord(sr.rec)
	return &rec, nil
}

func (s *sectionStore) ReplaceData(_ context.Context, desc domain.SectionDescriptor, id uuid.UUID, expectedVersion int64, data json.RawMessage) (*domain.SectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr, ok := s.records[id]
	if !ok || sr.rec.Kind != desc.Kind {
		return nil, domain.ErrSectionNotFound
	}
	if sr.rec.Version != expectedVersion {
		return nil, domain.ErrVersionConflict
	}
	sr.rec.Data = cloneData(data)
	sr.rec.Version++
	sr.rec.UpdatedAt = s.now()
	sr.seq = s.nextSeq()
	rec := cloneRecord(sr.rec)
	return &rec, nil
}

func (s *sectionStore) DeleteByIDs(_ context.Context, desc domain.SectionDescriptor, ids []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if sr, ok := s.records[id]; ok && sr.rec.Kind == desc.Kind {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *sectionStore) CountByKind(_ context.Context, descs []domain.SectionDescriptor, key domain.SectionKey) (map[domain.SectionKind]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.SectionKind]int, len(descs))
	for _, desc := range descs {
		counts[desc.Kind] = len(s.findLocked(desc.Kind, desc.KeyFor(key), false))
	}
	return counts, nil
}

// findLocked matches records for key. With exactYear the tax year must match
// even when empty; otherwise an empty year matches every year.
func (s *sectionStore) findLocked(kind domain.SectionKind, key domain.SectionKey, exactYear bool) []domain.SectionRecord {
	var matched []*storedRecord
	for _, sr := range s.records {
		if sr.rec.Kind != kind || sr.rec.UserID != key.UserID {
			continue
		}
		if (exactYear || key.TaxYear != "") && sr.rec.TaxYear != key.TaxYear {
			continue
		}
		matched = append(matched, sr)
	}
	return sortedCopies(matched)
}

func (s *sectionStore) insertLocked(kind domain.SectionKind, key domain.SectionKey, data json.RawMessage, now time.Time) domain.SectionRecord {
	rec := domain.SectionRecord{
		ID:        uuid.New(),
		Kind:      kind,
		UserID:    key.UserID,
		TaxYear:   key.TaxYear,
		Data:      cloneData(data),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.records[rec.ID] = &storedRecord{rec: rec, seq: s.nextSeq()}
	return cloneRecord(rec)
}

func (s *sectionStore) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// sortedCopies orders newest first. Records written together keep their insertion order.
func sortedCopies(matched []*storedRecord) []domain.SectionRecord {
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].rec.UpdatedAt.Equal(matched[j].rec.UpdatedAt) {
			return matched[i].rec.UpdatedAt.After(matched[j].rec.UpdatedAt)
		}
		return matched[i].seq < matched[j].seq
	})
	out := make([]domain.SectionRecord, 0, len(matched))
	for _, sr := range matched {
		out = append(out, cloneRecord(sr.rec))
	}
	return out
}

func cloneRecord(rec domain.SectionRecord) domain.SectionRecord {
	rec.Data = cloneData(rec.Data)
	return rec
}

func cloneData(data json.RawMessage) json.RawMessage {
	if data == nil {
		return json.RawMessage("{}")
	}
	out := make(json.RawMessage, len(data))
	copy(out, data)
	return out
}

func mergeObjects(base, patch json.RawMessage) (json.RawMessage, error) {
	current := map[string]json.RawMessage{}
	if len(base) > 0 {
		if err := json.Unmarshal(base, &current); err != nil {
			return nil, fmt.Errorf("memory.MergeData: stored data is not an object: %w", err)
		}
	}
	var changes map[string]json.RawMessage
	if err := json.Unmarshal(patch, &changes); err != nil || changes == nil {
		return nil, domain.NewValidationError(domain.ErrSectionShapeMismatch, "update data must be a JSON object")
	}
	for k, v := range changes {
		current[k] = v
	}
	return json.Marshal(current)
}
