package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taxdesk/internal/domain"
	"taxdesk/internal/port"
)

const sectionColumns = "id, kind, user_id, tax_year, data, version, created_at, updated_at"

// Records written in one statement share updated_at; seq keeps their insertion order.
const sectionOrder = "ORDER BY updated_at DESC, seq ASC"

type sectionStore struct {
	db *sqlx.DB
}

// NewSectionStore creates a PostgreSQL-backed SectionStore over the profile_sections table.
func NewSectionStore(db *sqlx.DB) port.SectionStore {
	return &sectionStore{db: db}
}

func (r *sectionStore) Find(ctx context.Context, desc domain.SectionDescriptor, key domain.SectionKey) ([]domain.SectionRecord, error) {
	key = desc.KeyFor(key)
	query := "SELECT " + sectionColumns + " FROM profile_sections WHERE kind = $1 AND user_id = $2"
	args := []interface{}{desc.Kind, key.UserID}
	if key.TaxYear != "" {
		query += " AND tax_year = $3"
		args = append(args, key.TaxYear)
	}
	query += " " + sectionOrder

	records := []domain.SectionRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("sectionStore.Find %s: %w", desc.Kind, err)
	}
	return records, nil
}

func (r *sectionStore) GetByID(ctx context.Context, desc domain.SectionDescriptor, id uuid.UUID) (*domain.SectionRecord, error) {
	var rec domain.SectionRecord
	err := r.db.GetContext(ctx, &rec,
		"SELECT "+sectionColumns+" FROM profile_sections WHERE id = $1 AND kind = $2", id, desc.Kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSectionNotFound
		}
		return nil, fmt.Errorf("sectionStore.GetByID: %w", err)
	}
	return &rec, nil
}

func (r *sectionStore) ListByKind(ctx context.Context, desc domain.SectionDescriptor) ([]domain.SectionRecord, error) {
	records := []domain.SectionRecord{}
	err := r.db.SelectContext(ctx, &records,
		"SELECT "+sectionColumns+" FROM profile_sections WHERE kind = $1 "+sectionOrder, desc.Kind)
	if err != nil {
		return nil, fmt.Errorf("sectionStore.ListByKind %s: %w", desc.Kind, err)
	}
	return records, nil
}

// Upsert relies on the partial unique index over singleton rows, so two
// concurrent saves for the same key resolve to one row holding one payload.
func (r *sectionStore) Upsert(ctx context.Context, desc domain.SectionDescriptor, key domain.SectionKey, data json.RawMessage) (*domain.SectionRecord, error) {
	key = desc.KeyFor(key)
	query := `INSERT INTO profile_sections (id, kind, user_id, tax_year, singleton, data, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, 1, NOW(), NOW())
		ON CONFLICT (kind, user_id, tax_year) WHERE singleton
		DO UPDATE SET data = EXCLUDED.data, version = profile_sections.version + 1, updated_at = NOW()
		RETURNING ` + sectionColumns

	var rec domain.SectionRecord
	err := r.db.GetContext(ctx, &rec, query,
		uuid.New(), desc.Kind, key.UserID, key.TaxYear, desc.IsSingleton(), jsonText(data))
	if err != nil {
		return nil, fmt.Errorf("sectionStore.Upsert %s: %w", desc.Kind, err)
	}
	return &rec, nil
}

func (r *sectionStore) ReplaceAll(ctx context.Context, desc domain.SectionDescriptor, key domain.SectionKey, items []json.RawMessage) (records []domain.SectionRecord, err error) {
	key = desc.KeyFor(key)
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sectionStore.ReplaceAll begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM profile_sections WHERE kind = $1 AND user_id = $2 AND tax_year = $3",
		desc.Kind, key.UserID, key.TaxYear); err != nil {
		return nil, fmt.Errorf("sectionStore.ReplaceAll delete %s: %w", desc.Kind, err)
	}

	records = make([]domain.SectionRecord, 0, len(items))
	for _, item := range items {
		rec, insertErr := insertSection(ctx, tx, desc, key, item)
		if insertErr != nil {
			err = fmt.Errorf("sectionStore.ReplaceAll insert %s: %w", desc.Kind, insertErr)
			return nil, err
		}
		records = append(records, *rec)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("sectionStore.ReplaceAll commit: %w", err)
	}
	return records, nil
}

func (r *sectionStore) CreateMany(ctx context.Context, desc domain.SectionDescriptor, input []domain.SectionRecord) (records []domain.SectionRecord, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sectionStore.CreateMany begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	records = make([]domain.SectionRecord, 0, len(input))
	for i := range input {
		key := desc.KeyFor(domain.SectionKey{UserID: input[i].UserID, TaxYear: input[i].TaxYear})
		rec, insertErr := insertSection(ctx, tx, desc, key, input[i].Data)
		if insertErr != nil {
			if strings.Contains(insertErr.Error(), "duplicate key") {
				err = domain.ErrDuplicateSection
				return nil, err
			}
			err = fmt.Errorf("sectionStore.CreateMany %s: %w", desc.Kind, insertErr)
			return nil, err
		}
		records = append(records, *rec)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("sectionStore.CreateMany commit: %w", err)
	}
	return records, nil
}

func (r *sectionStore) MergeData(ctx context.Context, desc domain.SectionDescriptor, id uuid.UUID, patch json.RawMessage) (*domain.SectionRecord, error) {
	if !isJSONObject(patch) {
		return nil, domain.NewValidationError(domain.ErrSectionShapeMismatch, "update data must be a JSON object")
	}
	var rec domain.SectionRecord
	err := r.db.GetContext(ctx, &rec,
		`UPDATE profile_sections SET data = data || $1::jsonb, version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND kind = $3
		 RETURNING `+sectionColumns,
		jsonText(patch), id, desc.Kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSectionNotFound
		}
		return nil, fmt.Errorf("sectionStore.MergeData: %w", err)
	}
	return &rec, nil
}

func (r *sectionStore) ReplaceData(ctx context.Context, desc domain.SectionDescriptor, id uuid.UUID, expectedVersion int64, data json.RawMessage) (*domain.SectionRecord, error) {
	var rec domain.SectionRecord
	err := r.db.GetContext(ctx, &rec,
		`UPDATE profile_sections SET data = $1::jsonb, version = version + 1, updated_at = NOW()
		 WHERE id = $2 AND kind = $3 AND version = $4
		 RETURNING `+sectionColumns,
		jsonText(data), id, desc.Kind, expectedVersion)
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sectionStore.ReplaceData: %w", err)
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM profile_sections WHERE id = $1 AND kind = $2)", id, desc.Kind); err != nil {
		return nil, fmt.Errorf("sectionStore.ReplaceData exists: %w", err)
	}
	if !exists {
		return nil, domain.ErrSectionNotFound
	}
	return nil, domain.ErrVersionConflict
}

func (r *sectionStore) DeleteByIDs(ctx context.Context, desc domain.SectionDescriptor, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("DELETE FROM profile_sections WHERE kind = ? AND id IN (?)", desc.Kind, ids)
	if err != nil {
		return 0, fmt.Errorf("sectionStore.DeleteByIDs build: %w", err)
	}
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("sectionStore.DeleteByIDs: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

type kindYearCount struct {
	Kind    domain.SectionKind `db:"kind"`
	TaxYear string             `db:"tax_year"`
	Count   int                `db:"count"`
}

func (r *sectionStore) CountByKind(ctx context.Context, descs []domain.SectionDescriptor, key domain.SectionKey) (map[domain.SectionKind]int, error) {
	counts := make(map[domain.SectionKind]int, len(descs))
	if len(descs) == 0 {
		return counts, nil
	}
	kinds := make([]string, 0, len(descs))
	byKind := make(map[domain.SectionKind]domain.SectionDescriptor, len(descs))
	for _, d := range descs {
		kinds = append(kinds, string(d.Kind))
		byKind[d.Kind] = d
		counts[d.Kind] = 0
	}

	query, args, err := sqlx.In(`SELECT kind, tax_year, COUNT(*) AS count FROM profile_sections
		WHERE user_id = ? AND kind IN (?) GROUP BY kind, tax_year`, key.UserID, kinds)
	if err != nil {
		return nil, fmt.Errorf("sectionStore.CountByKind build: %w", err)
	}
	var rows []kindYearCount
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("sectionStore.CountByKind: %w", err)
	}

	for _, row := range rows {
		want := byKind[row.Kind].KeyFor(key).TaxYear
		if want != "" && row.TaxYear != want {
			continue
		}
		counts[row.Kind] += row.Count
	}
	return counts, nil
}

func insertSection(ctx context.Context, tx *sqlx.Tx, desc domain.SectionDescriptor, key domain.SectionKey, data json.RawMessage) (*domain.SectionRecord, error) {
	var rec domain.SectionRecord
	err := tx.GetContext(ctx, &rec,
		`INSERT INTO profile_sections (id, kind, user_id, tax_year, singleton, data, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, 1, NOW(), NOW())
		 RETURNING `+sectionColumns,
		uuid.New(), desc.Kind, key.UserID, key.TaxYear, desc.IsSingleton(), jsonText(data))
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func jsonText(data json.RawMessage) string {
	if len(data) == 0 {
		return "{}"
	}
	return string(data)
}

func isJSONObject(data json.RawMessage) bool {
	var m map[string]json.RawMessage
	return json.Unmarshal(data, &m) == nil && m != nil
}
