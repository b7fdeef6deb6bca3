package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"taxdesk/internal/domain"
	"taxdesk/internal/logger"
	"taxdesk/internal/port"
	"taxdesk/internal/section"
)

// Bulk operations accepted by BulkService.
const (
	BulkCreate = "create"
	BulkUpdate = "update"
	BulkDelete = "delete"
)

const maxBulkItems = 500

// BulkCreateInput carries records to insert. Each record is a flat JSON
// object holding userId, an optional taxYear and the section fields.
type BulkCreateInput struct {
	Actor    domain.Actor
	DataType string
	Records  []json.RawMessage
}

// BulkUpdateItem is one shallow-merge update.
type BulkUpdateItem struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// BulkUpdateInput carries independent updates of one section kind.
type BulkUpdateInput struct {
	Actor    domain.Actor
	DataType string
	Updates  []BulkUpdateItem
}

// BulkDeleteInput carries ids to delete.
type BulkDeleteInput struct {
	Actor    domain.Actor
	DataType string
	IDs      []string
}

// BulkCreateResult is the outcome of a bulk create.
type BulkCreateResult struct {
	DataType     string                 `json:"dataType"`
	CreatedCount int                    `json:"createdCount"`
	Records      []domain.SectionRecord `json:"records"`
}

// BulkItemResult is the outcome of one update item.
type BulkItemResult struct {
	ID      string                `json:"id"`
	Success bool                  `json:"success"`
	Record  *domain.SectionRecord `json:"record,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// BulkUpdateResult lists every item's outcome in input order.
type BulkUpdateResult struct {
	DataType  string           `json:"dataType"`
	Results   []BulkItemResult `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// BulkDeleteResult is the outcome of a bulk delete.
type BulkDeleteResult struct {
	DataType     string `json:"dataType"`
	Requested    int    `json:"requested"`
	DeletedCount int64  `json:"deletedCount"`
}

// BulkService creates, updates and deletes records of any registered section kind.
type BulkService interface {
	Create(ctx context.Context, input BulkCreateInput) (*BulkCreateResult, error)
	Update(ctx context.Context, input BulkUpdateInput) (*BulkUpdateResult, error)
	Delete(ctx context.Context, input BulkDeleteInput) (*BulkDeleteResult, error)
}

type bulkService struct {
	registry         *section.Registry
	store            port.SectionStore
	writeConcurrency int
	log              *logger.Logger
}

// NewBulkService creates a new BulkService implementation.
func NewBulkService(registry *section.Registry, store port.SectionStore, writeConcurrency int, log *logger.Logger) BulkService {
	if writeConcurrency < 1 {
		writeConcurrency = 1
	}
	return &bulkService{
		registry:         registry,
		store:            store,
		writeConcurrency: writeConcurrency,
		log:              log.With("component", "bulk_service"),
	}
}

// recordKeyFields are lifted out of a bulk record into its key.
type recordKeyFields struct {
	UserID  string `json:"userId" validate:"required,uuid"`
	TaxYear string `json:"taxYear" validate:"omitempty,max=9"`
}

func (s *bulkService) resolve(dataType string) (domain.SectionDescriptor, error) {
	desc, ok := s.registry.Lookup(domain.SectionKind(dataType))
	if !ok {
		return domain.SectionDescriptor{}, domain.NewValidationError(domain.ErrUnknownDataType,
			fmt.Sprintf("unknown dataType %q", dataType))
	}
	return desc, nil
}

func checkBatchSize(n int) error {
	if n == 0 {
		return domain.ErrEmptyBatch
	}
	if n > maxBulkItems {
		return domain.NewValidationError(domain.ErrBatchTooLarge,
			fmt.Sprintf("at most %d items per request", maxBulkItems))
	}
	return nil
}

func (s *bulkService) Create(ctx context.Context, input BulkCreateInput) (*BulkCreateResult, error) {
	desc, err := s.resolve(input.DataType)
	if err != nil {
		return nil, err
	}
	if err := checkBatchSize(len(input.Records)); err != nil {
		return nil, err
	}

	// Every record is checked before anything is written.
	records := make([]domain.SectionRecord, 0, len(input.Records))
	for i, raw := range input.Records {
		rec, err := parseBulkRecord(raw, i)
		if err != nil {
			return nil, err
		}
		if !input.Actor.CanAccess(rec.UserID) {
			return nil, domain.ErrForbidden
		}
		rec.Kind = desc.Kind
		records = append(records, rec)
	}

	created, err := s.store.CreateMany(ctx, desc, records)
	if err != nil {
		return nil, err
	}
	s.log.Info("bulk create", "data_type", desc.Kind, "count", len(created), "actor", input.Actor.UserID)
	return &BulkCreateResult{DataType: string(desc.Kind), CreatedCount: len(created), Records: created}, nil
}

// parseBulkRecord splits a flat record into its key and the remaining fields.
func parseBulkRecord(raw json.RawMessage, index int) (domain.SectionRecord, error) {
	prefix := fmt.Sprintf("records[%d]: ", index)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return domain.SectionRecord{}, domain.NewValidationError(domain.ErrInvalidRecord, prefix+"must be an object")
	}

	var keyFields recordKeyFields
	if err := json.Unmarshal(raw, &keyFields); err != nil {
		return domain.SectionRecord{}, domain.NewValidationError(domain.ErrInvalidRecord, prefix+"userId and taxYear must be strings")
	}
	if err := validate.Struct(keyFields); err != nil {
		return domain.SectionRecord{}, domain.NewValidationError(domain.ErrInvalidRecord, validationMessage(prefix, err))
	}

	delete(fields, "userId")
	delete(fields, "taxYear")
	delete(fields, "id")
	data, err := json.Marshal(fields)
	if err != nil {
		return domain.SectionRecord{}, fmt.Errorf("encoding record %d: %w", index, err)
	}
	return domain.SectionRecord{
		UserID:  uuid.MustParse(keyFields.UserID),
		TaxYear: keyFields.TaxYear,
		Data:    data,
	}, nil
}

// Update runs every item on its own. A failing item never cancels or
// discards its siblings.
func (s *bulkService) Update(ctx context.Context, input BulkUpdateInput) (*BulkUpdateResult, error) {
	desc, err := s.resolve(input.DataType)
	if err != nil {
		return nil, err
	}
	if err := checkBatchSize(len(input.Updates)); err != nil {
		return nil, err
	}

	results := make([]BulkItemResult, len(input.Updates))
	var g errgroup.Group
	g.SetLimit(s.writeConcurrency)
	for i, item := range input.Updates {
		g.Go(func() error {
			results[i] = s.updateOne(ctx, desc, input.Actor, item)
			return nil
		})
	}
	_ = g.Wait()

	res := &BulkUpdateResult{DataType: string(desc.Kind), Results: results}
	for _, r := range results {
		if r.Success {
			res.Succeeded++
		} else {
			res.Failed++
		}
	}
	s.log.Info("bulk update", "data_type", desc.Kind, "succeeded", res.Succeeded, "failed", res.Failed, "actor", input.Actor.UserID)
	return res, nil
}

func (s *bulkService) updateOne(ctx context.Context, desc domain.SectionDescriptor, actor domain.Actor, item BulkUpdateItem) BulkItemResult {
	fail := func(err error) BulkItemResult {
		return BulkItemResult{ID: item.ID, Error: err.Error()}
	}

	id, err := uuid.Parse(item.ID)
	if err != nil {
		return fail(domain.ErrInvalidID)
	}
	data := bytes.TrimSpace(item.Data)
	if len(data) == 0 || data[0] != '{' {
		return fail(domain.NewValidationError(domain.ErrSectionShapeMismatch, "data must be a JSON object"))
	}
	if ctx.Err() != nil {
		return fail(ctx.Err())
	}

	if !actor.Role.IsStaff() {
		current, err := s.store.GetByID(ctx, desc, id)
		if err != nil {
			return fail(err)
		}
		if current.UserID != actor.UserID {
			return fail(domain.ErrForbidden)
		}
	}

	rec, err := s.store.MergeData(ctx, desc, id, data)
	if err != nil {
		if !errors.Is(err, domain.ErrSectionNotFound) {
			s.log.Warn("bulk update item failed", "data_type", desc.Kind, "id", id, "error", err)
		}
		return fail(err)
	}
	return BulkItemResult{ID: item.ID, Success: true, Record: rec}
}

// Delete validates every id before deleting anything.
func (s *bulkService) Delete(ctx context.Context, input BulkDeleteInput) (*BulkDeleteResult, error) {
	desc, err := s.resolve(input.DataType)
	if err != nil {
		return nil, err
	}
	if err := checkBatchSize(len(input.IDs)); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(input.IDs))
	for i, raw := range input.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, domain.NewValidationError(domain.ErrInvalidID,
				fmt.Sprintf("ids[%d]: %q is not a valid id", i, raw))
		}
		ids = append(ids, id)
	}
	ids = lo.Uniq(ids)

	if !input.Actor.Role.IsStaff() {
		for _, id := range ids {
			rec, err := s.store.GetByID(ctx, desc, id)
			if errors.Is(err, domain.ErrSectionNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if rec.UserID != input.Actor.UserID {
				return nil, domain.ErrForbidden
			}
		}
	}

	deleted, err := s.store.DeleteByIDs(ctx, desc, ids)
	if err != nil {
		return nil, err
	}
	s.log.Info("bulk delete", "data_type", desc.Kind, "requested", len(input.IDs), "deleted", deleted, "actor", input.Actor.UserID)
	return &BulkDeleteResult{DataType: string(desc.Kind), Requested: len(input.IDs), DeletedCount: deleted}, nil
}
