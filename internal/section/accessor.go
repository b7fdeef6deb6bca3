package section

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"taxdesk/internal/domain"
	"taxdesk/internal/port"
)

// Accessor binds one section kind to the store that holds it.
type Accessor struct {
	desc  domain.SectionDescriptor
	store port.SectionStore
}

// NewAccessor returns an accessor for desc backed by store.
func NewAccessor(desc domain.SectionDescriptor, store port.SectionStore) Accessor {
	return Accessor{desc: desc, store: store}
}

// Descriptor returns the bound descriptor.
func (a Accessor) Descriptor() domain.SectionDescriptor {
	return a.desc
}

// Find returns every record for key, newest first.
func (a Accessor) Find(ctx context.Context, key domain.SectionKey) ([]domain.SectionRecord, error) {
	return a.store.Find(ctx, a.desc, key)
}

// FindOne returns the newest record for key, or nil when there is none.
func (a Accessor) FindOne(ctx context.Context, key domain.SectionKey) (*domain.SectionRecord, error) {
	records, err := a.store.Find(ctx, a.desc, key)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (a Accessor) Upsert(ctx context.Context, key domain.SectionKey, data json.RawMessage) (*domain.SectionRecord, error) {
	return a.store.Upsert(ctx, a.desc, key, data)
}

func (a Accessor) ReplaceAll(ctx context.Context, key domain.SectionKey, items []json.RawMessage) ([]domain.SectionRecord, error) {
	return a.store.ReplaceAll(ctx, a.desc, key, items)
}

// Load reads the section in its profile form: *SectionRecord (nil when
// absent) for singletons, a non-nil slice for lists.
func (a Accessor) Load(ctx context.Context, key domain.SectionKey) (interface{}, error) {
	if a.desc.IsSingleton() {
		rec, err := a.FindOne(ctx, key)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, nil
		}
		return rec, nil
	}
	records, err := a.Find(ctx, key)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.SectionRecord{}
	}
	return records, nil
}

// Save writes a profile leaf. A JSON object upserts a singleton, a JSON
// array replaces a list. Any other payload, or one whose shape does not
// match the kind, is a validation error.
func (a Accessor) Save(ctx context.Context, key domain.SectionKey, raw json.RawMessage) (interface{}, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) > 0 && raw[0] == '{':
		if !a.desc.IsSingleton() {
			return nil, a.shapeError("array")
		}
		return a.Upsert(ctx, key, raw)

	case len(raw) > 0 && raw[0] == '[':
		if a.desc.IsSingleton() {
			return nil, a.shapeError("object")
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, domain.NewValidationError(domain.ErrSectionShapeMismatch,
				fmt.Sprintf("%s: invalid array payload", a.desc.Kind))
		}
		for i, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) == 0 || item[0] != '{' {
				return nil, domain.NewValidationError(domain.ErrSectionShapeMismatch,
					fmt.Sprintf("%s[%d]: each item must be an object", a.desc.Kind, i))
			}
		}
		return a.ReplaceAll(ctx, key, items)

	default:
		return nil, a.shapeError(expectedShape(a.desc))
	}
}

func (a Accessor) shapeError(want string) error {
	return domain.NewValidationError(domain.ErrSectionShapeMismatch,
		fmt.Sprintf("%s expects an %s", a.desc.Kind, want))
}

func expectedShape(desc domain.SectionDescriptor) string {
	if desc.IsSingleton() {
		return "object"
	}
	return "array"
}
