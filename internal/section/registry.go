// Package section holds the registry of profile section kinds and the
// accessor that binds a kind to its store.
package section

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"taxdesk/internal/domain"
)

// GroupOrder is the fixed order of the profile's top-level groups.
var GroupOrder = []domain.SectionGroup{
	domain.GroupIncomeDetails,
	domain.GroupAssetDetails,
	domain.GroupDeductions,
	domain.GroupLiabilitiesAndExpenses,
	domain.GroupTaxAndFiling,
	domain.GroupProfileAndRegistration,
	domain.GroupOtherData,
}

// Registry maps section kinds to their descriptors. Registration order is
// preserved and drives the order of saves and reads.
type Registry struct {
	mu      sync.RWMutex
	byKind  map[domain.SectionKind]domain.SectionDescriptor
	ordered []domain.SectionDescriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byKind: make(map[domain.SectionKind]domain.SectionDescriptor)}
}

// Register adds a descriptor. Registering the same kind twice is an error.
func (r *Registry) Register(desc domain.SectionDescriptor) error {
	if desc.Kind == "" {
		return fmt.Errorf("section.Register: empty kind")
	}
	if desc.Shape != domain.ShapeSingleton && desc.Shape != domain.ShapeList {
		return fmt.Errorf("section.Register: %s: invalid shape %q", desc.Kind, desc.Shape)
	}
	if !isKnownGroup(desc.Group) {
		return fmt.Errorf("section.Register: %s: unknown group %q", desc.Kind, desc.Group)
	}
	if desc.Collection == "" {
		desc.Collection = collectionName(desc.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKind[desc.Kind]; exists {
		return fmt.Errorf("section.Register: %s already registered", desc.Kind)
	}
	r.byKind[desc.Kind] = desc
	r.ordered = append(r.ordered, desc)
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(desc domain.SectionDescriptor) {
	if err := r.Register(desc); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor for kind.
func (r *Registry) Lookup(kind domain.SectionKind) (domain.SectionDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.byKind[kind]
	return desc, ok
}

// Leaf resolves a leaf key inside a group. The kind must belong to that group.
func (r *Registry) Leaf(group domain.SectionGroup, key string) (domain.SectionDescriptor, bool) {
	desc, ok := r.Lookup(domain.SectionKind(key))
	if !ok || desc.Group != group {
		return domain.SectionDescriptor{}, false
	}
	return desc, true
}

// Group returns the descriptors of one group in registration order.
func (r *Registry) Group(group domain.SectionGroup) []domain.SectionDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.SectionDescriptor
	for _, d := range r.ordered {
		if d.Group == group {
			out = append(out, d)
		}
	}
	return out
}

// All returns every descriptor in registration order.
func (r *Registry) All() []domain.SectionDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SectionDescriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Groups returns the groups that have at least one registered kind, in profile order.
func (r *Registry) Groups() []domain.SectionGroup {
	var out []domain.SectionGroup
	for _, g := range GroupOrder {
		if len(r.Group(g)) > 0 {
			out = append(out, g)
		}
	}
	return out
}

func isKnownGroup(g domain.SectionGroup) bool {
	for _, known := range GroupOrder {
		if known == g {
			return true
		}
	}
	return false
}

// collectionName turns a kind such as "salaryIncome" into "salary_income".
func collectionName(kind domain.SectionKind) string {
	var b strings.Builder
	for i, r := range string(kind) {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
