package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"taxdesk/internal/domain"
	"taxdesk/internal/logger"
	"taxdesk/internal/port"
	"taxdesk/internal/section"
)

// SaveProfileInput is the DTO for saving a whole profile. Data maps a group
// name to that group's leaves, mirroring the shape GetAllUserData returns.
type SaveProfileInput struct {
	UserID  uuid.UUID
	TaxYear string
	Data    map[string]json.RawMessage
}

// ProfileService reads and writes the composite tax filing profile.
type ProfileService interface {
	GetAllUserData(ctx context.Context, userID uuid.UUID, taxYear string) (*domain.Profile, error)
	SaveAllUserData(ctx context.Context, input SaveProfileInput) (*domain.SaveResult, error)
	Statistics(ctx context.Context, userID uuid.UUID, taxYear string) (*domain.ProfileStatistics, error)
}

type profileService struct {
	registry        *section.Registry
	store           port.SectionStore
	filingRepo      port.TaxFilingRepository
	readConcurrency int
	log             *logger.Logger
}

// NewProfileService creates a new ProfileService implementation.
func NewProfileService(
	registry *section.Registry,
	store port.SectionStore,
	filingRepo port.TaxFilingRepository,
	readConcurrency int,
	log *logger.Logger,
) ProfileService {
	if readConcurrency < 1 {
		readConcurrency = 1
	}
	return &profileService{
		registry:        registry,
		store:           store,
		filingRepo:      filingRepo,
		readConcurrency: readConcurrency,
		log:             log.With("component", "profile_service"),
	}
}

func (s *profileService) GetAllUserData(ctx context.Context, userID uuid.UUID, taxYear string) (*domain.Profile, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrMissingUserID
	}
	if err := validateTaxYear(taxYear); err != nil {
		return nil, err
	}

	descs := s.registry.All()
	key := domain.SectionKey{UserID: userID, TaxYear: taxYear}
	values := make([]interface{}, len(descs))
	var filings []domain.TaxFilingView

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.readConcurrency)
	for i := range descs {
		g.Go(func() error {
			v, err := section.NewAccessor(descs[i], s.store).Load(gctx, key)
			if err != nil {
				return fmt.Errorf("loading %s: %w", descs[i].Kind, err)
			}
			values[i] = v
			return nil
		})
	}
	g.Go(func() error {
		list, err := s.filingRepo.ListByUser(gctx, userID, taxYear)
		if err != nil {
			return fmt.Errorf("loading %s: %w", domain.TaxFilingsLeaf, err)
		}
		filings = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profile := domain.NewProfile(userID, taxYear)
	for i, desc := range descs {
		profile.Group(desc.Group)[string(desc.Kind)] = values[i]
	}
	if filings == nil {
		filings = []domain.TaxFilingView{}
	}
	profile.TaxAndFiling[domain.TaxFilingsLeaf] = filings
	profile.Summary = summarize(profile)
	return profile, nil
}

// summarize counts populated leaves per group. A group with at least one
// populated leaf counts toward completeness.
func summarize(p *domain.Profile) domain.ProfileSummary {
	sum := domain.ProfileSummary{
		Groups:      make(map[domain.SectionGroup]int, len(section.GroupOrder)),
		TotalGroups: len(section.GroupOrder),
	}
	for _, g := range section.GroupOrder {
		populated := 0
		for _, v := range p.Group(g) {
			sum.TotalSections++
			if domain.IsPopulated(v) {
				populated++
			}
		}
		sum.Groups[g] = populated
		sum.PopulatedSections += populated
		if populated > 0 {
			sum.PopulatedGroups++
		}
	}
	sum.ProfileCompleteness = domain.Completeness(sum.PopulatedGroups, sum.TotalGroups)
	return sum
}

func (s *profileService) SaveAllUserData(ctx context.Context, input SaveProfileInput) (*domain.SaveResult, error) {
	if input.UserID == uuid.Nil {
		return nil, domain.ErrMissingUserID
	}
	if err := validateTaxYear(input.TaxYear); err != nil {
		return nil, err
	}

	key := domain.SectionKey{UserID: input.UserID, TaxYear: input.TaxYear}
	result := &domain.SaveResult{SavedData: make(map[domain.SectionGroup]domain.ProfileGroup)}

	for _, name := range unknownGroups(input.Data) {
		result.Errors = append(result.Errors, domain.SectionError{
			Section: name,
			Error:   domain.ErrUnknownSection.Error(),
		})
	}

	for _, group := range section.GroupOrder {
		raw, ok := input.Data[string(group)]
		if !ok || isJSONNull(raw) {
			continue
		}
		saved, err := s.saveGroup(ctx, group, key, raw)
		if len(saved) > 0 {
			result.SavedData[group] = saved
		}
		if err != nil {
			s.log.Warn("profile group save failed", "group", group, "user", input.UserID, "tax_year", input.TaxYear, "error", err)
			result.Errors = append(result.Errors, domain.SectionError{Section: string(group), Error: err.Error()})
		}
	}

	s.log.Info("profile saved", "user", input.UserID, "tax_year", input.TaxYear,
		"groups", len(result.SavedData), "errors", len(result.Errors))
	return result, nil
}

// saveGroup writes one group's leaves in registry order and stops at the
// first failure. Leaves written before the failure stay written.
func (s *profileService) saveGroup(ctx context.Context, group domain.SectionGroup, key domain.SectionKey, raw json.RawMessage) (domain.ProfileGroup, error) {
	var leaves map[string]json.RawMessage
	if err := json.Unmarshal(raw, &leaves); err != nil || leaves == nil {
		return nil, domain.NewValidationError(domain.ErrSectionShapeMismatch,
			fmt.Sprintf("%s must be an object", group))
	}

	for _, leaf := range sortedKeys(leaves) {
		if leaf == domain.TaxFilingsLeaf && group == domain.GroupTaxAndFiling {
			continue
		}
		if _, ok := s.registry.Leaf(group, leaf); !ok {
			return nil, domain.NewValidationError(domain.ErrUnknownSection,
				fmt.Sprintf("unknown section %s.%s", group, leaf))
		}
	}

	saved := domain.ProfileGroup{}
	for _, desc := range s.registry.Group(group) {
		leafRaw, ok := leaves[string(desc.Kind)]
		if !ok || isJSONNull(leafRaw) {
			continue
		}
		value, err := section.NewAccessor(desc, s.store).Save(ctx, key, leafRaw)
		if err != nil {
			return saved, fmt.Errorf("%s: %w", desc.Kind, err)
		}
		saved[string(desc.Kind)] = value
	}
	return saved, nil
}

func (s *profileService) Statistics(ctx context.Context, userID uuid.UUID, taxYear string) (*domain.ProfileStatistics, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrMissingUserID
	}
	if err := validateTaxYear(taxYear); err != nil {
		return nil, err
	}

	descs := s.registry.All()
	key := domain.SectionKey{UserID: userID, TaxYear: taxYear}

	var (
		counts  map[domain.SectionKind]int
		filings []domain.TaxFilingView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.store.CountByKind(gctx, descs, key)
		return err
	})
	g.Go(func() error {
		var err error
		filings, err = s.filingRepo.ListByUser(gctx, userID, taxYear)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("profileService.Statistics: %w", err)
	}

	stats := &domain.ProfileStatistics{
		UserID:      userID,
		TaxYear:     taxYear,
		Counts:      counts,
		GroupTotals: make(map[domain.SectionGroup]int, len(section.GroupOrder)),
		TaxFilings:  len(filings),
	}
	for _, grp := range section.GroupOrder {
		stats.GroupTotals[grp] = 0
	}
	for _, desc := range descs {
		n := counts[desc.Kind]
		stats.GroupTotals[desc.Group] += n
		stats.TotalRecords += n
	}
	stats.GroupTotals[domain.GroupTaxAndFiling] += len(filings)

	populated := 0
	for _, grp := range section.GroupOrder {
		if stats.GroupTotals[grp] > 0 {
			populated++
		}
	}
	stats.ProfileCompleteness = domain.Completeness(populated, len(section.GroupOrder))
	return stats, nil
}

func unknownGroups(data map[string]json.RawMessage) []string {
	known := make(map[string]bool, len(section.GroupOrder))
	for _, g := range section.GroupOrder {
		known[string(g)] = true
	}
	var out []string
	for name := range data {
		if !known[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isJSONNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
