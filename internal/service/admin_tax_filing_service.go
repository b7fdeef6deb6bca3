package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"taxdesk/internal/domain"
	"taxdesk/internal/logger"
	"taxdesk/internal/port"
	"taxdesk/internal/report"
)

const maxReportRows = 5000

// UpdateFilingStatusInput is the DTO for one filing status transition.
type UpdateFilingStatusInput struct {
	FilingID   uuid.UUID
	Status     domain.FilingStatus
	Remarks    string
	AdminNotes *string
	ChangedBy  uuid.UUID
}

// BulkFilingStatusInput is the DTO for a bulk status transition.
type BulkFilingStatusInput struct {
	FilingIDs []string
	Status    domain.FilingStatus
	Remarks   string
	ChangedBy uuid.UUID
}

// BulkFilingStatusResult reports which filings were transitioned.
type BulkFilingStatusResult struct {
	Status       domain.FilingStatus `json:"status"`
	UpdatedIDs   []uuid.UUID         `json:"updatedIds"`
	NotFoundIDs  []uuid.UUID         `json:"notFoundIds"`
	UpdatedCount int                 `json:"updatedCount"`
}

// AdminTaxFilingService is the admin view over tax filings.
type AdminTaxFilingService interface {
	List(ctx context.Context, filters domain.TaxFilingFilters) (*domain.TaxFilingPage, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.TaxFilingView, error)
	UpdateStatus(ctx context.Context, input UpdateFilingStatusInput) (*domain.TaxFiling, error)
	BulkUpdateStatus(ctx context.Context, input BulkFilingStatusInput) (*BulkFilingStatusResult, error)
	Report(ctx context.Context, filters domain.TaxFilingFilters, format domain.ReportFormat) (*ReportFile, error)
}

type adminTaxFilingService struct {
	filingRepo port.TaxFilingRepository
	userRepo   port.UserRepository
	notifier   Notifier
	log        *logger.Logger
}

// NewAdminTaxFilingService creates a new AdminTaxFilingService implementation.
func NewAdminTaxFilingService(
	filingRepo port.TaxFilingRepository,
	userRepo port.UserRepository,
	notifier Notifier,
	log *logger.Logger,
) AdminTaxFilingService {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	return &adminTaxFilingService{
		filingRepo: filingRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		log:        log.With("component", "admin_tax_filing_service"),
	}
}

func validateFilingFilters(f *domain.TaxFilingFilters) error {
	if f.Status != "" && !domain.ValidFilingStatuses[f.Status] {
		return domain.NewValidationError(domain.ErrInvalidFilingStatus, fmt.Sprintf("unknown status %q", f.Status))
	}
	if f.FilingType != "" && !domain.ValidFilingTypes[f.FilingType] {
		return domain.NewValidationError(domain.ErrInvalidRecord, fmt.Sprintf("unknown filingType %q", f.FilingType))
	}
	if f.SortBy != "" {
		if _, ok := domain.TaxFilingSortFields[f.SortBy]; !ok {
			return domain.NewValidationError(domain.ErrInvalidRecord, fmt.Sprintf("cannot sort by %q", f.SortBy))
		}
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	return validateTaxYear(f.TaxYear)
}

func (s *adminTaxFilingService) List(ctx context.Context, filters domain.TaxFilingFilters) (*domain.TaxFilingPage, error) {
	if err := validateFilingFilters(&filters); err != nil {
		return nil, err
	}

	var (
		filings []domain.TaxFilingView
		total   int
		stats   *domain.TaxFilingStatistics
		years   []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		filings, total, err = s.filingRepo.List(gctx, &filters)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.filingRepo.Statistics(gctx, &filters)
		return err
	})
	g.Go(func() error {
		var err error
		years, err = s.filingRepo.TaxYears(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &domain.TaxFilingPage{
		Filings:    filings,
		Pagination: domain.NewPagination(filters.Page, filters.Limit, total),
		Statistics: *stats,
		Filters: domain.TaxFilingFilterOptions{
			Statuses:    domain.FilingStatuses,
			FilingTypes: []domain.FilingType{domain.FilingTypeIndividual, domain.FilingTypeBusiness, domain.FilingTypeAOP, domain.FilingTypeRevised},
			TaxYears:    years,
		},
	}, nil
}

func (s *adminTaxFilingService) Get(ctx context.Context, id uuid.UUID) (*domain.TaxFilingView, error) {
	return s.filingRepo.GetByID(ctx, id)
}

func (s *adminTaxFilingService) UpdateStatus(ctx context.Context, input UpdateFilingStatusInput) (*domain.TaxFiling, error) {
	if !domain.ValidFilingStatuses[input.Status] {
		return nil, domain.NewValidationError(domain.ErrInvalidFilingStatus,
			fmt.Sprintf("status must be one of: pending, under_review, completed, rejected (got %q)", input.Status))
	}

	filing, err := s.filingRepo.UpdateStatus(ctx, input.FilingID, domain.FilingStatusUpdate{
		Status:     input.Status,
		Remarks:    strings.TrimSpace(input.Remarks),
		AdminNotes: input.AdminNotes,
		ChangedBy:  input.ChangedBy,
	})
	if err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, filing.UserID, filing.TaxYear, filing.Status, filing.Remarks)
	s.log.Info("tax filing status updated", "filing", filing.ID, "status", filing.Status, "changed_by", input.ChangedBy)
	return filing, nil
}

func (s *adminTaxFilingService) BulkUpdateStatus(ctx context.Context, input BulkFilingStatusInput) (*BulkFilingStatusResult, error) {
	if !domain.ValidFilingStatuses[input.Status] {
		return nil, domain.NewValidationError(domain.ErrInvalidFilingStatus,
			fmt.Sprintf("status must be one of: pending, under_review, completed, rejected (got %q)", input.Status))
	}
	if err := checkBatchSize(len(input.FilingIDs)); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(input.FilingIDs))
	for i, raw := range input.FilingIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, domain.NewValidationError(domain.ErrInvalidID,
				fmt.Sprintf("filingIds[%d]: %q is not a valid id", i, raw))
		}
		ids = append(ids, id)
	}
	ids = lo.Uniq(ids)

	updated, err := s.filingRepo.BulkUpdateStatus(ctx, ids, domain.FilingStatusUpdate{
		Status:    input.Status,
		Remarks:   strings.TrimSpace(input.Remarks),
		ChangedBy: input.ChangedBy,
	})
	if err != nil {
		return nil, err
	}

	for _, id := range updated {
		filing, err := s.filingRepo.GetByID(ctx, id)
		if err != nil {
			s.log.Warn("bulk status: reload failed", "filing", id, "error", err)
			continue
		}
		s.notifyOwner(ctx, filing.UserID, filing.TaxYear, filing.Status, filing.Remarks)
	}

	notFound := lo.Without(ids, updated...)
	if notFound == nil {
		notFound = []uuid.UUID{}
	}
	s.log.Info("tax filing bulk status", "status", input.Status, "updated", len(updated), "not_found", len(notFound), "changed_by", input.ChangedBy)
	return &BulkFilingStatusResult{
		Status:       input.Status,
		UpdatedIDs:   updated,
		NotFoundIDs:  notFound,
		UpdatedCount: len(updated),
	}, nil
}

func (s *adminTaxFilingService) notifyOwner(ctx context.Context, userID uuid.UUID, taxYear string, status domain.FilingStatus, remarks string) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.log.Warn("filing owner lookup failed", "user", userID, "error", err)
		return
	}
	s.notifier.Notify(Notification{
		Kind: NotifyFilingStatus,
		Notice: port.StatusNotice{
			ToEmail: user.Email,
			ToName:  user.FullName,
			Subject: "Tax filing " + taxYear,
			Status:  string(status),
			Reason:  remarks,
		},
	})
}

func (s *adminTaxFilingService) Report(ctx context.Context, filters domain.TaxFilingFilters, format domain.ReportFormat) (*ReportFile, error) {
	if err := validateFilingFilters(&filters); err != nil {
		return nil, err
	}
	filters.Page = 1
	filters.Limit = maxReportRows

	var (
		filings []domain.TaxFilingView
		total   int
		stats   *domain.TaxFilingStatistics
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		filings, total, err = s.filingRepo.List(gctx, &filters)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.filingRepo.Statistics(gctx, &filters)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := []report.Field{{Label: "Total filings", Value: strconv.Itoa(stats.Total)}}
	for _, st := range domain.FilingStatuses {
		summary = append(summary, report.Field{Label: statusLabel(st), Value: strconv.Itoa(stats.ByStatus[st])})
	}
	summary = append(summary, report.Field{Label: "Total tax payable", Value: stats.TotalTaxPayable.StringFixed(2)})
	if total > len(filings) {
		summary = append(summary, report.Field{Label: "Rows shown", Value: fmt.Sprintf("%d of %d", len(filings), total)})
	}

	t := &report.Table{
		Title:   "Tax Filings Report",
		Summary: summary,
		Columns: []string{"Filing ID", "User", "Email", "CNIC", "Tax Year", "Type", "Status", "Taxable Income", "Tax Payable", "Submitted", "Completed At"},
		Rows: lo.Map(filings, func(f domain.TaxFilingView, _ int) []string {
			return []string{
				f.ID.String(), f.UserName, f.UserEmail, f.UserCNIC, f.TaxYear, string(f.FilingType),
				statusLabel(f.Status), f.TaxableIncome.StringFixed(2), f.TaxPayable.StringFixed(2),
				report.FormatTime(&f.CreatedAt), report.FormatTime(f.CompletedAt),
			}
		}),
	}

	content, err := report.Render(format, t)
	if err != nil {
		return nil, err
	}
	return &ReportFile{
		Filename:    report.BuildFilename("tax_filings_report", format, t.GeneratedAt),
		ContentType: domain.ReportContentTypes[format],
		Content:     content,
	}, nil
}

func statusLabel(s domain.FilingStatus) string {
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
