package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taxdesk/internal/domain"
	"taxdesk/internal/logger"
	"taxdesk/internal/service"
	"taxdesk/mocks"
)

func newAdminFilingService() (service.AdminTaxFilingService, *mocks.MockTaxFilingRepo, *mocks.MockUserRepo, *recordingNotifier) {
	filingRepo := new(mocks.MockTaxFilingRepo)
	userRepo := new(mocks.MockUserRepo)
	notifier := &recordingNotifier{}
	return service.NewAdminTaxFilingService(filingRepo, userRepo, notifier, logger.Nop()), filingRepo, userRepo, notifier
}

func TestAdminTaxFilingService_List(t *testing.T) {
	svc, filingRepo, _, _ := newAdminFilingService()

	filing := domain.TaxFilingView{TaxFiling: domain.TaxFiling{ID: uuid.New(), TaxYear: "2024-25"}, UserName: "Sana"}
	stats := &domain.TaxFilingStatistics{Total: 11, ByStatus: map[domain.FilingStatus]int{domain.FilingStatusPending: 11}}

	filingRepo.On("List", mock.Anything, mock.MatchedBy(func(f *domain.TaxFilingFilters) bool {
		return f.Page == 2 && f.Limit == 10 && f.Status == domain.FilingStatusPending
	})).Return([]domain.TaxFilingView{filing}, 11, nil)
	filingRepo.On("Statistics", mock.Anything, mock.Anything).Return(stats, nil)
	filingRepo.On("TaxYears", mock.Anything).Return([]string{"2024-25", "2023-24"}, nil)

	page, err := svc.List(context.Background(), domain.TaxFilingFilters{Status: domain.FilingStatusPending, Page: 2})
	require.NoError(t, err)

	assert.Len(t, page.Filings, 1)
	assert.Equal(t, 11, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)
	assert.Equal(t, 11, page.Statistics.Total)
	assert.Equal(t, []string{"2024-25", "2023-24"}, page.Filters.TaxYears)
	assert.Equal(t, domain.FilingStatuses, page.Filters.Statuses)
	filingRepo.AssertExpectations(t)
}

func TestAdminTaxFilingService_ListRejectsBadFilters(t *testing.T) {
	svc, filingRepo, _, _ := newAdminFilingService()

	tests := []struct {
		name    string
		filters domain.TaxFilingFilters
		wantErr error
	}{
		{"status", domain.TaxFilingFilters{Status: "lost"}, domain.ErrInvalidFilingStatus},
		{"filing type", domain.TaxFilingFilters{FilingType: "trust"}, domain.ErrInvalidRecord},
		{"sort field", domain.TaxFilingFilters{SortBy: "password"}, domain.ErrInvalidRecord},
		{"tax year", domain.TaxFilingFilters{TaxYear: "2024-2025-26"}, domain.ErrInvalidTaxYear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.List(context.Background(), tt.filters)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	filingRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestAdminTaxFilingService_UpdateStatus(t *testing.T) {
	svc, filingRepo, userRepo, notifier := newAdminFilingService()
	owner := &domain.User{ID: uuid.New(), FullName: "Sana Mir", Email: "sana@example.com"}
	adminID := uuid.New()
	notes := "called client"
	filingID := uuid.New()

	filingRepo.On("UpdateStatus", mock.Anything, filingID, domain.FilingStatusUpdate{
		Status:     domain.FilingStatusCompleted,
		Remarks:    "Filed with FBR",
		AdminNotes: &notes,
		ChangedBy:  adminID,
	}).Return(&domain.TaxFiling{
		ID: filingID, UserID: owner.ID, TaxYear: "2024-25",
		Status: domain.FilingStatusCompleted, Remarks: "Filed with FBR",
	}, nil)
	userRepo.On("GetByID", mock.Anything, owner.ID).Return(owner, nil)

	filing, err := svc.UpdateStatus(context.Background(), service.UpdateFilingStatusInput{
		FilingID:   filingID,
		Status:     domain.FilingStatusCompleted,
		Remarks:    "  Filed with FBR ",
		AdminNotes: &notes,
		ChangedBy:  adminID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FilingStatusCompleted, filing.Status)

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, service.NotifyFilingStatus, sent[0].Kind)
	assert.Equal(t, "sana@example.com", sent[0].Notice.ToEmail)
	assert.Equal(t, "Tax filing 2024-25", sent[0].Notice.Subject)
	assert.Equal(t, "completed", sent[0].Notice.Status)
}

func TestAdminTaxFilingService_UpdateStatusErrors(t *testing.T) {
	svc, filingRepo, _, notifier := newAdminFilingService()

	_, err := svc.UpdateStatus(context.Background(), service.UpdateFilingStatusInput{FilingID: uuid.New(), Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidFilingStatus)

	filingRepo.On("UpdateStatus", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrTaxFilingNotFound)
	_, err = svc.UpdateStatus(context.Background(), service.UpdateFilingStatusInput{FilingID: uuid.New(), Status: domain.FilingStatusRejected})
	assert.ErrorIs(t, err, domain.ErrTaxFilingNotFound)
	assert.Empty(t, notifier.all())
}

func TestAdminTaxFilingService_BulkUpdateStatus(t *testing.T) {
	svc, filingRepo, userRepo, notifier := newAdminFilingService()
	owner := &domain.User{ID: uuid.New(), Email: "owner@example.com"}
	found, missing := uuid.New(), uuid.New()

	filingRepo.On("BulkUpdateStatus", mock.Anything, []uuid.UUID{found, missing}, mock.MatchedBy(func(u domain.FilingStatusUpdate) bool {
		return u.Status == domain.FilingStatusUnderReview
	})).Return([]uuid.UUID{found}, nil)
	filingRepo.On("GetByID", mock.Anything, found).Return(&domain.TaxFilingView{TaxFiling: domain.TaxFiling{
		ID: found, UserID: owner.ID, TaxYear: "2024-25", Status: domain.FilingStatusUnderReview,
	}}, nil)
	userRepo.On("GetByID", mock.Anything, owner.ID).Return(owner, nil)

	res, err := svc.BulkUpdateStatus(context.Background(), service.BulkFilingStatusInput{
		FilingIDs: []string{found.String(), missing.String(), found.String()},
		Status:    domain.FilingStatusUnderReview,
	})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{found}, res.UpdatedIDs)
	assert.Equal(t, []uuid.UUID{missing}, res.NotFoundIDs)
	assert.Equal(t, 1, res.UpdatedCount)
	assert.Len(t, notifier.all(), 1)
}

func TestAdminTaxFilingService_BulkUpdateStatusMalformedID(t *testing.T) {
	svc, filingRepo, _, _ := newAdminFilingService()

	_, err := svc.BulkUpdateStatus(context.Background(), service.BulkFilingStatusInput{
		FilingIDs: []string{uuid.NewString(), "12"},
		Status:    domain.FilingStatusCompleted,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.BulkUpdateStatus(context.Background(), service.BulkFilingStatusInput{Status: domain.FilingStatusCompleted})
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
	filingRepo.AssertNotCalled(t, "BulkUpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminTaxFilingService_Report(t *testing.T) {
	svc, filingRepo, _, _ := newAdminFilingService()

	filingRepo.On("List", mock.Anything, mock.MatchedBy(func(f *domain.TaxFilingFilters) bool {
		return f.Page == 1 && f.Limit == 5000
	})).Return([]domain.TaxFilingView{{
		TaxFiling: domain.TaxFiling{
			ID: uuid.New(), TaxYear: "2024-25", FilingType: domain.FilingTypeIndividual,
			Status: domain.FilingStatusUnderReview, TaxPayable: decimal.RequireFromString("12500.5"),
		},
		UserName: "Hamza Ali",
	}}, 1, nil)
	filingRepo.On("Statistics", mock.Anything, mock.Anything).Return(&domain.TaxFilingStatistics{
		Total:           1,
		ByStatus:        map[domain.FilingStatus]int{domain.FilingStatusUnderReview: 1},
		TotalTaxPayable: decimal.RequireFromString("12500.5"),
	}, nil)

	file, err := svc.Report(context.Background(), domain.TaxFilingFilters{}, domain.ReportFormatCSV)
	require.NoError(t, err)

	content := string(file.Content)
	assert.Contains(t, content, "Tax Filings Report")
	assert.Contains(t, content, "Under Review")
	assert.Contains(t, content, "12500.50")
	assert.Contains(t, content, "Hamza Ali")
}
