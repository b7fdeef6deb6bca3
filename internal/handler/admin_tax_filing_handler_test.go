package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"taxdesk/internal/domain"
	"taxdesk/internal/handler"
	"taxdesk/internal/service"
	"taxdesk/mocks"
)

func newAdminTaxFilingHandler() (*handler.AdminTaxFilingHandler, *mocks.MockAdminTaxFilingService) {
	svc := new(mocks.MockAdminTaxFilingService)
	return handler.NewAdminTaxFilingHandler(svc), svc
}

func TestAdminTaxFilingHandler_List(t *testing.T) {
	h, svc := newAdminTaxFilingHandler()

	svc.On("List", mock.Anything, mock.MatchedBy(func(f domain.TaxFilingFilters) bool {
		return f.SortBy == "taxableIncome" && !f.SortDesc && f.TaxYear == "2024-25" && f.Limit == 10
	})).Return(&domain.TaxFilingPage{Pagination: domain.NewPagination(1, 10, 3)}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/admin/tax-filings?sortBy=taxableIncome&sortOrder=ASC&taxYear=2024-25", nil)
	setAuthContext(c, uuid.New(), "admin")

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	if assert.NotNil(t, resp.Meta) {
		assert.Equal(t, 3, resp.Meta.Total)
	}
	svc.AssertExpectations(t)
}

func TestAdminTaxFilingHandler_ListDefaultsToNewestFirst(t *testing.T) {
	h, svc := newAdminTaxFilingHandler()

	svc.On("List", mock.Anything, mock.MatchedBy(func(f domain.TaxFilingFilters) bool {
		return f.SortBy == "createdAt" && f.SortDesc && f.Page == 1
	})).Return(&domain.TaxFilingPage{}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/admin/tax-filings", nil)
	setAuthContext(c, uuid.New(), "admin")

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAdminTaxFilingHandler_ListBadRequests(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		svcErr  error
		wantErr string
	}{
		{"sort order", "?sortOrder=sideways", nil, "INVALID_SORT_ORDER"},
		{"date", "?dateFrom=yesterday", nil, "INVALID_DATE"},
		{"status", "?status=lost", domain.NewValidationError(domain.ErrInvalidFilingStatus, `unknown status "lost"`), "INVALID_STATUS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newAdminTaxFilingHandler()
			if tt.svcErr != nil {
				svc.On("List", mock.Anything, mock.Anything).Return(nil, tt.svcErr)
			}

			c, w := newContext(http.MethodGet, "/api/v1/admin/tax-filings"+tt.query, nil)
			setAuthContext(c, uuid.New(), "admin")

			h.List(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantErr, errorCode(t, w))
		})
	}
}

func TestAdminTaxFilingHandler_Get(t *testing.T) {
	h, svc := newAdminTaxFilingHandler()
	id := uuid.New()

	svc.On("Get", mock.Anything, id).Return(nil, domain.ErrTaxFilingNotFound)

	c, w := newContext(http.MethodGet, "/api/v1/admin/tax-filings/"+id.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	setAuthContext(c, uuid.New(), "admin")

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TAX_FILING_NOT_FOUND", errorCode(t, w))
}

func TestAdminTaxFilingHandler_GetInvalidID(t *testing.T) {
	h, svc := newAdminTaxFilingHandler()

	c, w := newContext(http.MethodGet, "/api/v1/admin/tax-filings/42", nil)
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	setAuthContext(c, uuid.New(), "admin")

	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.Calls)
}

func TestAdminTaxFilingHandler_UpdateStatus(t *testing.T) {
	h, svc := newAdminTaxFilingHandler()
	id, adminID := uuid.New(), uuid.New()

	svc.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(in service.UpdateFilingStatusInput) bool {
		return in.FilingID == id && in.Status == domain.FilingStatusUnderReview &&
			in.ChangedBy == adminID && in.AdminNotes != nil && *in.AdminNotes == "check bank"
	})).Return(&domain.TaxFiling{ID: id, Status: domain.FilingStatusUnderReview}, nil)

	c, w := newContext(http.MethodPatch, "/api/v1/admin/tax-filings/"+id.String()+"/status",
		`{"status":"under_review","adminNotes":"check bank"}`)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	setAuthContext(c, adminID, "admin")

	h.UpdateStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAdminTaxFilingHandler_BulkUpdateStatus(t *testing.T) {
	h, svc := newAdminTaxFilingHandler()
	a, b := uuid.New(), uuid.New()

	svc.On("BulkUpdateStatus", mock.Anything, mock.MatchedBy(func(in service.BulkFilingStatusInput) bool {
		return len(in.FilingIDs) == 2 && in.Status == domain.FilingStatusCompleted
	})).Return(&service.BulkFilingStatusResult{
		Status: domain.FilingStatusCompleted, UpdatedIDs: []uuid.UUID{a}, NotFoundIDs: []uuid.UUID{b}, UpdatedCount: 1,
	}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/admin/tax-filings/bulk-status",
		fmt.Sprintf(`{"filingIds":[%q,%q],"status":"completed"}`, a.String(), b.String()))
	setAuthContext(c, uuid.New(), "admin")

	h.BulkUpdateStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.EqualValues(t, 1, data["updatedCount"])
}

func TestAdminTaxFilingHandler_BulkUpdateStatusMissingFields(t *testing.T) {
	h, svc := newAdminTaxFilingHandler()

	c, w := newContext(http.MethodPost, "/api/v1/admin/tax-filings/bulk-status", `{"status":"completed"}`)
	setAuthContext(c, uuid.New(), "admin")

	h.BulkUpdateStatus(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.Calls)
}

func TestAdminTaxFilingHandler_ReportDefaultsToPDF(t *testing.T) {
	h, svc := newAdminTaxFilingHandler()

	svc.On("Report", mock.Anything, mock.Anything, domain.ReportFormatPDF).Return(&service.ReportFile{
		Filename: "tax_filings_report.pdf", ContentType: "application/pdf", Content: []byte("%PDF-1.3"),
	}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/admin/tax-filings/report", nil)
	setAuthContext(c, uuid.New(), "admin")

	h.Report(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	svc.AssertExpectations(t)
}
