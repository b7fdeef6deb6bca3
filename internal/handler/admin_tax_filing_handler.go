package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taxdesk/internal/domain"
	"taxdesk/internal/report"
	"taxdesk/internal/service"
)

// AdminTaxFilingHandler serves the admin tax filing endpoints.
type AdminTaxFilingHandler struct {
	filingService service.AdminTaxFilingService
}

// NewAdminTaxFilingHandler creates a new AdminTaxFilingHandler.
func NewAdminTaxFilingHandler(filingService service.AdminTaxFilingService) *AdminTaxFilingHandler {
	return &AdminTaxFilingHandler{filingService: filingService}
}

func parseFilingFilters(c *gin.Context) (domain.TaxFilingFilters, bool) {
	f := domain.TaxFilingFilters{
		Status:     domain.FilingStatus(c.Query("status")),
		FilingType: domain.FilingType(c.Query("filingType")),
		TaxYear:    c.Query("taxYear"),
		Search:     c.Query("search"),
		SortBy:     c.DefaultQuery("sortBy", "createdAt"),
	}
	switch strings.ToLower(c.DefaultQuery("sortOrder", "desc")) {
	case "desc":
		f.SortDesc = true
	case "asc":
	default:
		respondBadRequest(c, "INVALID_SORT_ORDER", "sortOrder must be asc or desc")
		return f, false
	}

	var err error
	if f.DateFrom, err = parseDateParam(c, "dateFrom"); err != nil {
		respondBadRequest(c, "INVALID_DATE", err.Error())
		return f, false
	}
	if f.DateTo, err = parseDateParam(c, "dateTo"); err != nil {
		respondBadRequest(c, "INVALID_DATE", err.Error())
		return f, false
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	return f, true
}

// List handles GET /api/v1/admin/tax-filings
// @Summary List tax filings
// @Description Filings with owner details, statistics and filter options
// @Tags admin-tax-filings
// @Produce json
// @Param status query string false "pending, under_review, completed or rejected"
// @Param filingType query string false "individual, business, aop or revised"
// @Param taxYear query string false "Tax year"
// @Param search query string false "Search user name, email or CNIC"
// @Param sortBy query string false "createdAt, updatedAt, taxYear, status or taxableIncome" default(createdAt)
// @Param sortOrder query string false "asc or desc" default(desc)
// @Param dateFrom query string false "Created on or after (YYYY-MM-DD)"
// @Param dateTo query string false "Created on or before (YYYY-MM-DD)"
// @Param page query int false "Page (1-based)" default(1)
// @Param limit query int false "Page size (max 100)" default(10)
// @Success 200 {object} Response{data=domain.TaxFilingPage,meta=domain.Pagination} "Filings"
// @Failure 400 {object} ErrorResponseBody "Invalid filter"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Admin or accountant role required"
// @Security BearerAuth
// @Router /admin/tax-filings [get]
func (h *AdminTaxFilingHandler) List(c *gin.Context) {
	filters, ok := parseFilingFilters(c)
	if !ok {
		return
	}

	page, err := h.filingService.List(c.Request.Context(), filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, "Tax filings retrieved successfully", page, page.Pagination)
}

// Report handles GET /api/v1/admin/tax-filings/report
// @Summary Export tax filings report
// @Tags admin-tax-filings
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param format query string false "pdf, xlsx or csv" default(pdf)
// @Param status query string false "Filing status"
// @Param filingType query string false "Filing type"
// @Param taxYear query string false "Tax year"
// @Param search query string false "Search user name, email or CNIC"
// @Success 200 {file} file "Report file"
// @Failure 400 {object} ErrorResponseBody "Invalid filter or format"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Admin or accountant role required"
// @Security BearerAuth
// @Router /admin/tax-filings/report [get]
func (h *AdminTaxFilingHandler) Report(c *gin.Context) {
	filters, ok := parseFilingFilters(c)
	if !ok {
		return
	}
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}

	file, err := h.filingService.Report(c.Request.Context(), filters, format)
	if err != nil {
		HandleError(c, err)
		return
	}
	sendFile(c, file)
}

// Get handles GET /api/v1/admin/tax-filings/:id
// @Summary Get a tax filing
// @Tags admin-tax-filings
// @Produce json
// @Param id path string true "Filing ID (UUID)"
// @Success 200 {object} Response{data=domain.TaxFilingView} "Filing"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Admin or accountant role required"
// @Failure 404 {object} ErrorResponseBody "Filing not found"
// @Security BearerAuth
// @Router /admin/tax-filings/{id} [get]
func (h *AdminTaxFilingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "INVALID_ID", "invalid tax filing ID")
		return
	}

	filing, err := h.filingService.Get(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, "Tax filing retrieved successfully", filing)
}

// UpdateStatus handles PATCH /api/v1/admin/tax-filings/:id/status
// @Summary Change a filing's status
// @Description Sets the status, stamps the transition time and appends to the status history
// @Tags admin-tax-filings
// @Accept json
// @Produce json
// @Param id path string true "Filing ID (UUID)"
// @Param request body UpdateFilingStatusRequest true "New status"
// @Success 200 {object} Response{data=domain.TaxFiling} "Updated filing"
// @Failure 400 {object} ErrorResponseBody "Invalid status"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Admin or accountant role required"
// @Failure 404 {object} ErrorResponseBody "Filing not found"
// @Security BearerAuth
// @Router /admin/tax-filings/{id}/status [patch]
func (h *AdminTaxFilingHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "INVALID_ID", "invalid tax filing ID")
		return
	}

	var req UpdateFilingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", "status is required")
		return
	}

	filing, err := h.filingService.UpdateStatus(c.Request.Context(), service.UpdateFilingStatusInput{
		FilingID:   id,
		Status:     domain.FilingStatus(req.Status),
		Remarks:    req.Remarks,
		AdminNotes: req.AdminNotes,
		ChangedBy:  actor.UserID,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, "Tax filing status updated successfully", filing)
}

// BulkUpdateStatus handles POST /api/v1/admin/tax-filings/bulk-status
// @Summary Change many filings' status
// @Tags admin-tax-filings
// @Accept json
// @Produce json
// @Param request body BulkFilingStatusRequest true "Filing IDs and new status"
// @Success 200 {object} Response{data=service.BulkFilingStatusResult} "Updated and not-found IDs"
// @Failure 400 {object} ErrorResponseBody "Invalid status or ID"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Admin or accountant role required"
// @Security BearerAuth
// @Router /admin/tax-filings/bulk-status [post]
func (h *AdminTaxFilingHandler) BulkUpdateStatus(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req BulkFilingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", "filingIds and status are required")
		return
	}

	result, err := h.filingService.BulkUpdateStatus(c.Request.Context(), service.BulkFilingStatusInput{
		FilingIDs: req.FilingIDs,
		Status:    domain.FilingStatus(req.Status),
		Remarks:   req.Remarks,
		ChangedBy: actor.UserID,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, "Tax filings updated successfully", result)
}
