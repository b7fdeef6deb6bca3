package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taxdesk/internal/domain"
	"taxdesk/internal/report"
	"taxdesk/internal/service"
)

// AdminDocumentHandler serves the admin document review endpoints.
type AdminDocumentHandler struct {
	documentService service.AdminDocumentService
}

// NewAdminDocumentHandler creates a new AdminDocumentHandler.
func NewAdminDocumentHandler(documentService service.AdminDocumentService) *AdminDocumentHandler {
	return &AdminDocumentHandler{documentService: documentService}
}

func parseDocumentFilters(c *gin.Context) (domain.DocumentFilters, bool) {
	f := domain.DocumentFilters{
		Search: c.Query("search"),
		Module: domain.DocumentModule(c.Query("module")),
		Status: domain.DocumentStatus(c.Query("status")),
	}
	if f.Module != "" && !domain.ValidDocumentModules[f.Module] {
		respondBadRequest(c, "INVALID_MODULE", "module must be one of: ntn, business, gst")
		return f, false
	}
	if f.Status != "" && !domain.ValidDocumentStatuses[f.Status] {
		HandleError(c, domain.ErrInvalidDocumentStatus)
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

// List handles GET /api/v1/admin/documents
// @Summary List registration documents
// @Description Flattened documents from NTN, business and GST registrations with statistics over all matches
// @Tags admin-documents
// @Produce json
// @Param search query string false "Search user name, email or CNIC"
// @Param module query string false "ntn, business or gst"
// @Param status query string false "pending, approved or rejected"
// @Param dateFrom query string false "Created on or after (YYYY-MM-DD)"
// @Param dateTo query string false "Created on or before (YYYY-MM-DD)"
// @Param page query int false "Page (1-based)" default(1)
// @Param limit query int false "Page size (max 100)" default(10)
// @Success 200 {object} Response{data=domain.DocumentPage,meta=domain.Pagination} "Documents"
// @Failure 400 {object} ErrorResponseBody "Invalid filter"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Admin or accountant role required"
// @Security BearerAuth
// @Router /admin/documents [get]
func (h *AdminDocumentHandler) List(c *gin.Context) {
	filters, ok := parseDocumentFilters(c)
	if !ok {
		return
	}

	page, err := h.documentService.List(c.Request.Context(), filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, "Documents retrieved successfully", page, page.Pagination)
}

// Report handles GET /api/v1/admin/documents/report
// @Summary Export documents report
// @Description Render the filtered documents as PDF, XLSX or CSV
// @Tags admin-documents
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param format query string false "pdf, xlsx or csv" default(pdf)
// @Param detailed query bool false "Include one row per document"
// @Param search query string false "Search user name, email or CNIC"
// @Param module query string false "ntn, business or gst"
// @Param status query string false "pending, approved or rejected"
// @Param dateFrom query string false "Created on or after (YYYY-MM-DD)"
// @Param dateTo query string false "Created on or before (YYYY-MM-DD)"
// @Success 200 {file} file "Report file"
// @Failure 400 {object} ErrorResponseBody "Invalid filter or format"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Admin or accountant role required"
// @Security BearerAuth
// @Router /admin/documents/report [get]
func (h *AdminDocumentHandler) Report(c *gin.Context) {
	filters, ok := parseDocumentFilters(c)
	if !ok {
		return
	}
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}
	detailed, _ := strconv.ParseBool(c.DefaultQuery("detailed", "false"))

	file, err := h.documentService.Report(c.Request.Context(), filters, format, detailed)
	if err != nil {
		HandleError(c, err)
		return
	}
	sendFile(c, file)
}

// Get handles GET /api/v1/admin/documents/:documentId
// @Summary Get one document
// @Description Get a flattened document with a presigned download URL when storage is configured
// @Tags admin-documents
// @Produce json
// @Param documentId path string true "Document ID"
// @Success 200 {object} Response{data=domain.Document} "Document"
// @Failure 400 {object} ErrorResponseBody "Invalid document ID"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Admin or accountant role required"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Security BearerAuth
// @Router /admin/documents/{documentId} [get]
func (h *AdminDocumentHandler) Get(c *gin.Context) {
	doc, err := h.documentService.Get(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, "Document retrieved successfully", doc)
}

// UpdateStatus handles PATCH /api/v1/admin/documents/:documentId/status
// @Summary Review a document
// @Description Approve, reject or reset one document. Rejection requires a reason.
// @Tags admin-documents
// @Accept json
// @Produce json
// @Param documentId path string true "Document ID"
// @Param request body UpdateDocumentStatusRequest true "Review decision"
// @Success 200 {object} Response{data=domain.Document} "Updated document"
// @Failure 400 {object} ErrorResponseBody "Invalid status or missing rejection reason"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Failure 403 {object} ErrorResponseBody "Admin or accountant role required"
// @Failure 404 {object} ErrorResponseBody "Document not found"
// @Failure 409 {object} ErrorResponseBody "Record kept changing; retry"
// @Security BearerAuth
// @Router /admin/documents/{documentId}/status [patch]
func (h *AdminDocumentHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req UpdateDocumentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", "status is required")
		return
	}

	doc, err := h.documentService.UpdateStatus(c.Request.Context(), service.UpdateDocumentStatusInput{
		DocumentID:      c.Param("documentId"),
		Status:          domain.DocumentStatus(req.Status),
		RejectionReason: req.RejectionReason,
		ReviewNotes:     req.ReviewNotes,
		ReviewerID:      actor.UserID,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, "Document status updated successfully", doc)
}

func sendFile(c *gin.Context, file *service.ReportFile) {
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
