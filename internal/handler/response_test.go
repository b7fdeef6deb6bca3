package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"taxdesk/internal/domain"
	"taxdesk/internal/handler"
)

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{domain.ErrMissingUserID, http.StatusBadRequest, "MISSING_USER_ID"},
		{domain.ErrUnknownDataType, http.StatusBadRequest, "UNKNOWN_DATA_TYPE"},
		{domain.ErrSectionShapeMismatch, http.StatusBadRequest, "SECTION_SHAPE_MISMATCH"},
		{domain.ErrBatchTooLarge, http.StatusBadRequest, "BATCH_TOO_LARGE"},
		{domain.ErrSectionNotFound, http.StatusNotFound, "SECTION_NOT_FOUND"},
		{domain.ErrDuplicateSection, http.StatusConflict, "DUPLICATE_SECTION"},
		{domain.ErrVersionConflict, http.StatusConflict, "VERSION_CONFLICT"},
		{domain.ErrInvalidDocumentID, http.StatusBadRequest, "INVALID_DOCUMENT_ID"},
		{domain.ErrDocumentNotFound, http.StatusNotFound, "DOCUMENT_NOT_FOUND"},
		{domain.ErrTaxFilingNotFound, http.StatusNotFound, "TAX_FILING_NOT_FOUND"},
		{fmt.Errorf("loading salaryIncome: %w", domain.ErrUnsupportedFormat), http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestHandleError_DetailOnlyWhenEnabled(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		r := gin.New()
		r.Use(handler.ErrorDetail(enabled))
		r.GET("/fail", func(c *gin.Context) {
			handler.HandleError(c, fmt.Errorf("profileService.Statistics: %w", errors.New("pq: relation missing")))
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/fail", http.NoBody)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, "an internal error occurred", resp.Error.Message)
		if enabled {
			assert.Contains(t, resp.Error.Detail, "pq: relation missing")
		} else {
			assert.Empty(t, resp.Error.Detail)
		}
	}
}

func TestHandleError_ValidationMessage(t *testing.T) {
	c, w := newContext(http.MethodGet, "/", nil)

	handler.HandleError(c, domain.NewValidationError(domain.ErrInvalidRecord, "records[3]: userId is required"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "records[3]: userId is required", resp.Message)
}
