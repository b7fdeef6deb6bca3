package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taxdesk/internal/domain"
	"taxdesk/internal/middleware"
)

const contextKeyErrorDetail = "error_detail"

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	Data      interface{}        `json:"data,omitempty"`
	Error     *APIError          `json:"error,omitempty"`
	Meta      *domain.Pagination `json:"meta,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Detail is the raw error text, only sent in development.
	Detail string `json:"detail,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: message, Data: data, Timestamp: time.Now().UTC()})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Message: message, Data: data, Timestamp: time.Now().UTC()})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, message string, data interface{}, meta domain.Pagination) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Message: message, Data: data, Meta: &meta, Timestamp: time.Now().UTC()})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success:   false,
		Message:   msg,
		Error:     &APIError{Code: code, Message: msg},
		Timestamp: time.Now().UTC(),
	})
}

// ErrorDetail returns middleware that controls whether error responses
// carry the raw error text.
func ErrorDetail(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextKeyErrorDetail, enabled)
		c.Next()
	}
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "forbidden"
	case errors.Is(err, domain.ErrMissingUserID):
		return http.StatusBadRequest, "MISSING_USER_ID", "userId is required"
	case errors.Is(err, domain.ErrInvalidUserID):
		return http.StatusBadRequest, "INVALID_USER_ID", "userId must be a valid UUID"
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, "INVALID_ID", "invalid id"
	case errors.Is(err, domain.ErrInvalidTaxYear):
		return http.StatusBadRequest, "INVALID_TAX_YEAR", "invalid taxYear"
	case errors.Is(err, domain.ErrInvalidRecord):
		return http.StatusBadRequest, "VALIDATION_ERROR", "invalid record"
	case errors.Is(err, domain.ErrEmptyBatch):
		return http.StatusBadRequest, "EMPTY_BATCH", "batch is empty"
	case errors.Is(err, domain.ErrBatchTooLarge):
		return http.StatusBadRequest, "BATCH_TOO_LARGE", "batch is too large"
	case errors.Is(err, domain.ErrInvalidBulkOperation):
		return http.StatusBadRequest, "INVALID_OPERATION", "operation must be one of: create, update, delete"
	case errors.Is(err, domain.ErrUnknownDataType):
		return http.StatusBadRequest, "UNKNOWN_DATA_TYPE", "unknown dataType"
	case errors.Is(err, domain.ErrUnknownSection):
		return http.StatusBadRequest, "UNKNOWN_SECTION", "unknown section"
	case errors.Is(err, domain.ErrSectionShapeMismatch):
		return http.StatusBadRequest, "SECTION_SHAPE_MISMATCH", "payload shape does not match section"
	case errors.Is(err, domain.ErrSectionNotFound):
		return http.StatusNotFound, "SECTION_NOT_FOUND", "section record not found"
	case errors.Is(err, domain.ErrDuplicateSection):
		return http.StatusConflict, "DUPLICATE_SECTION", "section record already exists for this user and tax year"
	case errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, "VERSION_CONFLICT", "record was modified concurrently; retry"
	case errors.Is(err, domain.ErrInvalidDocumentID):
		return http.StatusBadRequest, "INVALID_DOCUMENT_ID", "invalid document id"
	case errors.Is(err, domain.ErrInvalidDocumentStatus):
		return http.StatusBadRequest, "INVALID_STATUS", "status must be one of: pending, approved, rejected"
	case errors.Is(err, domain.ErrRejectionReasonRequired):
		return http.StatusBadRequest, "REJECTION_REASON_REQUIRED", "rejectionReason is required when rejecting a document"
	case errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound, "DOCUMENT_NOT_FOUND", "document not found"
	case errors.Is(err, domain.ErrInvalidFilingStatus):
		return http.StatusBadRequest, "INVALID_STATUS", "status must be one of: pending, under_review, completed, rejected"
	case errors.Is(err, domain.ErrTaxFilingNotFound):
		return http.StatusNotFound, "TAX_FILING_NOT_FOUND", "tax filing not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND", "user not found"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest, "UNSUPPORTED_FORMAT", "format must be one of: pdf, xlsx, csv"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	var verr *domain.ValidationError
	if status < 500 && errors.As(err, &verr) {
		msg = verr.Error()
	}

	apiErr := &APIError{Code: code, Message: msg}
	if c.GetBool(contextKeyErrorDetail) {
		apiErr.Detail = err.Error()
	}
	if status >= 500 {
		zap.L().Error("internal error",
			zap.String("request_id", c.GetString(middleware.ContextKeyRequestID)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		_ = c.Error(err)
	}
	c.JSON(status, APIResponse{Success: false, Message: msg, Error: apiErr, Timestamp: time.Now().UTC()})
}

// respondBadRequest sends a 400 for malformed input caught by the handler itself.
func respondBadRequest(c *gin.Context, code, msg string) {
	RespondError(c, http.StatusBadRequest, code, msg)
}

// actorFromContext reads the authenticated caller.
// Returns false if auth context is missing (error response already written).
func actorFromContext(c *gin.Context) (domain.Actor, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: userID, Role: domain.UserRole(middleware.GetRole(c))}, true
}

// resolveUserID parses the userId a profile request targets. Callers
// without a staff role may only target themselves.
func resolveUserID(c *gin.Context, raw string) (uuid.UUID, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		return uuid.Nil, false
	}
	if raw == "" {
		HandleError(c, domain.ErrMissingUserID)
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		HandleError(c, domain.ErrInvalidUserID)
		return uuid.Nil, false
	}
	if !actor.CanAccess(userID) {
		HandleError(c, domain.ErrForbidden)
		return uuid.Nil, false
	}
	return userID, true
}

// parseDateParam parses an optional YYYY-MM-DD query parameter.
func parseDateParam(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid '%s' date: must be YYYY-MM-DD", name)
	}
	return &t, nil
}
