package domain

import "errors"

var (
	ErrNotFound                = errors.New("resource not found")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrUserNotFound            = errors.New("user not found")
	ErrMissingUserID           = errors.New("userId is required")
	ErrInvalidUserID           = errors.New("userId must be a valid UUID")
	ErrInvalidID               = errors.New("invalid id")
	ErrInvalidTaxYear          = errors.New("invalid taxYear")
	ErrInvalidRecord           = errors.New("invalid record")
	ErrBatchTooLarge           = errors.New("batch is too large")
	ErrSectionNotFound         = errors.New("section record not found")
	ErrUnknownSection          = errors.New("unknown section")
	ErrUnknownDataType         = errors.New("unknown dataType")
	ErrSectionShapeMismatch    = errors.New("payload shape does not match section")
	ErrVersionConflict         = errors.New("record was modified concurrently")
	ErrDuplicateSection        = errors.New("section record already exists for this user and tax year")
	ErrInvalidDocumentID       = errors.New("invalid document id")
	ErrDocumentNotFound        = errors.New("document not found")
	ErrInvalidDocumentStatus   = errors.New("invalid document status")
	ErrRejectionReasonRequired = errors.New("rejectionReason is required when rejecting a document")
	ErrTaxFilingNotFound       = errors.New("tax filing not found")
	ErrInvalidFilingStatus     = errors.New("invalid tax filing status")
	ErrInvalidBulkOperation    = errors.New("invalid bulk operation")
	ErrEmptyBatch              = errors.New("batch is empty")
	ErrUnsupportedFormat       = errors.New("unsupported report format")
)

// ValidationError carries a caller-facing message for a rejected input.
// It unwraps to the sentinel it refines so errors.Is keeps working.
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError wraps err with a specific message.
func NewValidationError(err error, msg string) error {
	return &ValidationError{Err: err, Message: msg}
}
