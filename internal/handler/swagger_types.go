package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"taxdesk/internal/domain"
	"taxdesk/internal/service"
)

// Swagger type definitions for API documentation.
// Request types are also bound directly by the handlers.

// --- Request Types ---

// SaveProfileRequest is the body of POST /comprehensive/data.
type SaveProfileRequest struct {
	UserID  string                     `json:"userId" example:"550e8400-e29b-41d4-a716-446655440000"`
	TaxYear string                     `json:"taxYear" example:"2024-25"`
	Data    map[string]json.RawMessage `json:"data" swaggertype:"object"`
}

// BulkRequest is the body of POST /comprehensive/bulk/{operation}. Which of
// records, updates or ids is read depends on the operation.
type BulkRequest struct {
	DataType string                   `json:"dataType" example:"salaryIncome"`
	Records  []json.RawMessage        `json:"records,omitempty" swaggertype:"array,object"`
	Updates  []service.BulkUpdateItem `json:"updates,omitempty"`
	IDs      []string                 `json:"ids,omitempty" example:"660e8400-e29b-41d4-a716-446655440001"`
}

// UpdateDocumentStatusRequest is a document review decision.
type UpdateDocumentStatusRequest struct {
	Status          string `json:"status" binding:"required" example:"rejected"`
	RejectionReason string `json:"rejectionReason" example:"Certificate is not legible"`
	ReviewNotes     string `json:"reviewNotes" example:"Asked the user to upload a clearer scan"`
}

// UpdateFilingStatusRequest is a filing status change.
type UpdateFilingStatusRequest struct {
	Status     string  `json:"status" binding:"required" example:"under_review"`
	Remarks    string  `json:"remarks" example:"Picked up for review"`
	AdminNotes *string `json:"adminNotes" example:"Check wealth statement against bank records"`
}

// BulkFilingStatusRequest changes the status of many filings.
type BulkFilingStatusRequest struct {
	FilingIDs []string `json:"filingIds" binding:"required" example:"770e8400-e29b-41d4-a716-446655440002"`
	Status    string   `json:"status" binding:"required" example:"completed"`
	Remarks   string   `json:"remarks" example:"Filed with FBR"`
}

// CreateTaxFilingRequest submits a filing for the caller.
type CreateTaxFilingRequest struct {
	TaxYear       string           `json:"taxYear" binding:"required" example:"2024-25"`
	FilingType    string           `json:"filingType" binding:"required" example:"individual"`
	TaxableIncome *decimal.Decimal `json:"taxableIncome" swaggertype:"string" example:"2400000.00"`
	TaxPayable    *decimal.Decimal `json:"taxPayable" swaggertype:"string" example:"145000.00"`
	Remarks       string           `json:"remarks" example:"Salaried, single employer"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success   bool               `json:"success" example:"true"`
	Message   string             `json:"message" example:"Data retrieved successfully"`
	Data      interface{}        `json:"data,omitempty"`
	Meta      *domain.Pagination `json:"meta,omitempty"`
	Timestamp time.Time          `json:"timestamp" example:"2025-01-15T10:30:00Z"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success   bool      `json:"success" example:"false"`
	Message   string    `json:"message" example:"userId is required"`
	Error     *APIError `json:"error"`
	Timestamp time.Time `json:"timestamp" example:"2025-01-15T10:30:00Z"`
}
