package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPagination computes page metadata for total items.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Offset returns the zero-based index of the first item on the page.
func (p Pagination) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// DocumentFilters narrows the admin document listing.
type DocumentFilters struct {
	Search   string
	Module   DocumentModule
	Status   DocumentStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
}

// DocumentStatistics summarizes a filtered document set.
type DocumentStatistics struct {
	Total       int                    `json:"total"`
	ByStatus    map[DocumentStatus]int `json:"byStatus"`
	ByModule    map[DocumentModule]int `json:"byModule"`
	UniqueUsers int                    `json:"uniqueUsers"`
}

// DocumentPage is one page of flattened documents plus statistics over all matches.
type DocumentPage struct {
	Documents  []Document         `json:"documents"`
	Pagination Pagination         `json:"pagination"`
	Statistics DocumentStatistics `json:"statistics"`
}

// TaxFilingSortFields maps accepted sortBy values to columns.
var TaxFilingSortFields = map[string]string{
	"createdAt":     "tf.created_at",
	"updatedAt":     "tf.updated_at",
	"taxYear":       "tf.tax_year",
	"status":        "tf.status",
	"taxableIncome": "tf.taxable_income",
}

// TaxFilingFilters narrows the admin filing listing.
type TaxFilingFilters struct {
	Status     FilingStatus
	FilingType FilingType
	TaxYear    string
	Search     string
	SortBy     string
	SortDesc   bool
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	Limit      int
}

// TaxFilingStatistics summarizes the filings matching a filter.
type TaxFilingStatistics struct {
	Total           int                  `json:"total"`
	ByStatus        map[FilingStatus]int `json:"byStatus"`
	TotalTaxPayable decimal.Decimal      `json:"totalTaxPayable"`
}

// TaxFilingFilterOptions lists the values a client can filter on.
type TaxFilingFilterOptions struct {
	Statuses    []FilingStatus `json:"statuses"`
	FilingTypes []FilingType   `json:"filingTypes"`
	TaxYears    []string       `json:"taxYears"`
}

// TaxFilingPage is one page of filings plus statistics and filter metadata.
type TaxFilingPage struct {
	Filings    []TaxFilingView        `json:"filings"`
	Pagination Pagination             `json:"pagination"`
	Statistics TaxFilingStatistics    `json:"statistics"`
	Filters    TaxFilingFilterOptions `json:"filters"`
}
