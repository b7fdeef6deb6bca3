package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is a platform account. Sections, documents, and filings reference it by ID.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"fullName"`
	Email     string    `db:"email" json:"email"`
	CNIC      string    `db:"cnic" json:"cnic"`
	Phone     string    `db:"phone" json:"phone"`
	Role      UserRole  `db:"role" json:"role"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// SectionKey addresses the records of one section for one user.
// An empty TaxYear matches every year on reads and is stored as-is on writes.
type SectionKey struct {
	UserID  uuid.UUID
	TaxYear string
}

// SectionRecord is one stored record of a profile section.
type SectionRecord struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	Kind      SectionKind     `db:"kind" json:"kind"`
	UserID    uuid.UUID       `db:"user_id" json:"userId"`
	TaxYear   string          `db:"tax_year" json:"taxYear,omitempty"`
	Data      json.RawMessage `db:"data" json:"data"`
	Version   int64           `db:"version" json:"version"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// DocumentReview is the review state stored next to each registration file.
type DocumentReview struct {
	Status          DocumentStatus `json:"status,omitempty"`
	ApprovedBy      *uuid.UUID     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time     `json:"approvedAt,omitempty"`
	ReviewedBy      *uuid.UUID     `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewedAt,omitempty"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
	ReviewNotes     string         `json:"reviewNotes,omitempty"`
}

// EffectiveStatus returns the status, defaulting to pending when unset.
func (r DocumentReview) EffectiveStatus() DocumentStatus {
	if r.Status == "" {
		return DocumentStatusPending
	}
	return r.Status
}

// NTNRegistration is the read model of an ntnRegistration section payload.
type NTNRegistration struct {
	NTNNumber        string         `json:"ntnNumber"`
	RegistrationType string         `json:"registrationType"`
	CertificatePath  string         `json:"certificatePath"`
	Review           DocumentReview `json:"review"`
}

// BusinessDocumentFields are the named file slots of a business incorporation, in display order.
var BusinessDocumentFields = []string{
	"registrationCertificate",
	"partnershipDeed",
	"memorandumOfAssociation",
	"articlesOfAssociation",
	"ownerCnic",
	"utilityBill",
}

// IsBusinessDocumentField reports whether field is a known business file slot.
func IsBusinessDocumentField(field string) bool {
	for _, f := range BusinessDocumentFields {
		if f == field {
			return true
		}
	}
	return false
}

// BusinessIncorporation is the read model of a businessIncorporation section payload.
type BusinessIncorporation struct {
	BusinessName   string                    `json:"businessName"`
	BusinessType   string                    `json:"businessType"`
	Documents      map[string]string         `json:"documents"`
	DocumentStatus map[string]DocumentReview `json:"documentStatus"`
}

// GSTDocument is one document entry of a GST registration; all its files share a review.
type GSTDocument struct {
	DocType   string         `json:"docType"`
	FilePaths []string       `json:"filePaths"`
	Review    DocumentReview `json:"review"`
}

// GSTRegistration is the read model of a gstRegistration section payload.
type GSTRegistration struct {
	GSTNumber    string        `json:"gstNumber"`
	BusinessName string        `json:"businessName"`
	Documents    []GSTDocument `json:"documents"`
}

// Document is the flattened admin view of one registration file.
type Document struct {
	ID              string         `json:"id"`
	RecordID        uuid.UUID      `json:"recordId"`
	Module          DocumentModule `json:"module"`
	DocType         string         `json:"docType"`
	FileName        string         `json:"fileName"`
	FilePath        string         `json:"filePath"`
	DownloadURL     string         `json:"downloadUrl,omitempty"`
	Status          DocumentStatus `json:"status"`
	ApprovedBy      *uuid.UUID     `json:"approvedBy"`
	ApprovedAt      *time.Time     `json:"approvedAt"`
	RejectionReason string         `json:"rejectionReason"`
	ReviewNotes     string         `json:"reviewNotes"`
	UserID          uuid.UUID      `json:"userId"`
	UserName        string         `json:"userName"`
	UserEmail       string         `json:"userEmail"`
	UserCNIC        string         `json:"userCnic"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// StatusHistoryEntry is one transition in a tax filing's history.
type StatusHistoryEntry struct {
	Status    FilingStatus `json:"status"`
	ChangedBy *uuid.UUID   `json:"changedBy,omitempty"`
	ChangedAt time.Time    `json:"changedAt"`
	Remarks   string       `json:"remarks,omitempty"`
}

// StatusHistory is stored as a JSONB array.
type StatusHistory []StatusHistoryEntry

// Scan implements sql.Scanner.
func (h *StatusHistory) Scan(src interface{}) error {
	if src == nil {
		*h = StatusHistory{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("StatusHistory.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(raw, h)
}

// Value implements driver.Valuer.
func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h)
}

// TaxFiling is the filing-status record for one user and tax year.
type TaxFiling struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	UserID          uuid.UUID       `db:"user_id" json:"userId"`
	TaxYear         string          `db:"tax_year" json:"taxYear"`
	FilingType      FilingType      `db:"filing_type" json:"filingType"`
	Status          FilingStatus    `db:"status" json:"status"`
	TaxableIncome   decimal.Decimal `db:"taxable_income" json:"taxableIncome"`
	TaxPayable      decimal.Decimal `db:"tax_payable" json:"taxPayable"`
	Remarks         string          `db:"remarks" json:"remarks"`
	AdminNotes      string          `db:"admin_notes" json:"adminNotes"`
	ReviewedBy      *uuid.UUID      `db:"reviewed_by" json:"reviewedBy"`
	ReviewStartedAt *time.Time      `db:"review_started_at" json:"reviewStartedAt"`
	CompletedAt     *time.Time      `db:"completed_at" json:"completedAt"`
	RejectedAt      *time.Time      `db:"rejected_at" json:"rejectedAt"`
	StatusHistory   StatusHistory   `db:"status_history" json:"statusHistory"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// TaxFilingView is a filing enriched with its owner's contact details.
type TaxFilingView struct {
	TaxFiling
	UserName  string `db:"user_name" json:"userName"`
	UserEmail string `db:"user_email" json:"userEmail"`
	UserCNIC  string `db:"user_cnic" json:"userCnic"`
}

// FilingStatusUpdate is one status transition applied to a tax filing.
type FilingStatusUpdate struct {
	Status     FilingStatus
	Remarks    string
	AdminNotes *string
	ChangedBy  uuid.UUID
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uuid.UUID
	Role   UserRole
}

// CanAccess reports whether the actor may read or write userID's data.
func (a Actor) CanAccess(userID uuid.UUID) bool {
	return a.Role.IsStaff() || a.UserID == userID
}
