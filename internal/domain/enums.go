package domain

// UserRole defines the platform roles.
type UserRole string

const (
	RoleUser       UserRole = "user"
	RoleAccountant UserRole = "accountant"
	RoleAdmin      UserRole = "admin"
)

// IsStaff reports whether the role may act on other users' data.
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleAccountant
}

// SectionShape says whether a section holds one record or many per key.
type SectionShape string

const (
	ShapeSingleton SectionShape = "singleton"
	ShapeList      SectionShape = "list"
)

// SectionGroup is a top-level group of the tax filing profile.
type SectionGroup string

const (
	GroupIncomeDetails          SectionGroup = "incomeDetails"
	GroupAssetDetails           SectionGroup = "assetDetails"
	GroupDeductions             SectionGroup = "deductions"
	GroupLiabilitiesAndExpenses SectionGroup = "liabilitiesAndExpenses"
	GroupTaxAndFiling           SectionGroup = "taxAndFiling"
	GroupProfileAndRegistration SectionGroup = "profileAndRegistration"
	GroupOtherData              SectionGroup = "otherData"
)

// DocumentModule names the registration source a document was flattened from.
type DocumentModule string

const (
	ModuleNTN      DocumentModule = "ntn"
	ModuleBusiness DocumentModule = "business"
	ModuleGST      DocumentModule = "gst"
)

// ValidDocumentModules lists the accepted module filter values.
var ValidDocumentModules = map[DocumentModule]bool{
	ModuleNTN:      true,
	ModuleBusiness: true,
	ModuleGST:      true,
}

// DocumentStatus is the review state of a single document.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusApproved DocumentStatus = "approved"
	DocumentStatusRejected DocumentStatus = "rejected"
)

// ValidDocumentStatuses lists the accepted document statuses.
var ValidDocumentStatuses = map[DocumentStatus]bool{
	DocumentStatusPending:  true,
	DocumentStatusApproved: true,
	DocumentStatusRejected: true,
}

// FilingStatus is the lifecycle state of a tax filing.
type FilingStatus string

const (
	FilingStatusPending     FilingStatus = "pending"
	FilingStatusUnderReview FilingStatus = "under_review"
	FilingStatusCompleted   FilingStatus = "completed"
	FilingStatusRejected    FilingStatus = "rejected"
)

// FilingStatuses lists filing statuses in display order.
var FilingStatuses = []FilingStatus{
	FilingStatusPending,
	FilingStatusUnderReview,
	FilingStatusCompleted,
	FilingStatusRejected,
}

// ValidFilingStatuses lists the accepted filing statuses.
var ValidFilingStatuses = map[FilingStatus]bool{
	FilingStatusPending:     true,
	FilingStatusUnderReview: true,
	FilingStatusCompleted:   true,
	FilingStatusRejected:    true,
}

// FilingType distinguishes the kind of return being filed.
type FilingType string

const (
	FilingTypeIndividual FilingType = "individual"
	FilingTypeBusiness   FilingType = "business"
	FilingTypeAOP        FilingType = "aop"
	FilingTypeRevised    FilingType = "revised"
)

// ValidFilingTypes lists the accepted filing types.
var ValidFilingTypes = map[FilingType]bool{
	FilingTypeIndividual: true,
	FilingTypeBusiness:   true,
	FilingTypeAOP:        true,
	FilingTypeRevised:    true,
}

// ReportFormat selects the export renderer.
type ReportFormat string

const (
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatCSV  ReportFormat = "csv"
)

// ReportContentTypes maps a report format to its MIME type.
var ReportContentTypes = map[ReportFormat]string{
	ReportFormatPDF:  "application/pdf",
	ReportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	ReportFormatCSV:  "text/csv; charset=utf-8",
}
