package domain

import (
	"math"

	"github.com/google/uuid"
)

// TaxFilingsLeaf is the read-only profile leaf listing the user's filings.
const TaxFilingsLeaf = "taxFilings"

// ProfileGroup maps a leaf key to its value: nil or *SectionRecord for
// singletons, []SectionRecord for lists.
type ProfileGroup map[string]interface{}

// Profile is the assembled view of every section for one user and tax year.
type Profile struct {
	UserID                 uuid.UUID      `json:"userId"`
	TaxYear                string         `json:"taxYear,omitempty"`
	IncomeDetails          ProfileGroup   `json:"incomeDetails"`
	AssetDetails           ProfileGroup   `json:"assetDetails"`
	Deductions             ProfileGroup   `json:"deductions"`
	LiabilitiesAndExpenses ProfileGroup   `json:"liabilitiesAndExpenses"`
	TaxAndFiling           ProfileGroup   `json:"taxAndFiling"`
	ProfileAndRegistration ProfileGroup   `json:"profileAndRegistration"`
	OtherData              ProfileGroup   `json:"otherData"`
	Summary                ProfileSummary `json:"summary"`
}

// NewProfile returns a profile with every group initialized.
func NewProfile(userID uuid.UUID, taxYear string) *Profile {
	return &Profile{
		UserID:                 userID,
		TaxYear:                taxYear,
		IncomeDetails:          ProfileGroup{},
		AssetDetails:           ProfileGroup{},
		Deductions:             ProfileGroup{},
		LiabilitiesAndExpenses: ProfileGroup{},
		TaxAndFiling:           ProfileGroup{},
		ProfileAndRegistration: ProfileGroup{},
		OtherData:              ProfileGroup{},
	}
}

// Group returns the group map for g, or nil for an unknown group.
func (p *Profile) Group(g SectionGroup) ProfileGroup {
	switch g {
	case GroupIncomeDetails:
		return p.IncomeDetails
	case GroupAssetDetails:
		return p.AssetDetails
	case GroupDeductions:
		return p.Deductions
	case GroupLiabilitiesAndExpenses:
		return p.LiabilitiesAndExpenses
	case GroupTaxAndFiling:
		return p.TaxAndFiling
	case GroupProfileAndRegistration:
		return p.ProfileAndRegistration
	case GroupOtherData:
		return p.OtherData
	default:
		return nil
	}
}

// ProfileSummary is derived from a profile's populated leaves.
type ProfileSummary struct {
	Groups              map[SectionGroup]int `json:"groups"`
	TotalSections       int                  `json:"totalSections"`
	PopulatedSections   int                  `json:"populatedSections"`
	PopulatedGroups     int                  `json:"populatedGroups"`
	TotalGroups         int                  `json:"totalGroups"`
	ProfileCompleteness int                  `json:"profileCompleteness"`
}

// Completeness is the rounded percentage of populated groups.
func Completeness(populatedGroups, totalGroups int) int {
	if totalGroups <= 0 {
		return 0
	}
	return int(math.Round(float64(populatedGroups) / float64(totalGroups) * 100))
}

// IsPopulated reports whether a profile leaf value holds data.
func IsPopulated(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case *SectionRecord:
		return t != nil
	case []SectionRecord:
		return len(t) > 0
	case []TaxFilingView:
		return len(t) > 0
	case []TaxFiling:
		return len(t) > 0
	default:
		return true
	}
}

// SectionError reports a failed group during a profile save.
type SectionError struct {
	Section string `json:"section"`
	Error   string `json:"error"`
}

// SaveResult is the outcome of a profile save.
type SaveResult struct {
	SavedData map[SectionGroup]ProfileGroup `json:"savedData"`
	Errors    []SectionError                `json:"errors"`
}

// ProfileStatistics holds per-section record counts for one user.
type ProfileStatistics struct {
	UserID              uuid.UUID            `json:"userId"`
	TaxYear             string               `json:"taxYear,omitempty"`
	Counts              map[SectionKind]int  `json:"counts"`
	GroupTotals         map[SectionGroup]int `json:"groupTotals"`
	TotalRecords        int                  `json:"totalRecords"`
	TaxFilings          int                  `json:"taxFilings"`
	ProfileCompleteness int                  `json:"profileCompleteness"`
}
