package domain

// SectionKind names one section type. The value is the section's JSON key
// inside its profile group and the bulk API's dataType.
type SectionKind string

const (
	KindSalaryIncome      SectionKind = "salaryIncome"
	KindBusinessIncome    SectionKind = "businessIncome"
	KindPropertyIncome    SectionKind = "propertyIncome"
	KindCapitalGains      SectionKind = "capitalGains"
	KindForeignIncome     SectionKind = "foreignIncome"
	KindAgricultureIncome SectionKind = "agricultureIncome"
	KindProfitOnDebt      SectionKind = "profitOnDebt"
	KindOtherIncome       SectionKind = "otherIncome"

	KindPropertyAssets SectionKind = "propertyAssets"
	KindVehicleAssets  SectionKind = "vehicleAssets"
	KindBankAccounts   SectionKind = "bankAccounts"
	KindInvestments    SectionKind = "investments"
	KindCashAndJewelry SectionKind = "cashAndJewelry"
	KindOtherAssets    SectionKind = "otherAssets"

	KindZakatDeduction       SectionKind = "zakatDeduction"
	KindCharitableDonations  SectionKind = "charitableDonations"
	KindPensionContributions SectionKind = "pensionContributions"
	KindEducationExpenses    SectionKind = "educationExpenses"
	KindHealthInsurance      SectionKind = "healthInsurance"
	KindTaxCredits           SectionKind = "taxCredits"

	KindLiabilities       SectionKind = "liabilities"
	KindLoans             SectionKind = "loans"
	KindHouseholdExpenses SectionKind = "householdExpenses"
	KindPersonalExpenses  SectionKind = "personalExpenses"

	KindWithholdingTax  SectionKind = "withholdingTax"
	KindAdvanceTax      SectionKind = "advanceTax"
	KindTaxComputation  SectionKind = "taxComputation"
	KindTaxPayments     SectionKind = "taxPayments"
	KindWealthStatement SectionKind = "wealthStatement"

	KindPersonalInfo          SectionKind = "personalInfo"
	KindNTNRegistration       SectionKind = "ntnRegistration"
	KindGSTRegistration       SectionKind = "gstRegistration"
	KindIRISProfile           SectionKind = "irisProfile"
	KindBusinessIncorporation SectionKind = "businessIncorporation"

	KindServiceCharges SectionKind = "serviceCharges"
	KindFamilyMembers  SectionKind = "familyMembers"
	KindNotes          SectionKind = "notes"
)

// SectionDescriptor describes how a section kind is stored and where it sits in the profile.
type SectionDescriptor struct {
	Kind       SectionKind
	Group      SectionGroup
	Shape      SectionShape
	YearScoped bool
	// Collection is the backing collection name for document stores.
	Collection string
}

// IsSingleton reports whether the section holds at most one record per key.
func (d SectionDescriptor) IsSingleton() bool {
	return d.Shape == ShapeSingleton
}

// KeyFor normalizes a key for this section: kinds that are not year-scoped
// never carry a tax year.
func (d SectionDescriptor) KeyFor(key SectionKey) SectionKey {
	if !d.YearScoped {
		key.TaxYear = ""
	}
	return key
}
