package section

import "taxdesk/internal/domain"

func single(kind domain.SectionKind, group domain.SectionGroup) domain.SectionDescriptor {
	return domain.SectionDescriptor{Kind: kind, Group: group, Shape: domain.ShapeSingleton, YearScoped: true}
}

func list(kind domain.SectionKind, group domain.SectionGroup) domain.SectionDescriptor {
	return domain.SectionDescriptor{Kind: kind, Group: group, Shape: domain.ShapeList, YearScoped: true}
}

// registration sections describe the person or business, not a year.
func registration(kind domain.SectionKind) domain.SectionDescriptor {
	return domain.SectionDescriptor{Kind: kind, Group: domain.GroupProfileAndRegistration, Shape: domain.ShapeSingleton}
}

// DefaultDescriptors lists every built-in section in profile order.
func DefaultDescriptors() []domain.SectionDescriptor {
	return []domain.SectionDescriptor{
		single(domain.KindSalaryIncome, domain.GroupIncomeDetails),
		single(domain.KindBusinessIncome, domain.GroupIncomeDetails),
		single(domain.KindPropertyIncome, domain.GroupIncomeDetails),
		list(domain.KindCapitalGains, domain.GroupIncomeDetails),
		single(domain.KindForeignIncome, domain.GroupIncomeDetails),
		single(domain.KindAgricultureIncome, domain.GroupIncomeDetails),
		single(domain.KindProfitOnDebt, domain.GroupIncomeDetails),
		list(domain.KindOtherIncome, domain.GroupIncomeDetails),

		list(domain.KindPropertyAssets, domain.GroupAssetDetails),
		list(domain.KindVehicleAssets, domain.GroupAssetDetails),
		list(domain.KindBankAccounts, domain.GroupAssetDetails),
		list(domain.KindInvestments, domain.GroupAssetDetails),
		single(domain.KindCashAndJewelry, domain.GroupAssetDetails),
		list(domain.KindOtherAssets, domain.GroupAssetDetails),

		single(domain.KindZakatDeduction, domain.GroupDeductions),
		list(domain.KindCharitableDonations, domain.GroupDeductions),
		single(domain.KindPensionContributions, domain.GroupDeductions),
		single(domain.KindEducationExpenses, domain.GroupDeductions),
		single(domain.KindHealthInsurance, domain.GroupDeductions),
		list(domain.KindTaxCredits, domain.GroupDeductions),

		list(domain.KindLiabilities, domain.GroupLiabilitiesAndExpenses),
		list(domain.KindLoans, domain.GroupLiabilitiesAndExpenses),
		single(domain.KindHouseholdExpenses, domain.GroupLiabilitiesAndExpenses),
		single(domain.KindPersonalExpenses, domain.GroupLiabilitiesAndExpenses),

		list(domain.KindWithholdingTax, domain.GroupTaxAndFiling),
		single(domain.KindAdvanceTax, domain.GroupTaxAndFiling),
		single(domain.KindTaxComputation, domain.GroupTaxAndFiling),
		list(domain.KindTaxPayments, domain.GroupTaxAndFiling),
		single(domain.KindWealthStatement, domain.GroupTaxAndFiling),

		registration(domain.KindPersonalInfo),
		registration(domain.KindNTNRegistration),
		registration(domain.KindGSTRegistration),
		registration(domain.KindIRISProfile),
		registration(domain.KindBusinessIncorporation),

		list(domain.KindServiceCharges, domain.GroupOtherData),
		list(domain.KindFamilyMembers, domain.GroupOtherData),
		single(domain.KindNotes, domain.GroupOtherData),
	}
}

// Default returns a registry holding every built-in section.
func Default() *Registry {
	r := NewRegistry()
	for _, d := range DefaultDescriptors() {
		r.MustRegister(d)
	}
	return r
}
