package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taxdesk/internal/domain"
	"taxdesk/internal/logger"
	"taxdesk/internal/port"
	"taxdesk/internal/repository/memory"
	"taxdesk/internal/section"
	"taxdesk/internal/service"
	"taxdesk/mocks"
)

func newProfileService(store port.SectionStore) (service.ProfileService, *mocks.MockTaxFilingRepo) {
	filingRepo := new(mocks.MockTaxFilingRepo)
	filingRepo.On("ListByUser", mock.Anything, mock.Anything, mock.Anything).Return([]domain.TaxFilingView{}, nil).Maybe()
	return service.NewProfileService(section.Default(), store, filingRepo, 4, logger.Nop()), filingRepo
}

func saveGroups(t *testing.T, svc service.ProfileService, userID uuid.UUID, taxYear, data string) *domain.SaveResult {
	t.Helper()
	var groups map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(data), &groups))
	res, err := svc.SaveAllUserData(context.Background(), service.SaveProfileInput{UserID: userID, TaxYear: taxYear, Data: groups})
	require.NoError(t, err)
	return res
}

func TestProfileService_GetAllUserData_EmptyUser(t *testing.T) {
	svc, _ := newProfileService(memory.NewSectionStore())
	userID := uuid.New()

	p, err := svc.GetAllUserData(context.Background(), userID, "2024-25")
	require.NoError(t, err)

	for _, desc := range section.Default().All() {
		v := p.Group(desc.Group)[string(desc.Kind)]
		if desc.IsSingleton() {
			assert.Nil(t, v, desc.Kind)
		} else {
			assert.Equal(t, []domain.SectionRecord{}, v, desc.Kind)
		}
	}
	assert.Equal(t, []domain.TaxFilingView{}, p.TaxAndFiling[domain.TaxFilingsLeaf])
	assert.Equal(t, 0, p.Summary.ProfileCompleteness)
	assert.Equal(t, 0, p.Summary.PopulatedSections)
	assert.Equal(t, 7, p.Summary.TotalGroups)
}

func TestProfileService_GetAllUserData_Validation(t *testing.T) {
	svc, _ := newProfileService(memory.NewSectionStore())

	_, err := svc.GetAllUserData(context.Background(), uuid.Nil, "")
	assert.ErrorIs(t, err, domain.ErrMissingUserID)

	_, err = svc.GetAllUserData(context.Background(), uuid.New(), "2024-2025-26")
	assert.ErrorIs(t, err, domain.ErrInvalidTaxYear)
}

func TestProfileService_GetAllUserData_ReadFailure(t *testing.T) {
	store := new(mocks.MockSectionStore)
	store.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
	svc, _ := newProfileService(store)

	_, err := svc.GetAllUserData(context.Background(), uuid.New(), "2024-25")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestProfileService_GetAllUserData_Summary(t *testing.T) {
	svc, filingRepo := newProfileService(memory.NewSectionStore())
	userID := uuid.New()

	saveGroups(t, svc, userID, "2024-25", `{
		"incomeDetails": {"salaryIncome": {"annualSalary": 1800000}, "capitalGains": [{"asset":"shares"}]},
		"otherData": {"notes": {"text": "call back"}}
	}`)

	filingRepo.ExpectedCalls = nil
	filingRepo.On("ListByUser", mock.Anything, userID, "2024-25").Return([]domain.TaxFilingView{{}}, nil)

	p, err := svc.GetAllUserData(context.Background(), userID, "2024-25")
	require.NoError(t, err)

	assert.Equal(t, 2, p.Summary.Groups[domain.GroupIncomeDetails])
	assert.Equal(t, 1, p.Summary.Groups[domain.GroupOtherData])
	assert.Equal(t, 1, p.Summary.Groups[domain.GroupTaxAndFiling], "filings count as a populated leaf")
	assert.Equal(t, 4, p.Summary.PopulatedSections)
	assert.Equal(t, 3, p.Summary.PopulatedGroups)
	assert.Equal(t, 43, p.Summary.ProfileCompleteness)
}

func TestProfileService_SaveSingletonTwice(t *testing.T) {
	store := memory.NewSectionStore()
	svc, _ := newProfileService(store)
	userID := uuid.New()

	saveGroups(t, svc, userID, "2024-25", `{"incomeDetails": {"salaryIncome": {"annualSalary": 100}}}`)
	saveGroups(t, svc, userID, "2024-25", `{"incomeDetails": {"salaryIncome": {"annualSalary": 200}}}`)

	desc, _ := section.Default().Lookup(domain.KindSalaryIncome)
	records, err := store.Find(context.Background(), desc, domain.SectionKey{UserID: userID, TaxYear: "2024-25"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"annualSalary": 200}`, string(records[0].Data))
}

func TestProfileService_SaveListReplaces(t *testing.T) {
	svc, _ := newProfileService(memory.NewSectionStore())
	userID := uuid.New()

	saveGroups(t, svc, userID, "2024-25", `{"assetDetails": {"vehicleAssets": [{"reg":"a"}, {"reg":"b"}]}}`)
	res := saveGroups(t, svc, userID, "2024-25", `{"assetDetails": {"vehicleAssets": [{"reg":"c"}]}}`)
	assert.Nil(t, res.Errors)

	p, err := svc.GetAllUserData(context.Background(), userID, "2024-25")
	require.NoError(t, err)
	vehicles := p.AssetDetails["vehicleAssets"].([]domain.SectionRecord)
	require.Len(t, vehicles, 1)
	assert.JSONEq(t, `{"reg":"c"}`, string(vehicles[0].Data))
}

func TestProfileService_ConcurrentSingletonSaves(t *testing.T) {
	store := memory.NewSectionStore()
	svc, _ := newProfileService(store)
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := map[string]json.RawMessage{
				"deductions": json.RawMessage(fmt.Sprintf(`{"zakatDeduction": {"amount": %d, "receipt": "r-%d"}}`, i, i)),
			}
			res, err := svc.SaveAllUserData(context.Background(), service.SaveProfileInput{UserID: userID, TaxYear: "2024-25", Data: data})
			assert.NoError(t, err)
			assert.Nil(t, res.Errors)
		}(i)
	}
	wg.Wait()

	desc, _ := section.Default().Lookup(domain.KindZakatDeduction)
	records, err := store.Find(context.Background(), desc, domain.SectionKey{UserID: userID, TaxYear: "2024-25"})
	require.NoError(t, err)
	require.Len(t, records, 1)

	var got struct {
		Amount  int    `json:"amount"`
		Receipt string `json:"receipt"`
	}
	require.NoError(t, json.Unmarshal(records[0].Data, &got))
	assert.Equal(t, fmt.Sprintf("r-%d", got.Amount), got.Receipt, "payload must come from a single save")
}

func TestProfileService_UnknownLeafFailsOnlyItsGroup(t *testing.T) {
	store := memory.NewSectionStore()
	svc, _ := newProfileService(store)
	userID := uuid.New()

	res := saveGroups(t, svc, userID, "2024-25", `{
		"incomeDetails": {"salaryIncome": {"annualSalary": 1}, "lotteryWinnings": {"amount": 5}},
		"assetDetails": {"bankAccounts": [{"bank":"HBL"}]},
		"hobbies": {"chess": {}}
	}`)

	require.Len(t, res.Errors, 2)
	assert.Equal(t, "hobbies", res.Errors[0].Section)
	assert.Equal(t, string(domain.GroupIncomeDetails), res.Errors[1].Section)
	assert.Contains(t, res.Errors[1].Error, "lotteryWinnings")

	assert.Contains(t, res.SavedData, domain.GroupAssetDetails)
	assert.NotContains(t, res.SavedData, domain.GroupIncomeDetails)

	desc, _ := section.Default().Lookup(domain.KindSalaryIncome)
	records, err := store.Find(context.Background(), desc, domain.SectionKey{UserID: userID})
	require.NoError(t, err)
	assert.Empty(t, records, "no leaf of a group with an unknown leaf is written")
}

func TestProfileService_ShapeMismatchStopsGroup(t *testing.T) {
	svc, _ := newProfileService(memory.NewSectionStore())
	userID := uuid.New()

	res := saveGroups(t, svc, userID, "2024-25", `{
		"incomeDetails": {
			"salaryIncome": {"annualSalary": 1},
			"capitalGains": {"asset": "not a list"},
			"otherIncome": [{"source": "tutoring"}]
		}
	}`)

	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error, "capitalGains")

	saved := res.SavedData[domain.GroupIncomeDetails]
	assert.Contains(t, saved, "salaryIncome", "leaves before the failure stay written")
	assert.NotContains(t, saved, "otherIncome", "leaves after the failure are not written")
}

func TestProfileService_SaveSkipsNullAndFilingLeaves(t *testing.T) {
	svc, _ := newProfileService(memory.NewSectionStore())

	res := saveGroups(t, svc, uuid.New(), "2024-25", `{
		"taxAndFiling": {"advanceTax": {"paid": 10}, "taxFilings": [{"id":"x"}], "taxComputation": null},
		"deductions": null
	}`)

	assert.Nil(t, res.Errors)
	saved := res.SavedData[domain.GroupTaxAndFiling]
	assert.Contains(t, saved, "advanceTax")
	assert.NotContains(t, saved, domain.TaxFilingsLeaf)
	assert.NotContains(t, saved, "taxComputation")
	assert.NotContains(t, res.SavedData, domain.GroupDeductions)
}

func TestProfileService_Statistics(t *testing.T) {
	svc, filingRepo := newProfileService(memory.NewSectionStore())
	userID := uuid.New()

	saveGroups(t, svc, userID, "2024-25", `{
		"assetDetails": {"bankAccounts": [{"bank":"A"}, {"bank":"B"}]},
		"profileAndRegistration": {"personalInfo": {"name": "Bilal"}}
	}`)

	filingRepo.ExpectedCalls = nil
	filingRepo.On("ListByUser", mock.Anything, userID, "2024-25").Return([]domain.TaxFilingView{{}, {}}, nil)

	stats, err := svc.Statistics(context.Background(), userID, "2024-25")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Counts[domain.KindBankAccounts])
	assert.Equal(t, 1, stats.Counts[domain.KindPersonalInfo])
	assert.Equal(t, 3, stats.TotalRecords)
	assert.Equal(t, 2, stats.TaxFilings)
	assert.Equal(t, 2, stats.GroupTotals[domain.GroupTaxAndFiling])
	assert.Equal(t, 0, stats.GroupTotals[domain.GroupDeductions])
	assert.Equal(t, 43, stats.ProfileCompleteness)
}
