package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taxdesk/internal/domain"
	"taxdesk/internal/logger"
	"taxdesk/internal/service"
	"taxdesk/mocks"
)

func TestTaxFilingService_Create(t *testing.T) {
	filingRepo := new(mocks.MockTaxFilingRepo)
	svc := service.NewTaxFilingService(filingRepo, logger.Nop())
	userID := uuid.New()

	filingRepo.On("Create", mock.Anything, mock.MatchedBy(func(f *domain.TaxFiling) bool {
		return f.UserID == userID && f.Status == domain.FilingStatusPending &&
			f.FilingType == domain.FilingTypeIndividual && f.TaxPayable.Equal(decimal.NewFromInt(4200))
	})).Return(nil)

	filing, err := svc.Create(context.Background(), service.CreateTaxFilingInput{
		UserID:        userID,
		TaxYear:       "2024-25",
		FilingType:    "individual",
		TaxableIncome: decimal.NewFromInt(1_800_000),
		TaxPayable:    decimal.NewFromInt(4200),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-25", filing.TaxYear)
	filingRepo.AssertExpectations(t)
}

func TestTaxFilingService_CreateValidation(t *testing.T) {
	valid := service.CreateTaxFilingInput{UserID: uuid.New(), TaxYear: "2024-25", FilingType: "business"}

	tests := []struct {
		name    string
		mutate  func(in *service.CreateTaxFilingInput)
		wantMsg string
	}{
		{"missing tax year", func(in *service.CreateTaxFilingInput) { in.TaxYear = "" }, "taxYear is required"},
		{"unknown filing type", func(in *service.CreateTaxFilingInput) { in.FilingType = "trust" }, "filingType must be one of"},
		{"negative amount", func(in *service.CreateTaxFilingInput) { in.TaxPayable = decimal.NewFromInt(-1) }, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filingRepo := new(mocks.MockTaxFilingRepo)
			svc := service.NewTaxFilingService(filingRepo, logger.Nop())

			in := valid
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			require.ErrorIs(t, err, domain.ErrInvalidRecord)
			assert.Contains(t, err.Error(), tt.wantMsg)
			filingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestTaxFilingService_ListMine(t *testing.T) {
	filingRepo := new(mocks.MockTaxFilingRepo)
	svc := service.NewTaxFilingService(filingRepo, logger.Nop())
	userID := uuid.New()

	filingRepo.On("ListByUser", mock.Anything, userID, "").Return([]domain.TaxFilingView{{}, {}}, nil)

	filings, err := svc.ListMine(context.Background(), userID, "")
	require.NoError(t, err)
	assert.Len(t, filings, 2)

	_, err = svc.ListMine(context.Background(), userID, "far-too-long-year")
	assert.ErrorIs(t, err, domain.ErrInvalidTaxYear)
}
