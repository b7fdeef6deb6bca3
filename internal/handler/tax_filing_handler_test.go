package handler_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"taxdesk/internal/domain"
	"taxdesk/internal/handler"
	"taxdesk/internal/service"
	"taxdesk/mocks"
)

func TestTaxFilingHandler_Create(t *testing.T) {
	svc := new(mocks.MockTaxFilingService)
	h := handler.NewTaxFilingHandler(svc)
	userID := uuid.New()

	svc.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreateTaxFilingInput) bool {
		return in.UserID == userID && in.FilingType == "individual" &&
			in.TaxableIncome.Equal(decimal.RequireFromString("2400000.50")) && in.TaxPayable.IsZero()
	})).Return(&domain.TaxFiling{ID: uuid.New(), UserID: userID, Status: domain.FilingStatusPending}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/tax-filings",
		`{"taxYear":"2024-25","filingType":"individual","taxableIncome":"2400000.50"}`)
	setAuthContext(c, userID, "user")

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestTaxFilingHandler_CreateMissingFields(t *testing.T) {
	svc := new(mocks.MockTaxFilingService)
	h := handler.NewTaxFilingHandler(svc)

	c, w := newContext(http.MethodPost, "/api/v1/tax-filings", `{"taxYear":"2024-25"}`)
	setAuthContext(c, uuid.New(), "user")

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.Calls)
}

func TestTaxFilingHandler_ListMine(t *testing.T) {
	svc := new(mocks.MockTaxFilingService)
	h := handler.NewTaxFilingHandler(svc)
	userID := uuid.New()

	svc.On("ListMine", mock.Anything, userID, "2024-25").Return([]domain.TaxFilingView{{}}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/tax-filings?taxYear=2024-25", nil)
	setAuthContext(c, userID, "user")

	h.ListMine(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeResponse(t, w).Data, 1)
}
