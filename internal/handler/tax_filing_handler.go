package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"taxdesk/internal/service"
)

// TaxFilingHandler serves a taxpayer's own filings.
type TaxFilingHandler struct {
	filingService service.TaxFilingService
}

// NewTaxFilingHandler creates a new TaxFilingHandler.
func NewTaxFilingHandler(filingService service.TaxFilingService) *TaxFilingHandler {
	return &TaxFilingHandler{filingService: filingService}
}

// Create handles POST /api/v1/tax-filings
// @Summary Submit a tax filing
// @Tags tax-filings
// @Accept json
// @Produce json
// @Param request body CreateTaxFilingRequest true "Filing details"
// @Success 201 {object} Response{data=domain.TaxFiling} "Filing created"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /tax-filings [post]
func (h *TaxFilingHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var req CreateTaxFilingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "INVALID_REQUEST", "taxYear and filingType are required")
		return
	}

	filing, err := h.filingService.Create(c.Request.Context(), service.CreateTaxFilingInput{
		UserID:        actor.UserID,
		TaxYear:       req.TaxYear,
		FilingType:    req.FilingType,
		TaxableIncome: decimalOrZero(req.TaxableIncome),
		TaxPayable:    decimalOrZero(req.TaxPayable),
		Remarks:       req.Remarks,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, "Tax filing submitted successfully", filing)
}

// ListMine handles GET /api/v1/tax-filings
// @Summary List my tax filings
// @Tags tax-filings
// @Produce json
// @Param taxYear query string false "Tax year"
// @Success 200 {object} Response{data=[]domain.TaxFilingView} "Filings"
// @Failure 400 {object} ErrorResponseBody "Invalid tax year"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /tax-filings [get]
func (h *TaxFilingHandler) ListMine(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	filings, err := h.filingService.ListMine(c.Request.Context(), actor.UserID, c.Query("taxYear"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, "Tax filings retrieved successfully", filings)
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
