package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"taxdesk/internal/domain"
	"taxdesk/internal/logger"
	"taxdesk/internal/port"
)

// CreateTaxFilingInput is the DTO for submitting a filing.
type CreateTaxFilingInput struct {
	UserID        uuid.UUID       `validate:"required"`
	TaxYear       string          `validate:"required,max=9"`
	FilingType    string          `validate:"required,oneof=individual business aop revised"`
	TaxableIncome decimal.Decimal `validate:"-"`
	TaxPayable    decimal.Decimal `validate:"-"`
	Remarks       string          `validate:"max=2000"`
}

// TaxFilingService is the taxpayer's own view of their filings.
type TaxFilingService interface {
	Create(ctx context.Context, input CreateTaxFilingInput) (*domain.TaxFiling, error)
	ListMine(ctx context.Context, userID uuid.UUID, taxYear string) ([]domain.TaxFilingView, error)
}

type taxFilingService struct {
	filingRepo port.TaxFilingRepository
	log        *logger.Logger
}

// NewTaxFilingService creates a new TaxFilingService implementation.
func NewTaxFilingService(filingRepo port.TaxFilingRepository, log *logger.Logger) TaxFilingService {
	return &taxFilingService{filingRepo: filingRepo, log: log.With("component", "tax_filing_service")}
}

func (s *taxFilingService) Create(ctx context.Context, input CreateTaxFilingInput) (*domain.TaxFiling, error) {
	if err := validate.Struct(input); err != nil {
		return nil, domain.NewValidationError(domain.ErrInvalidRecord, validationMessage("", err))
	}
	if input.TaxableIncome.IsNegative() || input.TaxPayable.IsNegative() {
		return nil, domain.NewValidationError(domain.ErrInvalidRecord, "amounts must not be negative")
	}

	filing := &domain.TaxFiling{
		UserID:        input.UserID,
		TaxYear:       input.TaxYear,
		FilingType:    domain.FilingType(input.FilingType),
		Status:        domain.FilingStatusPending,
		TaxableIncome: input.TaxableIncome,
		TaxPayable:    input.TaxPayable,
		Remarks:       input.Remarks,
	}
	if err := s.filingRepo.Create(ctx, filing); err != nil {
		return nil, err
	}
	s.log.Info("tax filing submitted", "filing", filing.ID, "user", filing.UserID, "tax_year", filing.TaxYear)
	return filing, nil
}

func (s *taxFilingService) ListMine(ctx context.Context, userID uuid.UUID, taxYear string) ([]domain.TaxFilingView, error) {
	if err := validateTaxYear(taxYear); err != nil {
		return nil, err
	}
	return s.filingRepo.ListByUser(ctx, userID, taxYear)
}
