package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"taxdesk/internal/domain"
)

// maxTaxYearLen fits the "2024-2025" form.
const maxTaxYearLen = 9

var validate = validator.New()

// validationMessage turns validator output into one caller-facing line.
func validationMessage(prefix string, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return prefix + err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "uuid":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid UUID", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return prefix + strings.Join(msgs, "; ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func validateTaxYear(taxYear string) error {
	if len(taxYear) > maxTaxYearLen {
		return domain.NewValidationError(domain.ErrInvalidTaxYear,
			fmt.Sprintf("taxYear must be at most %d characters", maxTaxYearLen))
	}
	return nil
}
